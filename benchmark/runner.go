package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"storebench/config"
	"storebench/identity"
	"storebench/logging"
	"storebench/store"
)

// StoreOpener connects to the remote store with a freshly acquired credential.
type StoreOpener func(ctx context.Context, cred identity.Credential) (store.Store, error)

// Runner exposes login, runs and logout behind the StateMachine. Every run
// receives its own Session built from the stored credential and a copy of
// the configuration.
type Runner struct {
	auth    identity.Authenticator
	open    StoreOpener
	store   store.Store
	orch    *Orchestrator
	machine *StateMachine
	log     zerolog.Logger
}

// NewRunner returns a runner bound to an already connected store.
func NewRunner(auth identity.Authenticator, st store.Store) *Runner {
	return &Runner{
		auth:    auth,
		store:   st,
		orch:    NewOrchestrator(st),
		machine: NewStateMachine(),
		log:     logging.Component("runner"),
	}
}

// NewConnectingRunner returns a runner that opens its store during Login,
// with the credential the login produced.
func NewConnectingRunner(auth identity.Authenticator, open StoreOpener) *Runner {
	return &Runner{
		auth:    auth,
		open:    open,
		machine: NewStateMachine(),
		log:     logging.Component("runner"),
	}
}

func (r *Runner) State() State {
	return r.machine.State()
}

// Login acquires a credential and moves the runner to Ready.
func (r *Runner) Login(ctx context.Context) error {
	if err := r.machine.BeginAuthentication(); err != nil {
		return err
	}
	cred, err := r.auth.Authenticate(ctx)
	if err != nil {
		r.machine.FailAuthentication()
		if !errors.Is(err, ErrAuthentication) {
			err = fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return err
	}
	if r.open != nil {
		if err := r.connect(ctx, cred); err != nil {
			r.machine.FailAuthentication()
			return err
		}
	}
	if err := r.machine.CompleteAuthentication(cred); err != nil {
		return err
	}
	r.log.Info().Str("source", cred.Source).Msg("logged in")
	return nil
}

// connect replaces the store with one opened for cred. It runs while the
// machine is Authenticating, so no run can observe the swap.
func (r *Runner) connect(ctx context.Context, cred identity.Credential) error {
	if !cred.Valid() {
		return fmt.Errorf("%w: credential is empty or expired", ErrAuthentication)
	}
	st, err := r.open(ctx, cred)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.Warn().Err(err).Msg("closing previous store failed")
		}
	}
	r.store = st
	r.orch = NewOrchestrator(st)
	r.log.Debug().Str("source", cred.Source).Msg("store connected")
	return nil
}

// Upload runs one upload benchmark. progress, when non-nil, is always closed.
func (r *Runner) Upload(ctx context.Context, cfg config.Benchmark, progress chan<- ProgressSample) (RunResult, error) {
	sess, err := r.begin(ModeUpload, cfg)
	if err != nil {
		closeProgress(progress)
		return RunResult{Mode: ModeUpload}, err
	}
	defer r.machine.EndRun()
	return r.orch.Upload(ctx, sess, progress)
}

// Download runs one download benchmark. progress, when non-nil, is always closed.
func (r *Runner) Download(ctx context.Context, cfg config.Benchmark, progress chan<- ProgressSample) (RunResult, error) {
	sess, err := r.begin(ModeDownload, cfg)
	if err != nil {
		closeProgress(progress)
		return RunResult{Mode: ModeDownload}, err
	}
	defer r.machine.EndRun()
	return r.orch.Download(ctx, sess, progress)
}

func (r *Runner) begin(mode Mode, cfg config.Benchmark) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return Session{}, err
	}
	cred, err := r.machine.BeginRun(mode)
	if err != nil {
		return Session{}, err
	}
	sess := NewSession(cred, cfg)
	r.log.Debug().Str("run_id", sess.RunID).Str("mode", string(mode)).Msg("run started")
	return sess, nil
}

// Cleanup removes the remote benchmark object and, if removeLocal is set, the
// local dataset. It needs Ready, like a run.
func (r *Runner) Cleanup(ctx context.Context, cfg config.Benchmark, removeLocal bool) error {
	if state := r.machine.State(); state != StateReady {
		return fmt.Errorf("%w: cannot clean up while %s", ErrInvalidState, state)
	}
	if err := r.store.Remove(ctx, cfg.RemotePath); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: remove %s: %w", ErrRemoteTransfer, cfg.RemotePath, err)
	}
	r.log.Info().Str("remote", cfg.RemotePath).Msg("remote dataset removed")

	if removeLocal {
		if err := os.Remove(cfg.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: remove %s: %w", ErrIO, cfg.LocalPath, err)
		}
		r.log.Info().Str("local", cfg.LocalPath).Msg("local dataset removed")
	}
	return nil
}

func (r *Runner) Logout() error {
	if err := r.machine.Logout(); err != nil {
		return err
	}
	r.log.Info().Msg("logged out")
	return nil
}

// Close releases the store. A runner built with NewConnectingRunner owns its
// store; NewRunner callers may close theirs directly instead.
func (r *Runner) Close() error {
	if state := r.machine.State(); state == StateUploading || state == StateDownloading || state == StateAuthenticating {
		return fmt.Errorf("%w: cannot close while %s", ErrInvalidState, state)
	}
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

func closeProgress(progress chan<- ProgressSample) {
	if progress != nil {
		close(progress)
	}
}
