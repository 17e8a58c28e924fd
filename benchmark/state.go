package benchmark

import (
	"fmt"
	"sync"

	"storebench/identity"
)

// State is a BenchmarkStateMachine state.
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticating
	StateReady
	StateUploading
	StateDownloading
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateUploading:
		return "uploading"
	case StateDownloading:
		return "downloading"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mode is the direction of a run.
type Mode string

const (
	ModeUpload   Mode = "upload"
	ModeDownload Mode = "download"
)

// StateMachine gates which operations are allowed. At most one run, upload
// or download, is active at any time.
type StateMachine struct {
	mu    sync.Mutex
	state State
	cred  identity.Credential
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateLoggedOut}
}

func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BeginAuthentication moves LoggedOut or Ready to Authenticating.
func (m *StateMachine) BeginAuthentication() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateLoggedOut, StateReady:
		m.state = StateAuthenticating
		return nil
	default:
		return fmt.Errorf("%w: cannot authenticate while %s", ErrInvalidState, m.state)
	}
}

// CompleteAuthentication stores cred and moves to Ready.
func (m *StateMachine) CompleteAuthentication(cred identity.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticating && m.state != StateLoggedOut {
		return fmt.Errorf("%w: cannot complete authentication while %s", ErrInvalidState, m.state)
	}
	if !cred.Valid() {
		m.state = StateLoggedOut
		m.cred = identity.Credential{}
		return fmt.Errorf("%w: credential is empty or expired", ErrAuthentication)
	}
	m.cred = cred
	m.state = StateReady
	return nil
}

// FailAuthentication returns to LoggedOut.
func (m *StateMachine) FailAuthentication() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticating {
		m.state = StateLoggedOut
		m.cred = identity.Credential{}
	}
}

// BeginRun moves Ready to Uploading or Downloading and returns the credential
// the run must use.
func (m *StateMachine) BeginRun(mode Mode) (identity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return identity.Credential{}, fmt.Errorf("%w: cannot start %s while %s", ErrInvalidState, mode, m.state)
	}
	if !m.cred.Valid() {
		return identity.Credential{}, fmt.Errorf("%w: credential is empty or expired", ErrAuthentication)
	}

	switch mode {
	case ModeUpload:
		m.state = StateUploading
	case ModeDownload:
		m.state = StateDownloading
	default:
		return identity.Credential{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, mode)
	}
	return m.cred, nil
}

// EndRun returns an active run to Ready, whatever its outcome.
func (m *StateMachine) EndRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUploading || m.state == StateDownloading {
		m.state = StateReady
	}
}

// Logout drops the credential. It is refused while a run is active.
func (m *StateMachine) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateUploading, StateDownloading, StateAuthenticating:
		return fmt.Errorf("%w: cannot log out while %s", ErrInvalidState, m.state)
	}
	m.state = StateLoggedOut
	m.cred = identity.Credential{}
	return nil
}
