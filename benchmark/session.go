package benchmark

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"storebench/config"
	"storebench/identity"
)

// Session is the explicit context of one run: its identifier, the credential
// it was authorised with and the configuration snapshot taken at start.
type Session struct {
	RunID      string
	Credential identity.Credential
	Config     config.Benchmark
	Started    time.Time
}

// NewSession copies cfg so later edits to the caller's value are not seen by the run.
func NewSession(cred identity.Credential, cfg config.Benchmark) Session {
	if cfg.WebHDFS.Scopes != nil {
		cfg.WebHDFS.Scopes = append([]string(nil), cfg.WebHDFS.Scopes...)
	}
	return Session{
		RunID:      uuid.NewString(),
		Credential: cred,
		Config:     cfg,
		Started:    time.Now(),
	}
}

// checkCredential refuses to start remote work with a credential that is
// missing or has already expired. Expiry during a run surfaces as remote errors.
func (s Session) checkCredential() error {
	if !s.Credential.Valid() {
		return fmt.Errorf("%w: run %s has no valid credential", ErrAuthentication, s.RunID)
	}
	return nil
}
