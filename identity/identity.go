// Package identity turns configured credentials into an opaque Credential
// that a benchmark run carries for its whole duration.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"storebench/config"
)

// ErrAuthentication is returned when a token cannot be acquired.
var ErrAuthentication = errors.New("authentication failed")

// Credential is an opaque proof of authentication. It is never renewed; once
// it expires the remote store rejects the calls made with it.
type Credential struct {
	Token  string
	Type   string
	Expiry time.Time
	Source string
}

// Valid reports whether the credential carries a token that has not expired.
func (c Credential) Valid() bool {
	return c.Token != "" && !c.Expired(time.Now())
}

// Expired reports whether the credential has an expiry before now.
func (c Credential) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// TokenSource returns a source that always yields this credential.
func (c Credential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: c.Token,
		TokenType:   c.Type,
		Expiry:      c.Expiry,
	})
}

// Authenticator exchanges configured secrets for a Credential.
type Authenticator interface {
	Authenticate(ctx context.Context) (Credential, error)
}

// Anonymous issues a placeholder credential for stores without authentication.
type Anonymous struct{}

func (Anonymous) Authenticate(ctx context.Context) (Credential, error) {
	return Credential{Token: "anonymous", Type: "none", Source: "anonymous"}, nil
}

// Static hands out a credential that was acquired earlier.
type Static struct {
	Credential Credential
}

func (s Static) Authenticate(ctx context.Context) (Credential, error) {
	if !s.Credential.Valid() {
		return Credential{}, fmt.Errorf("%w: credential is empty or expired", ErrAuthentication)
	}
	return s.Credential, nil
}

// ForConfig returns the authenticator matching the configured backend.
func ForConfig(cfg config.Benchmark) (Authenticator, error) {
	switch cfg.Backend {
	case config.BackendOCI:
		return &OCIAuthenticator{ConfigFile: cfg.OCI.ConfigFile, Profile: cfg.OCI.Profile}, nil
	case config.BackendS3:
		return &AWSAuthenticator{Profile: cfg.S3.Profile, Region: cfg.S3.Region}, nil
	case config.BackendWebHDFS:
		if cfg.WebHDFS.TokenURL == "" {
			log.Debug().Str("component", "identity").Msg("no token_url configured, using anonymous access")
			return Anonymous{}, nil
		}
		return &OAuth2Authenticator{
			TokenURL:     cfg.WebHDFS.TokenURL,
			ClientID:     cfg.WebHDFS.ClientID,
			ClientSecret: cfg.WebHDFS.ClientSecret,
			Scopes:       cfg.WebHDFS.Scopes,
		}, nil
	case config.BackendBlob:
		return Anonymous{}, nil
	default:
		return nil, fmt.Errorf("%w: no authenticator for backend %q", config.ErrInvalid, cfg.Backend)
	}
}
