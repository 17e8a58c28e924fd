package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"storebench/config"
)

func TestCredentialValid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		cred  Credential
		valid bool
	}{
		{"empty", Credential{}, false},
		{"no expiry", Credential{Token: "t"}, true},
		{"future expiry", Credential{Token: "t", Expiry: now.Add(time.Hour)}, true},
		{"past expiry", Credential{Token: "t", Expiry: now.Add(-time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestCredentialTokenSource(t *testing.T) {
	cred := Credential{Token: "abc", Type: "Bearer"}
	tok, err := cred.TokenSource().Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "abc" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}
}

func TestOAuth2Authenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-123","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	auth := &OAuth2Authenticator{TokenURL: server.URL, ClientID: "id", ClientSecret: "secret"}
	cred, err := auth.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if cred.Token != "token-123" {
		t.Errorf("Token = %q", cred.Token)
	}
	if cred.Source != "oauth2" {
		t.Errorf("Source = %q", cred.Source)
	}
	if !cred.Valid() {
		t.Error("credential should be valid")
	}
	if cred.Expiry.IsZero() {
		t.Error("expiry should be set from expires_in")
	}
}

func TestOAuth2AuthenticateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	auth := &OAuth2Authenticator{TokenURL: server.URL, ClientID: "id", ClientSecret: "bad"}
	_, err := auth.Authenticate(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestOCIAuthenticateMissingConfig(t *testing.T) {
	auth := &OCIAuthenticator{ConfigFile: filepath.Join(t.TempDir(), "config"), Profile: "DEFAULT"}
	_, err := auth.Authenticate(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestAWSAuthenticateFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_SESSION_TOKEN", "")

	auth := &AWSAuthenticator{Profile: "default"}
	cred, err := auth.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if cred.Token != "AKIDEXAMPLE" {
		t.Errorf("Token = %q", cred.Token)
	}
	if !cred.Valid() {
		t.Error("static credentials should be valid")
	}
}

func TestAnonymous(t *testing.T) {
	cred, err := Anonymous{}.Authenticate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !cred.Valid() {
		t.Error("anonymous credential should be valid")
	}
}

func TestStatic(t *testing.T) {
	cred, err := Static{Credential: Credential{Token: "t", Source: "cached"}}.Authenticate(context.Background())
	if err != nil || cred.Source != "cached" {
		t.Errorf("Static = %+v, %v", cred, err)
	}
	expired := Credential{Token: "t", Expiry: time.Now().Add(-time.Second)}
	if _, err := (Static{Credential: expired}).Authenticate(context.Background()); !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func TestForConfig(t *testing.T) {
	tests := []struct {
		backend string
		tokens  bool
		want    string
	}{
		{config.BackendOCI, false, "*identity.OCIAuthenticator"},
		{config.BackendS3, false, "*identity.AWSAuthenticator"},
		{config.BackendBlob, false, "identity.Anonymous"},
		{config.BackendWebHDFS, false, "identity.Anonymous"},
		{config.BackendWebHDFS, true, "*identity.OAuth2Authenticator"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Backend = tt.backend
		if tt.tokens {
			cfg.WebHDFS.TokenURL = "http://localhost/token"
		}
		auth, err := ForConfig(cfg)
		if err != nil {
			t.Fatalf("ForConfig(%s): %v", tt.backend, err)
		}
		if got := fmt.Sprintf("%T", auth); got != tt.want {
			t.Errorf("ForConfig(%s, tokens=%v) = %s, want %s", tt.backend, tt.tokens, got, tt.want)
		}
	}

	cfg := config.Default()
	cfg.Backend = "ftp"
	if _, err := ForConfig(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}
