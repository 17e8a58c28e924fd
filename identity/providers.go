package identity

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/clientcredentials"

	"storebench/config"
)

// OAuth2Authenticator acquires a bearer token with the client-credentials grant.
type OAuth2Authenticator struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (a *OAuth2Authenticator) Authenticate(ctx context.Context) (Credential, error) {
	cc := clientcredentials.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		TokenURL:     a.TokenURL,
		Scopes:       a.Scopes,
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: oauth2 token: %w", ErrAuthentication, err)
	}
	log.Info().Str("component", "identity").Str("source", "oauth2").Time("expiry", tok.Expiry).Msg("token acquired")
	return Credential{
		Token:  tok.AccessToken,
		Type:   tok.Type(),
		Expiry: tok.Expiry,
		Source: "oauth2",
	}, nil
}

// OCIAuthenticator validates an OCI API-key profile. The key ID serves as the
// opaque token since request signing happens inside the SDK.
type OCIAuthenticator struct {
	ConfigFile string
	Profile    string
}

func (a *OCIAuthenticator) Authenticate(ctx context.Context) (Credential, error) {
	provider, err := config.LoadOCIConfig(a.ConfigFile, a.Profile)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if ok, err := common.IsConfigurationProviderValid(provider); err != nil {
		return Credential{}, fmt.Errorf("%w: invalid oci profile %s: %w", ErrAuthentication, a.Profile, err)
	} else if !ok {
		return Credential{}, fmt.Errorf("%w: invalid oci profile %s", ErrAuthentication, a.Profile)
	}
	keyID, err := provider.KeyID()
	if err != nil {
		return Credential{}, fmt.Errorf("%w: oci key id: %w", ErrAuthentication, err)
	}
	log.Info().Str("component", "identity").Str("source", "oci").Str("profile", a.Profile).Msg("api key loaded")
	return Credential{Token: keyID, Type: "oci-api-key", Source: "oci"}, nil
}

// AWSAuthenticator resolves credentials through the default AWS chain.
type AWSAuthenticator struct {
	Profile string
	Region  string
}

func (a *AWSAuthenticator) Authenticate(ctx context.Context) (Credential, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if a.Profile != "" && a.Profile != "default" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(a.Profile))
	}
	if a.Region != "" {
		opts = append(opts, awsconfig.WithRegion(a.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: load aws config: %w", ErrAuthentication, err)
	}
	if cfg.Credentials == nil {
		return Credential{}, fmt.Errorf("%w: no aws credentials provider", ErrAuthentication)
	}
	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: retrieve aws credentials: %w", ErrAuthentication, err)
	}
	cred := Credential{Token: creds.AccessKeyID, Type: "aws-sigv4", Source: "aws:" + creds.Source}
	if creds.CanExpire {
		cred.Expiry = creds.Expires
	}
	log.Info().Str("component", "identity").Str("source", cred.Source).Msg("aws credentials resolved")
	return cred, nil
}
