package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/rs/zerolog/log"
)

// LoadOCIConfig loads the OCI configuration for profile from the config file at
// configFilePath. A leading "~/" is expanded to the user's home directory.
func LoadOCIConfig(configFilePath, profile string) (common.ConfigurationProvider, error) {
	if profile == "" {
		profile = "DEFAULT"
	}
	path, err := expandHome(configFilePath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: oci config file %s: %w", ErrInvalid, path, err)
	}
	log.Debug().Str("component", "config").Str("path", path).Str("profile", profile).Msg("loading OCI config")
	provider, err := common.ConfigurationProviderFromFileWithProfile(path, profile, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}
	return provider, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
