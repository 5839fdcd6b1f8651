package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const secretBytes = 32

type secretFile struct {
	JWTSecret string `toml:"jwt_secret"`
}

// EnsureJWTSecret fills cfg.Auth.JWTSecret when it was not configured. A
// previously persisted secret is reused; otherwise a random one is generated
// and written to cfg.Auth.SecretFile so tokens survive a restart.
//
// The returned bool reports whether a new secret was generated. A failure to
// persist it is returned alongside a usable secret already set on cfg.
func EnsureJWTSecret(cfg *Config) (bool, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		return false, nil
	}

	path := cfg.Auth.SecretFile
	if path != "" {
		stored, err := readSecretFile(path)
		if err != nil {
			return false, err
		}
		if stored != "" {
			cfg.Auth.JWTSecret = stored
			return false, nil
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return false, err
	}
	cfg.Auth.JWTSecret = secret

	if path == "" {
		return true, nil
	}
	if err := writeSecretFile(path, secret); err != nil {
		return true, err
	}
	return true, nil
}

func readSecretFile(path string) (string, error) {
	var stored secretFile
	if _, err := toml.DecodeFile(path, &stored); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("decode secret file failed: %w", err)
	}
	return strings.TrimSpace(stored.JWTSecret), nil
}

func writeSecretFile(path, secret string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create secret dir failed: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open secret file failed: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(secretFile{JWTSecret: secret}); err != nil {
		return fmt.Errorf("encode secret file failed: %w", err)
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
