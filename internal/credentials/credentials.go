// File: internal/credentials/credentials.go
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/internal/config"
)

// ErrNoAPIKey is returned when neither configuration nor the operator supplied a key.
var ErrNoAPIKey = errors.New("no api key provided")

// Prompter asks the operator for the API key.
type Prompter interface {
	PromptAPIKey(ctx context.Context) (string, error)
}

// LoadEnvFiles loads the dotenv files that exist into the process environment.
// Variables already set in the environment win. Missing files are skipped;
// it returns how many files were loaded.
func LoadEnvFiles(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("loading env files: %w", err)
	}
	return len(existing), nil
}

// Acquire returns the API key sealed in an enclave. A configured key (file,
// env or dotenv) is used as is; otherwise the operator is prompted.
func Acquire(ctx context.Context, cfg config.CredentialsConfig, prompter Prompter, logger *zap.Logger) (*memguard.Enclave, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key != "" {
		logger.Debug("Using API key from configuration")
	} else {
		if prompter == nil {
			return nil, ErrNoAPIKey
		}
		var err error
		if key, err = prompter.PromptAPIKey(ctx); err != nil {
			return nil, fmt.Errorf("prompting for api key: %w", err)
		}
		key = strings.TrimSpace(key)
	}
	if key == "" {
		return nil, ErrNoAPIKey
	}

	// NewEnclave wipes its argument, so hand it a private copy.
	return memguard.NewEnclave([]byte(key)), nil
}
