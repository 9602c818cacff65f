// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent schedule drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Process envconfig struct tags to populate the Config struct.
//  4. Validate the struct using go-playground/validator.
//  5. Apply domain validations that struct tags cannot express
//     (platform names, schedule hours).
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"socialsync/internal/types"
)

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates a failure parsing environment values into their
	// target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is a diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig loads and validates the configuration. It is called once at
// process startup; any error is fatal.
func LoadConfig() (*Config, error) {
	// Step 1: Enforce UTC. The window guard and sync dates are defined in
	// UTC; a non-UTC process timezone would shift both.
	time.Local = time.UTC

	// Step 2: Load .env if present. godotenv does not override variables
	// that are already set.
	_ = godotenv.Load()

	// Step 3: Populate the Config struct from the environment.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	// Step 4: Struct-tag validation.
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	// Step 5: Domain validations.
	if err := validateSyncConfig(&cfg.Sync); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateSyncConfig checks the parts of SyncConfig that struct tags cannot
// express: platform names must be known, schedule hours must be valid UTC
// hours with no duplicates.
func validateSyncConfig(sc *SyncConfig) error {
	if len(sc.Platforms) == 0 {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "SYNC_PLATFORMS must list at least one platform",
		}
	}
	for _, raw := range sc.Platforms {
		if _, ok := types.ParsePlatform(raw); !ok {
			return &ConfigError{
				Type:    ErrValidation,
				Message: fmt.Sprintf("SYNC_PLATFORMS contains unknown platform %q", raw),
			}
		}
	}

	if len(sc.Hours) == 0 {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "SYNC_HOURS must list at least one hour",
		}
	}
	seen := make(map[int]bool, len(sc.Hours))
	for _, h := range sc.Hours {
		if h < 0 || h > 23 {
			return &ConfigError{
				Type:    ErrValidation,
				Message: fmt.Sprintf("SYNC_HOURS contains invalid hour %d", h),
			}
		}
		if seen[h] {
			return &ConfigError{
				Type:    ErrValidation,
				Message: fmt.Sprintf("SYNC_HOURS contains duplicate hour %d", h),
			}
		}
		seen[h] = true
	}
	// Keep hours sorted so NextSyncTime can scan them in order.
	sort.Ints(sc.Hours)

	return nil
}
