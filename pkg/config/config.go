// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configs that can check themselves.
type Validator interface {
	Validate() error
}

// EnvOverrider is implemented by configs that read direct environment overrides
// after the file has been parsed.
type EnvOverrider interface {
	ApplyEnv() error
}

// Load reads filename, expands ${VAR} references, unmarshals it onto target,
// then applies env overrides and validation when target supports them.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return finish(target)
}

// LoadOptional behaves like Load, but a missing file leaves target's defaults in place.
func LoadOptional[T any](filename string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return finish(target)
	}
	return Load(filename, target)
}

func finish[T any](target *T) error {
	if o, ok := any(target).(EnvOverrider); ok {
		if err := o.ApplyEnv(); err != nil {
			return fmt.Errorf("config env override failed: %w", err)
		}
	}
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
