package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// loadCredentials reads a properties-style file of KEY=value lines. Keys use the same
// names as the environment variables. A missing file is not an error.
func loadCredentials(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	mapped := make(map[string]any, len(values))
	for name, value := range values {
		if key, v := transformEnv(name, value); key != "" {
			mapped[key] = v
		}
	}
	if len(mapped) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(mapped, "."), nil)
}
