// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config controls the ambient behavior of a repo engine instance: where
// its metadata lives, how blobs are chunked, and how expensive the
// password KDF is.
type Config struct {
	SeafDir string `json:"seaf_dir"`

	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error

	ChunkSize       int `json:"chunk_size"`        // bytes, default 8MiB
	ObjectCacheSize int `json:"object_cache_size"` // LRU entries, default 4096
	KDFIterations   int `json:"kdf_iterations"`    // default 1000, enc_version dependent
}

func getConfigPath() string {
	env := os.Getenv("SEAFREPO_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Default returns sane defaults for a freshly-initialized daemon.
func Default(seafDir string) *Config {
	return &Config{
		SeafDir:         seafDir,
		Environment:     "development",
		LogLevel:        "info",
		ChunkSize:       8 << 20,
		ObjectCacheSize: 4096,
		KDFIterations:   1000,
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = getConfigPath()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 8 << 20
	}
	if cfg.ObjectCacheSize == 0 {
		cfg.ObjectCacheSize = 4096
	}
	if cfg.KDFIterations == 0 {
		cfg.KDFIterations = 1000
	}

	return &cfg, nil
}
