// Package config also loads .env files so secrets such as the database DSN
// can be kept out of config.yaml.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var once sync.Once

// LoadEnv loads environment variables from a .env file in the current or
// parent directory, at most once per process. It returns the file loaded, or
// "" when none was found.
func LoadEnv() string {
	var loaded string
	once.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		if err := godotenv.Load(envFile); err != nil {
			return
		}
		loaded = envFile
	})
	return loaded
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
