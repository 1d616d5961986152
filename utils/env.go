package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFiles are loaded in order. Earlier files win because godotenv never overrides a set variable.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnv reads the project env files from cwd. Missing files are skipped.
func LoadEnv(cwd string) error {
	for _, name := range EnvFiles {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}
