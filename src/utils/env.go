package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const DEV_ENV_FILENAME = ".env.development"
const PROD_ENV_FILENAME = ".env.production"

// InitEnvironmentVariables loads the .env file for the current GO_ENV from
// envDir. Variables already present in the process environment win, so MCP
// clients can pass credentials directly. A missing file is not an error.
func InitEnvironmentVariables(envDir string) error {
	if os.Getenv("ENV") == "production" {
		log.Info("Running in production environment")
		return nil
	}

	if envDir == "" {
		envDir = os.Getenv("PROJECTS_DIR")
	}

	envFile := filepath.Join(envDir, DEV_ENV_FILENAME)
	if os.Getenv("GO_ENV") == "production" {
		envFile = filepath.Join(envDir, PROD_ENV_FILENAME)
	}

	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no env file at %s", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s file: %v", envFile, err)
	}

	return nil
}

func GetEnv(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("$%s not set", key)
	}

	return value, nil
}

func GetEnvOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

func GetEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback, fmt.Errorf("$%s: %w", key, err)
	}

	return b, nil
}
