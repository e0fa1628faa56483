package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/keeperbot/internal/flagx"
	"github.com/joho/godotenv"
)

// envFile is loaded before the environment is read. It never overrides
// variables that are already set.
var envFile = ".env"

// parseEnv overlays environment variables onto config:
//
//	BOT_TOKEN, AUTHORIZED_USERS (comma-separated), MASTER_PASSWORD,
//	REMOTE_PATH, LOCAL_PATH, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET,
//	S3_REGION, S3_BASE_ENDPOINT, SERIALIZE_MUTATIONS, SESSION_IDLE_TIMEOUT,
//	RESULT_LIMIT, WORKERS, POLL_TIMEOUT, LOG_LEVEL
func parseEnv(config *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	lookupString("BOT_TOKEN", &config.BotToken)
	lookupString("MASTER_PASSWORD", &config.MasterPassword)
	lookupString("REMOTE_PATH", &config.RemotePath)
	lookupString("LOCAL_PATH", &config.LocalPath)
	lookupString("S3_ROOT_USER", &config.S3RootUser)
	lookupString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	lookupString("S3_BUCKET", &config.S3Bucket)
	lookupString("S3_REGION", &config.S3Region)
	lookupString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	lookupString("LOG_LEVEL", &config.LogLevel)

	if v, ok := os.LookupEnv("AUTHORIZED_USERS"); ok {
		var users flagx.Int64List
		if err := users.Set(v); err != nil {
			return fmt.Errorf("AUTHORIZED_USERS: %w", err)
		}
		config.AuthorizedUsers = users
	}
	if v, ok := os.LookupEnv("SERIALIZE_MUTATIONS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SERIALIZE_MUTATIONS: %w", err)
		}
		config.SerializeMutations = b
	}
	if err := lookupDuration("SESSION_IDLE_TIMEOUT", &config.SessionIdleTimeout); err != nil {
		return err
	}
	if err := lookupDuration("POLL_TIMEOUT", &config.PollTimeout); err != nil {
		return err
	}
	if err := lookupInt("RESULT_LIMIT", &config.ResultLimit); err != nil {
		return err
	}
	return lookupInt("WORKERS", &config.Workers)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func lookupInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
