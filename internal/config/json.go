package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keeperbot/internal/flagx"
	"github.com/dmitrijs2005/keeperbot/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations are
// timex.Duration so both "30s" and integer nanoseconds are accepted.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	BotToken           string          `json:"bot_token"`
	AuthorizedUsers    []int64         `json:"authorized_users"`
	MasterPassword     string          `json:"master_password"`
	RemotePath         string          `json:"remote_path"`
	LocalPath          string          `json:"local_path"`
	S3RootUser         string          `json:"s3_root_user"`
	S3RootPassword     string          `json:"s3_root_password"`
	S3Bucket           string          `json:"s3_bucket"`
	S3Region           string          `json:"s3_region"`
	S3BaseEndpoint     string          `json:"s3_base_endpoint"`
	SerializeMutations *bool           `json:"serialize_mutations"`
	SessionIdleTimeout *timex.Duration `json:"session_idle_timeout"`
	ResultLimit        int             `json:"result_limit"`
	Workers            int             `json:"workers"`
	PollTimeout        *timex.Duration `json:"poll_timeout"`
	LogLevel           string          `json:"log_level"`
}

// parseJson overlays the file named by -c / -config onto config. Without
// either flag nothing is loaded.
func parseJson(config *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.BotToken, c.BotToken)
	if c.AuthorizedUsers != nil {
		config.AuthorizedUsers = c.AuthorizedUsers
	}
	setString(&config.MasterPassword, c.MasterPassword)
	setString(&config.RemotePath, c.RemotePath)
	setString(&config.LocalPath, c.LocalPath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.SerializeMutations != nil {
		config.SerializeMutations = *c.SerializeMutations
	}
	if c.SessionIdleTimeout != nil {
		config.SessionIdleTimeout = c.SessionIdleTimeout.Duration
	}
	if c.ResultLimit > 0 {
		config.ResultLimit = c.ResultLimit
	}
	if c.Workers > 0 {
		config.Workers = c.Workers
	}
	if c.PollTimeout != nil {
		config.PollTimeout = c.PollTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
