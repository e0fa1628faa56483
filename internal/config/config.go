// Package config builds the bot configuration from defaults, an optional
// JSON file, the environment (with .env support) and command-line flags,
// in that order of precedence.
package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for keeperbot.
//
// Fields:
//   - BotToken: Telegram Bot API token.
//   - AuthorizedUsers: actor IDs allowed to talk to the bot.
//   - MasterPassword: secret that opens the encrypted store.
//   - RemotePath: object key of the store in the bucket.
//   - LocalPath: working copy location on disk.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - SerializeMutations: hold a process-wide lock across pull and push.
//   - SessionIdleTimeout: awaiting states reset after this much inactivity (0 disables).
//   - ResultLimit: maximum options per result list.
//   - Workers: updates handled concurrently.
//   - PollTimeout: long polling timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	BotToken           string
	AuthorizedUsers    []int64
	MasterPassword     string
	RemotePath         string
	LocalPath          string
	S3RootUser         string
	S3RootPassword     string
	S3Bucket           string
	S3Region           string
	S3BaseEndpoint     string
	SerializeMutations bool
	SessionIdleTimeout time.Duration
	ResultLimit        int
	Workers            int
	PollTimeout        time.Duration
	LogLevel           string
}

// LoadDefaults populates Config with development defaults. The bot token,
// allow-list and master password have no usable default.
func (c *Config) LoadDefaults() {
	c.RemotePath = "keeper.kbx"
	c.LocalPath = "data/keeper.kbx"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.SerializeMutations = true
	c.SessionIdleTimeout = 10 * time.Minute
	c.ResultLimit = 5
	c.Workers = 8
	c.PollTimeout = 60 * time.Second
	c.LogLevel = "info"
}

var (
	ErrNoToken    = errors.New("bot token is not set")
	ErrNoUsers    = errors.New("no authorized users configured")
	ErrNoPassword = errors.New("master password is not set")
)

// Validate reports settings the bot cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, ErrNoToken)
	}
	if len(c.AuthorizedUsers) == 0 {
		errs = append(errs, ErrNoUsers)
	}
	if c.MasterPassword == "" {
		errs = append(errs, ErrNoPassword)
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
