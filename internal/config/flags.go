package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/keeperbot/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-t string     bot token
//	-users list   authorized actor IDs, comma-separated
//	-l string     local working copy path
//	-r string     remote object key
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-serialize    hold a lock across pull and push
//	-idle dur     session idle timeout
//	-limit int    options per result list
//	-w int        concurrent update workers
//	-poll dur     long polling timeout
//	-log string   log level
//
// The master password has no flag; it comes from JSON or the environment.
// Bool flags take the -serialize=false form.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-t", "-users", "-l", "-r", "-u", "-p", "-b", "-g", "-e",
		"-serialize", "-idle", "-limit", "-w", "-poll", "-log",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.BotToken, "t", config.BotToken, "bot token")
	users := flagx.Int64List(config.AuthorizedUsers)
	fs.Var(&users, "users", "authorized actor IDs, comma-separated")
	fs.StringVar(&config.LocalPath, "l", config.LocalPath, "local working copy path")
	fs.StringVar(&config.RemotePath, "r", config.RemotePath, "remote object key")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.SerializeMutations, "serialize", config.SerializeMutations, "serialize store mutations")
	fs.DurationVar(&config.SessionIdleTimeout, "idle", config.SessionIdleTimeout, "session idle timeout")
	fs.IntVar(&config.ResultLimit, "limit", config.ResultLimit, "options per result list")
	fs.IntVar(&config.Workers, "w", config.Workers, "concurrent update workers")
	fs.DurationVar(&config.PollTimeout, "poll", config.PollTimeout, "long polling timeout")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AuthorizedUsers = users
	return nil
}
