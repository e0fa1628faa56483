// Command vaultinit creates an empty encrypted store for keeperbot.
//
// It reads the same configuration as the bot (JSON, environment, flags).
// When MASTER_PASSWORD is not set the password is read from the terminal.
//
//	vaultinit [-push] [-force]
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/keeperbot/internal/common"
	"github.com/dmitrijs2005/keeperbot/internal/config"
	"github.com/dmitrijs2005/keeperbot/internal/flagx"
	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/provision"
	"github.com/dmitrijs2005/keeperbot/internal/remote"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	var push, force bool
	fs := flag.NewFlagSet("vaultinit", flag.ExitOnError)
	fs.BoolVar(&push, "push", false, "upload the new store to remote storage")
	fs.BoolVar(&force, "force", false, "overwrite an existing store")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-push", "-force"}))

	secret := []byte(cfg.MasterPassword)
	if len(secret) == 0 {
		secret, err = provision.GetNewPassword(os.Stderr)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	defer common.WipeByteArray(secret)

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	var store remote.ObjectStore
	if push {
		store, err = remote.NewS3Store(ctx, remote.S3Config{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	err = provision.Init(ctx, store, provision.Options{
		LocalPath:  cfg.LocalPath,
		RemotePath: cfg.RemotePath,
		Secret:     secret,
		Push:       push,
		Force:      force,
	}, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
}
