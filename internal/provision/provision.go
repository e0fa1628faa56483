// Package provision creates a new, empty encrypted store and optionally
// uploads it as the remote copy the bot will serve.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/remote"
	"github.com/dmitrijs2005/keeperbot/internal/syncer"
	"github.com/dmitrijs2005/keeperbot/internal/vault"
)

// ErrExists is returned when a store is already present and Force is not set.
var ErrExists = errors.New("store already exists")

type Options struct {
	LocalPath  string
	RemotePath string
	Secret     []byte
	// Push uploads the new store to the remote.
	Push bool
	// Force overwrites an existing local file or remote object.
	Force bool
}

// Init writes an empty store to LocalPath and, with Push, uploads it.
func Init(ctx context.Context, store remote.ObjectStore, opts Options, logger logging.Logger) error {
	if len(opts.Secret) == 0 {
		return ErrEmptyPassword
	}

	if !opts.Force {
		if _, err := os.Stat(opts.LocalPath); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, opts.LocalPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if opts.Push {
			_, err := store.Get(ctx, opts.RemotePath)
			if err == nil {
				return fmt.Errorf("%w: remote %s", ErrExists, opts.RemotePath)
			}
			if !errors.Is(err, remote.ErrNotFound) {
				return fmt.Errorf("check remote: %w", err)
			}
		}
	}

	v, err := vault.Create(opts.LocalPath, opts.Secret)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Save(); err != nil {
		return err
	}
	logger.Info(ctx, "store created", "path", opts.LocalPath)

	if !opts.Push {
		return nil
	}
	return syncer.New(store, opts.RemotePath, opts.LocalPath, logger).Push(ctx)
}
