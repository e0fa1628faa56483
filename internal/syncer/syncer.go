// Package syncer mirrors the remote copy of the store into a local working
// file and back.
//
// Pull is never cached: every read or write of the store starts with a
// fresh Pull, and every saved mutation ends with a Push. Push overwrites
// the remote unconditionally, so concurrent writers are last-writer-wins
// unless the caller serializes them.
package syncer

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/keeperbot/internal/filex"
	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/remote"
	"github.com/zeebo/blake3"
)

// Op names the direction of a failed transfer.
type Op string

const (
	OpPull Op = "pull"
	OpPush Op = "push"
)

// SyncError reports a failed pull or push.
type SyncError struct {
	Op  Op
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Synchronizer moves the store blob between remote and the local file.
type Synchronizer struct {
	store     remote.ObjectStore
	remoteKey string
	localPath string
	logger    logging.Logger

	mu         sync.Mutex
	lastPulled string
}

func New(store remote.ObjectStore, remoteKey, localPath string, logger logging.Logger) *Synchronizer {
	return &Synchronizer{
		store:     store,
		remoteKey: remoteKey,
		localPath: localPath,
		logger:    logger.With("remote", remoteKey, "local", localPath),
	}
}

// LocalPath is the working copy location.
func (s *Synchronizer) LocalPath() string { return s.localPath }

// Pull replaces the local working copy with the remote blob. On failure
// the local file is left untouched.
func (s *Synchronizer) Pull(ctx context.Context) error {
	data, err := s.store.Get(ctx, s.remoteKey)
	if err != nil {
		s.logger.Error(ctx, "pull failed", "error", err)
		return &SyncError{Op: OpPull, Err: err}
	}

	if err := filex.WriteFileAtomic(s.localPath, data, 0o600); err != nil {
		s.logger.Error(ctx, "pull failed", "error", err)
		return &SyncError{Op: OpPull, Err: err}
	}

	digest := Fingerprint(data)
	s.mu.Lock()
	s.lastPulled = digest
	s.mu.Unlock()

	s.logger.Info(ctx, "store pulled", "bytes", len(data), "digest", digest)
	return nil
}

// Push uploads the local working copy over the remote blob.
func (s *Synchronizer) Push(ctx context.Context) error {
	data, err := os.ReadFile(s.localPath)
	if err != nil {
		s.logger.Error(ctx, "push failed", "error", err)
		return &SyncError{Op: OpPush, Err: err}
	}

	if err := s.store.Put(ctx, s.remoteKey, data); err != nil {
		s.logger.Error(ctx, "push failed", "error", err)
		return &SyncError{Op: OpPush, Err: err}
	}

	s.logger.Info(ctx, "store pushed", "bytes", len(data), "digest", Fingerprint(data))
	return nil
}

// LastPulled returns the fingerprint of the most recent successful pull,
// or "" if nothing was pulled yet.
func (s *Synchronizer) LastPulled() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPulled
}

// Fingerprint is a short BLAKE3 digest of a blob for log correlation.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
