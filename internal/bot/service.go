package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/match"
	"github.com/dmitrijs2005/keeperbot/internal/vault"
	"github.com/google/uuid"
)

// Synchronizer moves the store between the remote and the local working copy.
type Synchronizer interface {
	Pull(ctx context.Context) error
	Push(ctx context.Context) error
	LocalPath() string
}

// Opener opens the local working copy. vault.Open in production.
type Opener func(path string, secret []byte) (*vault.Vault, error)

// DivergenceError means a mutation was saved locally but could not be
// pushed: the local and remote copies now differ.
type DivergenceError struct {
	Err error
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("saved locally but not pushed: %v", e.Err)
}

func (e *DivergenceError) Unwrap() error { return e.Err }

// EntryView is a detached copy of an entry, safe to use after the store
// it came from has been closed.
type EntryView struct {
	ID       uuid.UUID
	Title    string
	Username string
	Secret   string
	Notes    string
	Group    string
}

func viewOf(e *vault.Entry) EntryView {
	v := EntryView{
		ID:       e.ID,
		Title:    e.Title,
		Username: e.Username,
		Secret:   e.Secret,
		Notes:    e.Notes,
	}
	if g := e.Group(); g != nil {
		v.Group = groupLabel(g)
	}
	return v
}

// groupLabel is the group path without the root prefix; root itself keeps
// its name.
func groupLabel(g *vault.Group) string {
	if g.Parent() == nil {
		return g.Name
	}
	path := g.Path()
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// StoreService runs store operations with the pull/push discipline.
//
// With serialize set, mutations hold an exclusive lock from pull to push
// and reads hold a shared one, so no update is lost between concurrent
// requests of this process. Without it, concurrent mutations race and the
// last push wins.
type StoreService struct {
	sync      Synchronizer
	open      Opener
	secret    []byte
	serialize bool
	logger    logging.Logger

	mu sync.RWMutex
}

func NewStoreService(s Synchronizer, open Opener, secret []byte, serialize bool, logger logging.Logger) *StoreService {
	return &StoreService{
		sync:      s,
		open:      open,
		secret:    secret,
		serialize: serialize,
		logger:    logger,
	}
}

func (s *StoreService) rlock() func() {
	if !s.serialize {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *StoreService) lock() func() {
	if !s.serialize {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// read pulls, opens and hands the store to fn.
func (s *StoreService) read(ctx context.Context, fn func(v *vault.Vault) error) error {
	defer s.rlock()()

	if err := s.sync.Pull(ctx); err != nil {
		return err
	}

	v, err := s.open(s.sync.LocalPath(), s.secret)
	if err != nil {
		return err
	}
	defer v.Close()

	return fn(v)
}

// write pulls, opens and hands the store to fn. When fn reports a change
// the store is saved once and pushed.
func (s *StoreService) write(ctx context.Context, fn func(v *vault.Vault) (bool, error)) error {
	defer s.lock()()

	if err := s.sync.Pull(ctx); err != nil {
		return err
	}

	v, err := s.open(s.sync.LocalPath(), s.secret)
	if err != nil {
		return err
	}
	defer v.Close()

	changed, err := fn(v)
	if err != nil || !changed {
		return err
	}

	if err := v.Save(); err != nil {
		return err
	}

	if err := s.sync.Push(ctx); err != nil {
		s.logger.Error(ctx, "local store diverged from remote", "error", err)
		return &DivergenceError{Err: err}
	}
	return nil
}

// Check pulls and opens the store once, surfacing a missing remote or a
// wrong master password before any actor is served.
func (s *StoreService) Check(ctx context.Context) error {
	return s.read(ctx, func(v *vault.Vault) error {
		s.logger.Info(ctx, "store opened", "entries", len(v.Entries()), "groups", len(v.Groups()))
		return nil
	})
}

// Search returns the entries query hits, in store order.
func (s *StoreService) Search(ctx context.Context, query string) ([]EntryView, error) {
	var out []EntryView
	err := s.read(ctx, func(v *vault.Vault) error {
		for _, e := range match.Search(v.Entries(), query) {
			out = append(out, viewOf(e))
		}
		return nil
	})
	return out, err
}

// Get looks an entry up by identity in a freshly pulled store.
func (s *StoreService) Get(ctx context.Context, id uuid.UUID) (EntryView, bool, error) {
	var (
		out   EntryView
		found bool
	)
	err := s.read(ctx, func(v *vault.Vault) error {
		e, ok := v.FindEntryByID(id)
		if ok {
			out, found = viewOf(e), true
		}
		return nil
	})
	return out, found, err
}

// Add creates an entry, creating the named group under root first when
// it does not exist yet.
func (s *StoreService) Add(ctx context.Context, in AddInput) (EntryView, error) {
	var out EntryView
	err := s.write(ctx, func(v *vault.Vault) (bool, error) {
		var group *vault.Group
		if in.Group != "" {
			group = v.FindGroup(in.Group)
			if group == nil {
				g, err := v.AddGroup(nil, in.Group)
				if err != nil {
					return false, err
				}
				group = g
			}
		}

		e := v.AddEntry(group, in.Title, in.Username, in.Secret, in.Notes)
		out = viewOf(e)
		return true, nil
	})
	return out, err
}

// Delete removes the entry with the given identity from a freshly pulled
// store. found is false, with a nil error, when it is already gone.
func (s *StoreService) Delete(ctx context.Context, id uuid.UUID) (EntryView, bool, error) {
	var (
		out   EntryView
		found bool
	)
	err := s.write(ctx, func(v *vault.Vault) (bool, error) {
		e, ok := v.FindEntryByID(id)
		if !ok {
			return false, nil
		}
		out = viewOf(e)
		if err := v.DeleteEntry(e); err != nil {
			if errors.Is(err, vault.ErrEntryNotFound) {
				return false, nil
			}
			return false, err
		}
		found = true
		return true, nil
	})
	return out, found, err
}

// Groups lists group labels from the local working copy. The copy may be
// stale; it is only pulled when there is none yet.
func (s *StoreService) Groups(ctx context.Context) ([]string, error) {
	defer s.rlock()()

	v, err := s.open(s.sync.LocalPath(), s.secret)
	if errors.Is(err, vault.ErrMissing) {
		if err := s.sync.Pull(ctx); err != nil {
			return nil, err
		}
		v, err = s.open(s.sync.LocalPath(), s.secret)
	}
	if err != nil {
		return nil, err
	}
	defer v.Close()

	groups := v.Groups()
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupLabel(g))
	}
	return out, nil
}

// Snapshot pulls and returns the raw container file for download.
func (s *StoreService) Snapshot(ctx context.Context) (*Document, error) {
	defer s.rlock()()

	if err := s.sync.Pull(ctx); err != nil {
		return nil, err
	}

	path := s.sync.LocalPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read working copy: %w", err)
	}
	return &Document{Name: filepath.Base(path), Data: data}, nil
}
