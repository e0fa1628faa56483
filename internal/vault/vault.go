package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/keeperbot/internal/common"
	"github.com/dmitrijs2005/keeperbot/internal/cryptox"
	"github.com/dmitrijs2005/keeperbot/internal/filex"
	"github.com/google/uuid"
)

// Vault is an opened store bound to its local file.
type Vault struct {
	path string
	key  []byte
	salt []byte
	doc  *document

	now func() time.Time
}

// Open reads and decrypts the store at path.
//
// The error wraps ErrMissing when the file does not exist, ErrWrongSecret
// when secret does not match, and ErrCorrupt when the file is damaged.
func Open(path string, secret []byte) (*Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	doc, key, salt, err := unseal(data, secret)
	if err != nil {
		return nil, err
	}
	link(doc.Root, nil)

	return &Vault{path: path, key: key, salt: salt, doc: doc, now: time.Now}, nil
}

// Create returns a new empty store bound to path. Nothing is written until
// Save is called.
func Create(path string, secret []byte) (*Vault, error) {
	salt := cryptox.NewSalt()
	doc := &document{
		Version: documentVersion,
		Root:    &Group{ID: uuid.New(), Name: RootGroupName},
	}

	return &Vault{
		path: path,
		key:  cryptox.DeriveMasterKey(secret, salt),
		salt: salt,
		doc:  doc,
		now:  time.Now,
	}, nil
}

// Path returns the local file the store is bound to.
func (v *Vault) Path() string { return v.path }

// Root returns the implicit root group.
func (v *Vault) Root() *Group { return v.doc.Root }

// Entries returns every entry in the store, root entries first, then each
// subgroup depth-first in insertion order.
func (v *Vault) Entries() []*Entry {
	var out []*Entry
	var walk func(g *Group)
	walk = func(g *Group) {
		out = append(out, g.Entries...)
		for _, c := range g.Groups {
			walk(c)
		}
	}
	walk(v.doc.Root)
	return out
}

// Groups returns every group below root, depth-first.
func (v *Vault) Groups() []*Group {
	var out []*Group
	var walk func(g *Group)
	walk = func(g *Group) {
		for _, c := range g.Groups {
			out = append(out, c)
			walk(c)
		}
	}
	walk(v.doc.Root)
	return out
}

// FindGroup looks name up among the direct children of root. The match is
// exact and case-sensitive.
func (v *Vault) FindGroup(name string) *Group {
	return v.doc.Root.child(name)
}

// AddGroup creates a group named name under parent (root when nil).
// Sibling names are unique: a clash returns ErrGroupExists.
func (v *Vault) AddGroup(parent *Group, name string) (*Group, error) {
	if parent == nil {
		parent = v.doc.Root
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if parent.child(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupExists, name)
	}

	g := &Group{ID: uuid.New(), Name: name, parent: parent}
	parent.Groups = append(parent.Groups, g)

	return g, nil
}

// AddEntry creates an entry in group (root when nil) with a fresh UUID.
func (v *Vault) AddEntry(group *Group, title, username, secret, notes string) *Entry {
	if group == nil {
		group = v.doc.Root
	}

	id := uuid.New()
	for {
		if _, taken := v.FindEntryByID(id); !taken {
			break
		}
		id = uuid.New()
	}

	now := v.now()
	e := &Entry{
		ID:        id,
		Title:     title,
		Username:  username,
		Secret:    secret,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
		group:     group,
	}
	group.Entries = append(group.Entries, e)

	return e
}

// FindEntryByID returns the entry with the given identity.
func (v *Vault) FindEntryByID(id uuid.UUID) (*Entry, bool) {
	for _, e := range v.Entries() {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// EditEntry applies patch to the entry with the given identity. The
// identity itself cannot change.
func (v *Vault) EditEntry(id uuid.UUID, patch EntryPatch) (*Entry, error) {
	e, ok := v.FindEntryByID(id)
	if !ok {
		return nil, ErrEntryNotFound
	}
	patch.apply(e)
	e.UpdatedAt = v.now()
	return e, nil
}

// DeleteEntry detaches e from its group. Deleting an entry that is no
// longer in the store returns ErrEntryNotFound.
func (v *Vault) DeleteEntry(e *Entry) error {
	if e == nil || e.group == nil {
		return ErrEntryNotFound
	}

	g := e.group
	for i, cur := range g.Entries {
		if cur.ID == e.ID {
			g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
			e.group = nil
			return nil
		}
	}

	return ErrEntryNotFound
}

// Save seals the store and atomically replaces the local file.
func (v *Vault) Save() error {
	v.doc.Version = documentVersion

	data, err := seal(v.doc, v.key, v.salt)
	if err != nil {
		return err
	}

	if err := filex.WriteFileAtomic(v.path, data, 0o600); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}

// Close wipes the derived key. The Vault must not be used afterwards.
func (v *Vault) Close() {
	common.WipeByteArray(v.key)
	v.key = nil
}
