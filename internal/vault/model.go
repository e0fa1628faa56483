package vault

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RootGroupName is the name given to the implicit root group of a new store.
const RootGroupName = "Root"

const documentVersion = 1

// document is the CBOR payload inside the container.
type document struct {
	Version int    `cbor:"v"`
	Root    *Group `cbor:"root"`
}

// Group is a named container of entries and subgroups.
type Group struct {
	ID      uuid.UUID `cbor:"id"`
	Name    string    `cbor:"name"`
	Groups  []*Group  `cbor:"groups,omitempty"`
	Entries []*Entry  `cbor:"entries,omitempty"`

	parent *Group
}

// Parent returns the enclosing group, nil for root.
func (g *Group) Parent() *Group { return g.parent }

// Path returns the slash-separated names from root down to g.
func (g *Group) Path() string {
	var names []string
	for cur := g; cur != nil; cur = cur.parent {
		names = append(names, cur.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

func (g *Group) child(name string) *Group {
	for _, c := range g.Groups {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Entry is one credential record. ID is assigned at creation and never
// changes.
type Entry struct {
	ID        uuid.UUID `cbor:"id"`
	Title     string    `cbor:"title"`
	Username  string    `cbor:"username,omitempty"`
	Secret    string    `cbor:"secret,omitempty"`
	Notes     string    `cbor:"notes,omitempty"`
	CreatedAt time.Time `cbor:"created"`
	UpdatedAt time.Time `cbor:"updated"`

	group *Group
}

// Group returns the owning group, nil once the entry has been deleted.
func (e *Entry) Group() *Group { return e.group }

// EntryPatch lists fields to change in EditEntry. Nil fields are left as is.
type EntryPatch struct {
	Title    *string
	Username *string
	Secret   *string
	Notes    *string
}

func (p EntryPatch) apply(e *Entry) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Username != nil {
		e.Username = *p.Username
	}
	if p.Secret != nil {
		e.Secret = *p.Secret
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}

// link restores parent pointers after decoding.
func link(g *Group, parent *Group) {
	g.parent = parent
	for _, e := range g.Entries {
		e.group = g
	}
	for _, c := range g.Groups {
		link(c, g)
	}
}
