// Package registry remembers, per actor, the last list of entries shown as
// selectable options, so a later selection can be turned back into an
// entry identity without resending the entry.
//
// Only identities and display titles are kept. Whoever acts on a resolved
// item must look it up again in a freshly pulled store.
package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Kind tags what a result set was produced for.
type Kind uint8

const (
	SearchResults Kind = iota + 1
	DeleteCandidates
)

func (k Kind) String() string {
	switch k {
	case SearchResults:
		return "search"
	case DeleteCandidates:
		return "delete"
	default:
		return "unknown"
	}
}

func (k Kind) code() string {
	switch k {
	case SearchResults:
		return "s"
	case DeleteCandidates:
		return "d"
	default:
		return "?"
	}
}

func kindFromCode(c string) (Kind, bool) {
	switch c {
	case "s":
		return SearchResults, true
	case "d":
		return DeleteCandidates, true
	default:
		return 0, false
	}
}

// ErrBadToken is returned by ParseToken for strings that are not tokens.
var ErrBadToken = errors.New("malformed selection token")

// Token points at one item of one published set. Generation identifies the
// set, so a token from a superseded set never resolves.
type Token struct {
	Kind       Kind
	Generation uint64
	Index      int
}

// String encodes the token as "<kind>.<generation>.<index>", e.g. "d.17.2".
func (t Token) String() string {
	return t.Kind.code() + "." + strconv.FormatUint(t.Generation, 36) + "." + strconv.Itoa(t.Index)
}

// ParseToken decodes a string produced by Token.String.
func ParseToken(s string) (Token, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Token{}, ErrBadToken
	}

	kind, ok := kindFromCode(parts[0])
	if !ok {
		return Token{}, ErrBadToken
	}
	gen, err := strconv.ParseUint(parts[1], 36, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil || idx < 0 {
		return Token{}, ErrBadToken
	}

	return Token{Kind: kind, Generation: gen, Index: idx}, nil
}

// Item is one remembered entry.
type Item struct {
	ID    uuid.UUID
	Title string
}

type resultSet struct {
	kind       Kind
	generation uint64
	items      []Item
}

// Registry holds at most one result set per actor. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.Mutex
	sets       map[int64]*resultSet
	generation uint64
}

func New() *Registry {
	return &Registry{sets: make(map[int64]*resultSet)}
}

// Publish stores items for actor, replacing whatever was there, and
// returns one token per item in the same order.
func (r *Registry) Publish(actor int64, kind Kind, items []Item) []Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	set := &resultSet{
		kind:       kind,
		generation: r.generation,
		items:      append([]Item(nil), items...),
	}
	r.sets[actor] = set

	tokens := make([]Token, len(items))
	for i := range items {
		tokens[i] = Token{Kind: kind, Generation: set.generation, Index: i}
	}
	return tokens
}

// Resolve returns the item token points at. It reports false when the
// actor has no set, the set is of another kind or has been superseded,
// or the index is out of range.
func (r *Registry) Resolve(actor int64, kind Kind, token Token) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[actor]
	if !ok || set.kind != kind || token.Kind != kind || token.Generation != set.generation {
		return Item{}, false
	}
	if token.Index < 0 || token.Index >= len(set.items) {
		return Item{}, false
	}
	return set.items[token.Index], true
}

// Clear drops the actor's set if it is of the given kind.
func (r *Registry) Clear(actor int64, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.sets[actor]; ok && set.kind == kind {
		delete(r.sets, actor)
	}
}

// Forget drops the actor's set regardless of kind.
func (r *Registry) Forget(actor int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets, actor)
}
