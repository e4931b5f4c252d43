package fighters

import (
	"sort"
)

// Identity is a fighter as known to boxrec. Two identities are the same
// fighter iff their ids are equal.
type Identity struct {
	Id string `yaml:"id"`
	// DisplayName is the name the feed uses and the key in the Index.
	DisplayName string `yaml:"display_name"`
	// RecordName is the name as boxrec prints it, empty if unknown.
	RecordName string `yaml:"record_name,omitempty"`
}

func (i Identity) Same(other Identity) bool {
	return i.Id == other.Id
}

// SearchName is the name most likely to appear on boxrec pages.
func (i Identity) SearchName() string {
	if i.RecordName != "" {
		return i.RecordName
	}
	return i.DisplayName
}

// Index maps display names to identities. Entries are never replaced or
// removed once added.
type Index struct {
	entries map[string]Identity
}

func NewIndex(identities ...Identity) *Index {
	idx := &Index{entries: map[string]Identity{}}
	for _, identity := range identities {
		idx.Add(identity)
	}
	return idx
}

// Add stores identity under its display name, it returns false and leaves
// the index unchanged if the name is already present.
func (idx *Index) Add(identity Identity) bool {
	if _, ok := idx.entries[identity.DisplayName]; ok {
		return false
	}
	idx.entries[identity.DisplayName] = identity
	return true
}

func (idx *Index) Get(displayName string) (Identity, bool) {
	identity, ok := idx.entries[displayName]
	return identity, ok
}

func (idx *Index) Len() int {
	return len(idx.entries)
}

// All returns every identity ordered by display name.
func (idx *Index) All() []Identity {
	out := make([]Identity, 0, len(idx.entries))
	for _, identity := range idx.entries {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}
