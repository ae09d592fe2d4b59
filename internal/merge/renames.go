package merge

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Rename is one entry of a RenameMap.
type Rename struct {
	From string
	To   string
}

// RenameMap accumulates original-name to final-name decisions for one merge
// call. Identity renames are never stored and each name is renamed at most once.
type RenameMap struct {
	m map[string]string
}

// NewRenameMap returns an empty map.
func NewRenameMap() *RenameMap {
	return &RenameMap{m: make(map[string]string)}
}

// Record stores from -> to. It reports whether an entry was added; identity
// renames are dropped. Renaming one name to two different targets is an error.
func (r *RenameMap) Record(from, to string) (bool, error) {
	if from == to {
		return false, nil
	}
	if prev, ok := r.m[from]; ok {
		if prev == to {
			return false, nil
		}
		return false, fmt.Errorf("@%s renamed twice (@%s, @%s)", from, prev, to)
	}
	r.m[from] = to
	return true, nil
}

// Lookup returns the final name recorded for from.
func (r *RenameMap) Lookup(from string) (string, bool) {
	if r == nil {
		return "", false
	}
	to, ok := r.m[from]
	return to, ok
}

// Len reports the number of recorded renames.
func (r *RenameMap) Len() int {
	if r == nil {
		return 0
	}
	return len(r.m)
}

// Map returns a copy of the mapping.
func (r *RenameMap) Map() map[string]string {
	if r == nil {
		return map[string]string{}
	}
	return maps.Clone(r.m)
}

// Pairs returns the renames sorted by original name.
func (r *RenameMap) Pairs() []Rename {
	if r == nil {
		return nil
	}
	out := make([]Rename, 0, len(r.m))
	for _, from := range slices.Sorted(maps.Keys(r.m)) {
		out = append(out, Rename{From: from, To: r.m[from]})
	}
	return out
}

func (r *RenameMap) String() string {
	pairs := r.Pairs()
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = "@" + p.From + " -> @" + p.To
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
