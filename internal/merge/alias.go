package merge

import (
	"fmt"

	"github.com/minio/highwayhash"

	"ace/internal/ir"
)

var digestKey = []byte("ace:constant-alias-index:v1.0.0.")

// digest returns the content address of an attribute value.
func digest(value ir.Attr) (uint64, error) {
	h, err := highwayhash.New64(digestKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(value.AppendCanonical(nil))
	return h.Sum64(), err
}

// AliasIndex maps initial values to the pre-existing target globals holding
// them. It is read-only once built.
type AliasIndex struct {
	buckets map[uint64][]*ir.Def
	size    int
}

// BuildAliasIndex indexes every immutable initialized global of target.
// When several globals hold the same value the last one in body order wins.
func BuildAliasIndex(target *ir.Fragment) (*AliasIndex, error) {
	idx := &AliasIndex{buckets: make(map[uint64][]*ir.Def)}
	for _, g := range target.Globals() {
		if !g.IsImmutableInitialized() {
			continue
		}
		key, err := digest(*g.Initial)
		if err != nil {
			return nil, fmt.Errorf("index @%s: %w", g.Name(), err)
		}
		bucket := idx.buckets[key]
		replaced := false
		for i, prev := range bucket {
			if prev.Initial.Equal(*g.Initial) {
				bucket[i] = g
				replaced = true
				break
			}
		}
		if !replaced {
			idx.buckets[key] = append(bucket, g)
			idx.size++
		}
	}
	return idx, nil
}

// Find returns the target global holding exactly value.
func (x *AliasIndex) Find(value ir.Attr) (*ir.Def, bool) {
	if x == nil || x.size == 0 {
		return nil, false
	}
	key, err := digest(value)
	if err != nil {
		return nil, false
	}
	for _, g := range x.buckets[key] {
		if g.Initial.Equal(value) {
			return g, true
		}
	}
	return nil, false
}

// Len reports the number of distinct indexed values.
func (x *AliasIndex) Len() int {
	if x == nil {
		return 0
	}
	return x.size
}
