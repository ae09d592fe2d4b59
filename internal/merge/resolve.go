package merge

import "strconv"

// Registry is the view of a symbol table the resolver needs.
type Registry interface {
	Exists(name string) bool
}

// Resolve decides the final name for a definition named original that is
// being imported into reg. A non-empty entry in userRenames is honoured
// exactly or fails with a *RenameConflictError; there is no fallback to
// automatic disambiguation. Without a request the name is uniquified.
func Resolve(original string, userRenames map[string]string, reg Registry) (string, error) {
	if requested := userRenames[original]; requested != "" {
		if reg.Exists(requested) {
			return "", &RenameConflictError{Original: original, Requested: requested}
		}
		return requested, nil
	}
	return Uniquify(original, reg), nil
}

// Uniquify returns name if it is free in reg, otherwise the first free
// name$1, name$2, ... The probe is linear, so identical inputs always yield
// identical names.
func Uniquify(name string, reg Registry) string {
	if !reg.Exists(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "$" + strconv.Itoa(i)
		if !reg.Exists(candidate) {
			return candidate
		}
	}
}

// overlay is a scratch registry: the target's names plus names claimed by
// the merge plan so far.
type overlay struct {
	base    Registry
	claimed map[string]string
}

func newOverlay(base Registry) *overlay {
	return &overlay{base: base, claimed: make(map[string]string)}
}

func (o *overlay) Exists(name string) bool {
	if _, ok := o.claimed[name]; ok {
		return true
	}
	return o.base.Exists(name)
}

func (o *overlay) claim(name, by string) { o.claimed[name] = by }

// holder returns the source name that claimed name during planning.
func (o *overlay) holder(name string) (string, bool) {
	by, ok := o.claimed[name]
	return by, ok
}
