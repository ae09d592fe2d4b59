package merge

import (
	"errors"
	"testing"
)

type nameSet map[string]bool

func (s nameSet) Exists(name string) bool { return s[name] }

func TestResolveUnchangedWhenFree(t *testing.T) {
	got, err := Resolve("forward", nil, nameSet{"other": true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "forward" {
		t.Fatalf("got %q, want forward", got)
	}
}

func TestResolveUniquifies(t *testing.T) {
	tests := []struct {
		name  string
		taken nameSet
		want  string
	}{
		{name: "first suffix", taken: nameSet{"x": true}, want: "x$1"},
		{name: "skips taken suffix", taken: nameSet{"x": true, "x$1": true}, want: "x$2"},
		{name: "gap is reused", taken: nameSet{"x": true, "x$2": true}, want: "x$1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve("x", map[string]string{}, tt.taken)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveHonoursRequest(t *testing.T) {
	got, err := Resolve("forward", map[string]string{"forward": "step"}, nameSet{"forward": true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "step" {
		t.Fatalf("got %q, want step", got)
	}
}

func TestResolveRequestConflict(t *testing.T) {
	_, err := Resolve("forward", map[string]string{"forward": "existing_name"}, nameSet{"existing_name": true})
	if !errors.Is(err, ErrRenameConflict) {
		t.Fatalf("expected ErrRenameConflict, got %v", err)
	}
	var conflict *RenameConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *RenameConflictError, got %T", err)
	}
	if conflict.Original != "forward" || conflict.Requested != "existing_name" {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
}

func TestResolveEmptyRequestMeansNone(t *testing.T) {
	got, err := Resolve("x", map[string]string{"x": ""}, nameSet{"x": true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "x$1" {
		t.Fatalf("got %q, want x$1", got)
	}
}

func TestUniquifyDeterministic(t *testing.T) {
	taken := nameSet{"k": true, "k$1": true, "k$2": true}
	first := Uniquify("k", taken)
	for range 5 {
		if again := Uniquify("k", taken); again != first {
			t.Fatalf("uniquify not deterministic: %q vs %q", first, again)
		}
	}
	if first != "k$3" {
		t.Fatalf("got %q, want k$3", first)
	}
}

func TestRenameMapRecord(t *testing.T) {
	r := NewRenameMap()
	if added, err := r.Record("a", "a"); added || err != nil {
		t.Fatalf("identity rename must be dropped, got %v %v", added, err)
	}
	if added, err := r.Record("a", "b"); !added || err != nil {
		t.Fatalf("record: %v %v", added, err)
	}
	if _, err := r.Record("a", "c"); err == nil {
		t.Fatalf("expected error renaming @a twice")
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
	if got := r.String(); got != "{@a -> @b}" {
		t.Fatalf("string = %q", got)
	}
}
