package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"off":    LevelOff,
		"ERROR":  LevelError,
		"phase":  LevelPhase,
		"Detail": LevelDetail,
		"debug":  LevelDebug,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestShouldEmit(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeStep) {
		t.Fatalf("phase level must not emit step events")
	}
	if !LevelDetail.ShouldEmit(ScopeStep) {
		t.Fatalf("detail level must emit step events")
	}
	if LevelDetail.ShouldEmit(ScopeDef) {
		t.Fatalf("detail level must not emit def events")
	}
	if !LevelDebug.ShouldEmit(ScopeDef) {
		t.Fatalf("debug level must emit everything")
	}
	if LevelError.ShouldEmit(ScopeSession) {
		t.Fatalf("error level must not emit spans")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	span := Begin(tr, ScopeMerge, "merge", 0)
	Pointf(tr, ScopeStep, "alias", span.ID(), "%s -> %s", "c0", "util_const")
	Point(tr, ScopeDef, "hidden", "", span.ID())
	span.WithExtra("renames", "1").End("ok")

	out := buf.String()
	for _, want := range []string{"→ merge", "• alias (c0 -> util_const)", "← merge (ok) {renames=1}"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("def-scope event leaked at detail level:\n%s", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeDef, "import", "@forward", 0)
	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"name":"import"`) || !strings.Contains(line, `"scope":"def"`) {
		t.Fatalf("unexpected ndjson line: %s", line)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeStep, name, "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop without a tracer")
	}
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	ctx, outer := BeginCtx(ctx, ScopeSession, "session")
	_, inner := BeginCtx(ctx, ScopeMerge, "merge")
	inner.End("")
	outer.End("")

	snap := ring.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	if snap[1].ParentID != outer.ID() {
		t.Fatalf("inner span parent = %d, want %d", snap[1].ParentID, outer.ID())
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("expected disabled tracer")
	}
}

func TestMultiTracerRing(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiTracer(LevelDetail, NewStreamTracer(&buf, LevelDetail, FormatText), NewRingTracer(8, LevelDetail))
	Point(multi, ScopeStep, "x", "", 0)
	ring, ok := multi.Ring()
	if !ok || len(ring.Snapshot()) != 1 {
		t.Fatalf("expected ring to receive the event")
	}
	if buf.Len() == 0 {
		t.Fatalf("expected stream output")
	}
}
