package tail

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestReader(t *testing.T) (*Reader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "live.jsonl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	return New(path, zerolog.Nop()), path
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestPollDeliversCompleteLines(t *testing.T) {
	r, path := newTestReader(t)
	appendTo(t, path, "one\ntwo\n")

	lines, err := r.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("expected [one two], got %v", lines)
	}
	if r.Offset() != 8 {
		t.Errorf("expected cursor 8, got %d", r.Offset())
	}

	// Nothing new: no lines, cursor unchanged.
	lines, err = r.Poll()
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %v", lines)
	}
	if r.Offset() != 8 {
		t.Errorf("cursor moved without new data: %d", r.Offset())
	}
}

func TestPollDefersPartialLine(t *testing.T) {
	r, path := newTestReader(t)
	appendTo(t, path, "complete\npart")

	lines, err := r.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(lines) != 1 || lines[0] != "complete" {
		t.Errorf("expected only the complete line, got %v", lines)
	}
	if r.Offset() != int64(len("complete\n")) {
		t.Errorf("cursor advanced past partial line start: %d", r.Offset())
	}

	// Finishing the line makes the whole thing deliverable.
	appendTo(t, path, "ial\n")
	lines, err = r.Poll()
	if err != nil {
		t.Fatalf("poll after completion: %v", err)
	}
	if len(lines) != 1 || lines[0] != "partial" {
		t.Errorf("expected [partial], got %v", lines)
	}
}

func TestPollSkipsBlankLines(t *testing.T) {
	r, path := newTestReader(t)
	appendTo(t, path, "a\n\n   \nb\n")

	lines, err := r.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("expected [a b], got %v", lines)
	}
	if r.Offset() != int64(len("a\n\n   \nb\n")) {
		t.Errorf("blank lines must still advance the cursor, got %d", r.Offset())
	}
}

func TestPollCursorMonotonic(t *testing.T) {
	r, path := newTestReader(t)
	var delivered []string
	prev := r.Offset()

	chunks := []string{"l1\nl2", "\nl3\n", "", "l4\n"}
	for _, chunk := range chunks {
		appendTo(t, path, chunk)
		lines, err := r.Poll()
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		delivered = append(delivered, lines...)
		if r.Offset() < prev {
			t.Fatalf("cursor went backwards: %d < %d", r.Offset(), prev)
		}
		prev = r.Offset()
	}

	want := []string{"l1", "l2", "l3", "l4"}
	if len(delivered) != len(want) {
		t.Fatalf("expected %v, got %v", want, delivered)
	}
	for i := range want {
		if delivered[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], delivered[i])
		}
	}
}

func TestPollMissingFile(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "nope.jsonl"), zerolog.Nop())
	_, err := r.Poll()
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

func TestPollResetsCursorOnShrink(t *testing.T) {
	r, path := newTestReader(t)
	appendTo(t, path, "a long first line\nanother\n")
	if _, err := r.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	lines, err := r.Poll()
	if err != nil {
		t.Fatalf("poll after shrink: %v", err)
	}
	if len(lines) != 1 || lines[0] != "new" {
		t.Errorf("expected [new] after cursor reset, got %v", lines)
	}
	if r.Offset() != 4 {
		t.Errorf("expected cursor 4, got %d", r.Offset())
	}
}
