// Package tail reads complete lines appended to a growing file, tracking
// a byte cursor so no line is delivered twice or skipped.
package tail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ErrSourceMissing is returned when the live data file does not exist.
// There is nothing to tail, so this is fatal for the run.
var ErrSourceMissing = errors.New("live data file missing")

// Reader tails one file. The cursor lives only in memory; a restarted
// process starts over from byte zero against freshly reset storage.
type Reader struct {
	path   string
	offset int64
	log    zerolog.Logger
}

// New returns a Reader positioned at the start of the file.
func New(path string, logger zerolog.Logger) *Reader {
	return &Reader{path: path, log: logger}
}

// Offset returns the current byte cursor.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Poll opens the file fresh, seeks to the cursor, and returns every
// complete line found after it, trimmed. A trailing line without a
// terminator is left unconsumed; the cursor stays at its start so the
// completed line is picked up by a later poll. Whitespace-only lines are
// consumed but not returned.
func (r *Reader) Poll() ([]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, r.path)
		}
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", r.path, err)
	}
	if info.Size() < r.offset {
		// The file shrank or was replaced. Re-read from the beginning;
		// see DESIGN.md for the trade-off.
		r.log.Warn().
			Int64("cursor", r.offset).
			Int64("size", info.Size()).
			Msg("tail: source file shrank, resetting cursor")
		r.offset = 0
	}

	if _, err := f.Seek(r.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s to %d: %w", r.path, r.offset, err)
	}

	br := bufio.NewReader(f)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Partial trailing line: not consumed, not delivered.
				return lines, nil
			}
			return lines, fmt.Errorf("read %s: %w", r.path, err)
		}
		r.offset += int64(len(line))
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
}
