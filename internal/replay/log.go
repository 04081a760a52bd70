// Package replay writes the signals of a run to a zstd-compressed JSONL file
// and reads them back.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/brickworld/brickworld/internal/observer"
)

// Writer appends one JSON line per published value.
type Writer struct {
	path string

	mu    sync.Mutex
	f     *os.File
	enc   *zstd.Encoder
	w     *bufio.Writer
	lines int
}

// FileName is the replay file name for a run started at t.
func FileName(t time.Time) string {
	return "run-" + t.UTC().Format("20060102-150405") + ".jsonl.zst"
}

// Create opens a new replay file in dir.
func Create(dir string, started time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName(started))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (w *Writer) Path() string { return w.path }

// PublishJSON writes v as one line.
func (w *Writer) PublishJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("replay %s is closed", w.path)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Lines returns how many values were written.
func (w *Writer) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// Close flushes the encoder and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	ferr := w.w.Flush()
	eerr := w.enc.Close()
	cerr := w.f.Close()
	w.w, w.enc, w.f = nil, nil, nil
	for _, err := range []error{ferr, eerr, cerr} {
		if err != nil {
			return fmt.Errorf("close replay %s: %w", w.path, err)
		}
	}
	return nil
}

// Read decodes every message of a replay file in order.
func Read(path string, fn func(observer.Message) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		var msg observer.Message
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return sc.Err()
}
