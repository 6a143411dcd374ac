// Package trace writes and reads the zstd-compressed JSONL step trace: one
// header line describing the run, then one line per committed step.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/scheduler"
	"github.com/seemapankhania/movingcellsmoother/internal/sim/tuning"
)

const HeaderType = "header"

var ErrNoHeader = errors.New("trace: missing header line")

// Header is the first line of every trace. Config is the fully resolved
// configuration, enough to rebuild the initial population.
type Header struct {
	Type      string        `json:"type"`
	RunID     string        `json:"run_id"`
	Seed      uint64        `json:"seed"`
	Workers   int           `json:"workers"`
	NumAgents int           `json:"num_agents"`
	CreatedAt string        `json:"created_at"`
	Config    tuning.Config `json:"config"`
}

func FileName(runID string) string {
	return fmt.Sprintf("trace-%s.jsonl.zst", runID)
}

// Writer appends JSONL records to a single zstd stream. It satisfies
// scheduler.StepLogger.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(dir, runID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName(runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) WriteHeader(h Header) error {
	h.Type = HeaderType
	if h.CreatedAt == "" {
		h.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return w.write(h)
}

func (w *Writer) WriteStep(e scheduler.StepLogEntry) error {
	if e.Type == "" {
		e.Type = scheduler.StepLogType
	}
	return w.write(e)
}

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w, w.enc, w.f = nil, nil, nil
	return err
}

// Reader decodes a trace written by Writer. The header is read eagerly by
// Open; Next yields step entries and io.EOF at the end.
type Reader struct {
	path   string
	f      *os.File
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	header Header
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	r := &Reader{path: path, f: f, dec: dec, sc: sc}

	if !sc.Scan() {
		err := sc.Err()
		_ = r.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoHeader)
	}
	if err := json.Unmarshal(sc.Bytes(), &r.header); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("%s: header: %w", filepath.Base(path), err)
	}
	if r.header.Type != HeaderType {
		_ = r.Close()
		return nil, fmt.Errorf("%s: %w (got type %q)", filepath.Base(path), ErrNoHeader, r.header.Type)
	}
	return r, nil
}

func (r *Reader) Header() Header { return r.header }

func (r *Reader) Next() (scheduler.StepLogEntry, error) {
	for r.sc.Scan() {
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e scheduler.StepLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return scheduler.StepLogEntry{}, fmt.Errorf("%s: unmarshal: %w", filepath.Base(r.path), err)
		}
		if e.Type != scheduler.StepLogType {
			continue
		}
		return e, nil
	}
	if err := r.sc.Err(); err != nil {
		return scheduler.StepLogEntry{}, err
	}
	return scheduler.StepLogEntry{}, io.EOF
}

func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
