// Package csvsink maintains the append-only rectangular CSV file of submissions.
package csvsink

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"scouthub/internal/domain"
)

// Placeholder fills columns a row has no value for.
const Placeholder = ""

const fileMode os.FileMode = 0o644

// Sink appends records to a CSV file whose header is the union of every column
// ever written. All file access is serialized by one mutex.
type Sink struct {
	mu    sync.Mutex
	path  string
	order map[string]int
}

// New creates a sink writing to path. order is the preferred column order for
// new headers; columns not listed sort alphabetically after it.
func New(path string, order []string) *Sink {
	rank := make(map[string]int, len(order))
	for i, c := range order {
		rank[c] = i
	}
	return &Sink{path: path, order: rank}
}

// Path returns the file the sink writes to.
func (s *Sink) Path() string { return s.path }

// Append writes rec as one row. It returns StatusCreated for the first row,
// StatusAppended when the header already covers rec, and StatusRewritten when
// new columns forced the whole file to be rewritten with a widened header.
func (s *Sink) Append(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.SinkError{Sink: "csv", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.append(rec)
	if err != nil {
		return "", &domain.SinkError{Sink: "csv", Err: err}
	}
	return status, nil
}

func (s *Sink) append(rec domain.ScoutingRecord) (domain.SinkStatus, error) {
	header, err := s.readHeader()
	if err != nil {
		return "", err
	}
	if len(header) == 0 {
		header = s.sortColumns(rec.Keys())
		if err := s.create(header, rec); err != nil {
			return "", err
		}
		return domain.StatusCreated, nil
	}

	known := make(map[string]bool, len(header))
	for _, h := range header {
		known[h] = true
	}
	var added []string
	for k := range rec {
		if !known[k] {
			added = append(added, k)
		}
	}
	if len(added) == 0 {
		if err := s.appendRow(header, rec); err != nil {
			return "", err
		}
		return domain.StatusAppended, nil
	}

	widened := append(append([]string{}, header...), s.sortColumns(added)...)
	if err := s.rewrite(header, widened, rec); err != nil {
		return "", err
	}
	return domain.StatusRewritten, nil
}

// readHeader returns nil for a missing or empty file.
func (s *Sink) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}
	return header, nil
}

func (s *Sink) create(header []string, rec domain.ScoutingRecord) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(header)
	_ = w.Write(row(header, rec))
	return closeWriter(w, f)
}

func (s *Sink) appendRow(header []string, rec domain.ScoutingRecord) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", s.path, err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(row(header, rec))
	return closeWriter(w, f)
}

// rewrite re-emits every existing row under the widened header into a temp
// file and renames it over the original, so readers never see a torn file.
func (s *Sink) rewrite(oldHeader, header []string, rec domain.ScoutingRecord) error {
	src, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename
	// CreateTemp uses 0600.
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	r := csv.NewReader(bufio.NewReader(src))
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil {
		tmp.Close()
		return fmt.Errorf("read header of %s: %w", s.path, err)
	}

	w := csv.NewWriter(tmp)
	_ = w.Write(header)
	for {
		old, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tmp.Close()
			return fmt.Errorf("read %s: %w", s.path, err)
		}
		padded := make([]string, len(header))
		for i := range padded {
			padded[i] = Placeholder
		}
		copy(padded, old[:min(len(old), len(oldHeader))])
		_ = w.Write(padded)
	}
	_ = w.Write(row(header, rec))
	if err := closeWriter(w, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Snapshot returns the current file contents.
func (s *Sink) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, domain.ErrNotFound("no submissions have been written to %s", s.path)
	}
	if err != nil {
		return nil, &domain.SinkError{Sink: "csv", Err: err}
	}
	return data, nil
}

// View runs fn with the sink locked, so fn sees a complete file. exists reports
// whether the file has any content.
func (s *Sink) View(fn func(path string, exists bool) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	exists := err == nil && info.Size() > 0
	return fn(s.path, exists)
}

// sortColumns orders names by the preferred order, then alphabetically.
func (s *Sink) sortColumns(names []string) []string {
	out := append([]string{}, names...)
	sort.Slice(out, func(i, j int) bool {
		ri, iok := s.order[out[i]]
		rj, jok := s.order[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func row(header []string, rec domain.ScoutingRecord) []string {
	out := make([]string, len(header))
	for i, h := range header {
		v, ok := rec[h]
		if !ok {
			out[i] = Placeholder
			continue
		}
		out[i] = FormatValue(v)
	}
	return out
}

// FormatValue renders a record value as a CSV cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return Placeholder
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func closeWriter(w *csv.Writer, f *os.File) error {
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.Name(), err)
	}
	return nil
}
