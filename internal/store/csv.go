// Package store persists registry snapshots as CSV files, one row per model.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/torosent/freehit/internal/catalog"
)

// DefaultDir is used when no output directory is configured.
const DefaultDir = "output"

// Header is the first row of every snapshot file.
var Header = []string{"name", "label", "active", "count"}

// CSV writes snapshots to <dir>/<provider>_usage.csv, replacing the file on
// every write.
type CSV struct {
	dir  string
	path string
}

// NewCSV returns a store for provider under dir. An empty dir means DefaultDir.
func NewCSV(dir, provider string) *CSV {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDir
	}
	return &CSV{
		dir:  dir,
		path: filepath.Join(dir, FileName(provider)),
	}
}

// FileName returns the snapshot file name for provider.
func FileName(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "_usage.csv"
}

// Path returns the snapshot file path.
func (s *CSV) Path() string {
	return s.path
}

// Save writes snapshot atomically: rows go to a temporary file in the same
// directory which is then renamed over the previous snapshot. Concurrent
// writers are serialized by a lock on the directory itself, so the snapshot
// is the only file left behind.
func (s *CSV) Save(snapshot []catalog.Descriptor) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "store mkdir")
	}

	lock := flock.New(s.dir, flock.SetFlag(os.O_RDONLY))
	if err := lock.Lock(); err != nil {
		return errors.Wrap(err, "store lock")
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "store create temp")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := Encode(tmp, snapshot); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "store encode")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "store sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "store close")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "store rename")
	}
	committed = true
	return nil
}

// Encode writes snapshot as CSV with a header row. Equal snapshots always
// produce identical bytes.
func Encode(w io.Writer, snapshot []catalog.Descriptor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, d := range snapshot {
		row := []string{d.Name, d.Label, strconv.FormatBool(d.Active), strconv.Itoa(d.Count)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a snapshot previously written by Save.
func ReadCSV(path string) ([]catalog.Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "store open")
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "store read")
	}
	if len(rows) == 0 {
		return nil, errors.New("store: snapshot is empty")
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		return nil, errors.Errorf("store: unexpected header %v", rows[0])
	}

	out := make([]catalog.Descriptor, 0, len(rows)-1)
	for i, row := range rows[1:] {
		active, err := strconv.ParseBool(row[2])
		if err != nil {
			return nil, fmt.Errorf("store: row %d: active: %w", i+2, err)
		}
		count, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("store: row %d: count: %w", i+2, err)
		}
		out = append(out, catalog.Descriptor{Name: row[0], Label: row[1], Active: active, Count: count})
	}
	return out, nil
}
