// Package reader loads FAF parquet datasets into memory.
//
// Each logical dataset identity maps to one parquet file under the
// loader's data directory. Rows are returned as maps keyed by column
// name. Column projection and conjunctive "in" predicates are applied
// while scanning, so rows and columns that fail the read plan are
// dropped before the result table materializes.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Loader reads parquet datasets from a data directory.
type Loader struct {
	dataDir string
}

// NewLoader creates a loader rooted at dataDir. If dataDir is empty,
// ~/.tidyfaf_data is used.
func NewLoader(dataDir string) *Loader {
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".tidyfaf_data")
		}
	}
	return &Loader{dataDir: dataDir}
}

// DataDir returns the directory the loader reads from.
func (l *Loader) DataDir() string {
	return l.dataDir
}

// Path returns the absolute path backing a dataset identity.
func (l *Loader) Path(ds Dataset) (string, error) {
	name, err := Filename(ds)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dataDir, filepath.FromSlash(name)), nil
}

// Load reads a dataset, keeping only the requested columns and the rows
// matching every predicate. A nil column list keeps all columns; a nil
// predicate list keeps all rows. A missing backing file fails with
// ErrDatasetNotFound naming the expected path.
func (l *Loader) Load(ds Dataset, columns []string, predicates []Predicate) ([]map[string]interface{}, error) {
	path, err := l.Path(ds)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (expected file %s)", ErrDatasetNotFound, ds, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	keep := columnSet(columns, pqFile.Schema())

	rows := make([]map[string]interface{}, 0)
	pqReader := parquet.NewReader(pqFile)
	defer func() { _ = pqReader.Close() }()

	for {
		row := make(map[string]interface{})
		err := pqReader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if !Match(row, predicates) {
			continue
		}
		if keep != nil {
			for col := range row {
				if !keep[col] {
					delete(row, col)
				}
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Columns returns the top-level column names of a dataset without
// reading any rows.
func (l *Loader) Columns(ds Dataset) ([]string, error) {
	path, err := l.Path(ds)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (expected file %s)", ErrDatasetNotFound, ds, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	fields := pqFile.Schema().Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name())
	}
	return names, nil
}

// columnSet builds the projection set: the intersection of requested
// columns and columns actually present in the schema. Returns nil when
// no projection was requested.
func columnSet(columns []string, schema *parquet.Schema) map[string]bool {
	if columns == nil {
		return nil
	}
	available := make(map[string]bool)
	for _, f := range schema.Fields() {
		available[f.Name()] = true
	}
	keep := make(map[string]bool, len(columns))
	for _, col := range columns {
		if available[col] {
			keep[col] = true
		}
	}
	return keep
}
