package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/cloud-bulldozer/threadbench/pkg/logging"
	result "github.com/cloud-bulldozer/threadbench/pkg/results"
	"github.com/pkg/errors"
)

// ErrPersistence matches every failure to store a result.
var ErrPersistence = errors.New("persistence failure")

// WriteError reports the record that could not be stored.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write record %s: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrPersistence as well as the cause.
func (e *WriteError) Is(target error) bool { return target == ErrPersistence }

// Store keeps one record per key. Writing a key again replaces the record.
type Store interface {
	Write(key string, d result.Data) error
}

// FileStore writes each record as <key>.json inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if it is missing and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Key: dir, Err: err}
	}
	logging.Debugf("Storing results under %s", dir)
	return &FileStore{dir: dir}, nil
}

// Dir is the directory records are written to.
func (f *FileStore) Dir() string {
	return f.dir
}

// Path is where the record for key lives.
func (f *FileStore) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Write replaces the record stored under key. The record is written to a
// temporary file first so a reader never sees a partial record.
func (f *FileStore) Write(key string, d result.Data) error {
	buf, err := sonic.ConfigStd.MarshalIndent(d, "", "  ")
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &WriteError{Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), f.Path(key)); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Key: key, Err: err}
	}
	logging.Debugf("Wrote %s", f.Path(key))
	return nil
}

// ReadRecord loads the record stored under key.
func (f *FileStore) ReadRecord(key string) (result.Data, error) {
	var d result.Data
	buf, err := os.ReadFile(f.Path(key))
	if err != nil {
		return d, err
	}
	if err := sonic.ConfigStd.Unmarshal(buf, &d); err != nil {
		return d, errors.Wrapf(err, "in record %q", key)
	}
	return d, nil
}
