package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// DefaultFile is the state file name inside a project.
const DefaultFile = ".metadata.json"

// FileStore keeps counter state in a JSON file guarded by an advisory lock
// on <path>.lock.
type FileStore struct {
	path string
	opts options
}

var _ Counter = (*FileStore)(nil)

// NewFileStore creates a FileStore for the state file at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	return &FileStore{path: path, opts: buildOptions(opts)}
}

// Peek returns the next number for kind under a shared lock.
func (s *FileStore) Peek(ctx context.Context, kind model.Kind) (string, error) {
	if _, err := model.ParseKind(string(kind)); err != nil {
		return "", err
	}
	if err := s.exists(); err != nil {
		return "", err
	}
	lk := flock.New(s.lockPath())
	locked, err := lk.TryRLockContext(ctx, s.opts.retryDelay)
	if err != nil || !locked {
		return "", s.lockFailed(err)
	}
	defer lk.Unlock()

	st, err := Load(s.path)
	if err != nil {
		return "", err
	}
	return st.Bucket(kind).issue(s.opts.now()).String(), nil
}

// Reserve takes the exclusive lock and returns the next number for kind. The
// lock is held until the reservation is committed or released.
func (s *FileStore) Reserve(ctx context.Context, kind model.Kind) (*Reservation, error) {
	if _, err := model.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if err := s.exists(); err != nil {
		return nil, err
	}
	lk := flock.New(s.lockPath())
	locked, err := lk.TryLockContext(ctx, s.opts.retryDelay)
	if err != nil || !locked {
		return nil, s.lockFailed(err)
	}

	st, err := Load(s.path)
	if err != nil {
		_ = lk.Unlock()
		return nil, err
	}
	b := st.Bucket(kind)
	number := b.issue(s.opts.now()).String()

	commit := func() error {
		after, err := b.consume(number)
		if err != nil {
			return model.NewCounterStateError(s.path, "recording issued number", err)
		}
		*b = after
		return Save(s.path, st)
	}
	release := func() { _ = lk.Unlock() }
	return newReservation(kind, number, commit, release), nil
}

// Reset replaces the state file with st under the exclusive lock, waiting
// for any outstanding reservation to finish first. The file need not exist.
func (s *FileStore) Reset(ctx context.Context, st *State) error {
	lk := flock.New(s.lockPath())
	locked, err := lk.TryLockContext(ctx, s.opts.retryDelay)
	if err != nil || !locked {
		return s.lockFailed(err)
	}
	defer lk.Unlock()

	return Save(s.path, st)
}

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// exists reports a missing state file before a lock file is created beside it.
func (s *FileStore) exists() error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewCounterStateError(s.path, "state file not found (run pacioli init)", err)
		}
		return model.NewCounterStateError(s.path, "checking state file", err)
	}
	return nil
}

func (s *FileStore) lockFailed(err error) error {
	if err == nil {
		err = errors.New("lock not acquired")
	}
	return fmt.Errorf("locking counter %s: %w", s.lockPath(), err)
}

// Load reads and checks the state file at path.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.NewCounterStateError(path, "state file not found (run pacioli init)", err)
		}
		return nil, model.NewCounterStateError(path, "reading state file", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, model.NewCounterStateError(path, "parsing state file", err)
	}
	if reason := st.problem(); reason != "" {
		return nil, model.NewCounterStateError(path, reason, nil)
	}
	return &st, nil
}

// Save writes st to path atomically: the new content is written and synced
// to a temporary file in the same directory, then renamed over path.
func Save(path string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling counter state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting state file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
