package state

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	ExpiryMarker = "expiry"
	PausedMarker = "paused"
)

// DefaultDir is where the markers live unless configured otherwise.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "polybar-timer")
}

// FileStore keeps the timer as two marker files in Dir, each holding a
// decimal count of seconds since the Unix epoch. Markers that cannot be
// removed for reasons other than permissions are reported to Logger, when
// set, and otherwise ignored.
type FileStore struct {
	Dir    string
	Logger *log.Logger
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Exists reports whether the named marker is present as a regular file.
func (s *FileStore) Exists(name string) bool {
	info, err := os.Stat(s.path(name))
	return err == nil && info.Mode().IsRegular()
}

func (s *FileStore) Load() (State, error) {
	if !s.Exists(ExpiryMarker) {
		return NewIdle(), nil
	}
	expiry, err := s.readMarker(ExpiryMarker)
	if err != nil {
		return NewIdle(), err
	}
	if !s.Exists(PausedMarker) {
		return NewRunning(expiry), nil
	}
	pausedAt, err := s.readMarker(PausedMarker)
	if err != nil {
		return NewIdle(), err
	}
	return NewPaused(expiry, pausedAt), nil
}

func (s *FileStore) Save(st State) error {
	if !st.Active() {
		return s.Clear()
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return classify(err)
	}
	if err := s.writeMarker(ExpiryMarker, st.Expiry); err != nil {
		return err
	}
	if st.IsPaused() {
		return s.writeMarker(PausedMarker, st.PausedAt)
	}
	return s.removeMarker(PausedMarker)
}

// Clear removes both markers. Only permission problems are returned.
func (s *FileStore) Clear() error {
	if err := s.removeMarker(ExpiryMarker); err != nil {
		return err
	}
	return s.removeMarker(PausedMarker)
}

func (s *FileStore) readMarker(name string) (time.Time, error) {
	p := s.path(name)
	b, err := os.ReadFile(p)
	if err != nil {
		return time.Time{}, classify(err)
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil || secs < 0 || secs > Latest.Unix() {
		return time.Time{}, fmt.Errorf("%w: %s holds %q", ErrCorrupt, p, b)
	}
	return time.Unix(secs, 0), nil
}

// writeMarker replaces the marker through a temp file so a concurrent
// reader sees either the old or the new value.
func (s *FileStore) writeMarker(name string, t time.Time) error {
	p := s.path(name)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(t.Unix(), 10)), 0644); err != nil {
		return classify(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return classify(err)
	}
	return nil
}

func (s *FileStore) removeMarker(name string) error {
	err := os.Remove(s.path(name))
	switch {
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return nil
	case errors.Is(err, fs.ErrPermission):
		return classify(err)
	}
	if s.Logger != nil {
		s.Logger.Printf("leaving %s marker behind: %v", name, err)
	}
	return nil
}

// classify tags permission failures with ErrPermission. The underlying
// *fs.PathError already names the operation and path.
func classify(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrPermission, err)
	}
	return err
}
