package ui

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Bump when Session changes shape; older files are ignored.
const sessionSchema uint16 = 2

// Session is the viewer state remembered per trace file.
type Session struct {
	Schema      uint16
	Path        string
	Expanded    []uint64
	Selected    uint64
	HasSelected bool
	Offset      int
	Sort        string // empty for storage order
	Filter      bool
	From        int64
	To          int64
}

// SessionStore keeps one msgpack file per trace under dir, named by the
// xxhash of the trace's absolute path.
type SessionStore struct {
	dir string
}

func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

func (s *SessionStore) pathFor(tracePath string) string {
	if abs, err := filepath.Abs(tracePath); err == nil {
		tracePath = abs
	}
	sum := xxhash.Sum64String(tracePath)
	return filepath.Join(s.dir, strconv.FormatUint(sum, 16)+".mp")
}

// Save writes sess atomically.
func (s *SessionStore) Save(sess *Session) error {
	if s == nil {
		return nil
	}
	p := s.pathFor(sess.Path)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "create session directory")
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return errors.Wrap(err, "create session file")
	}
	defer os.Remove(f.Name())

	sess.Schema = sessionSchema
	if err := msgpack.NewEncoder(f).Encode(sess); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "encode session")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close session file")
	}
	return errors.Wrap(os.Rename(f.Name(), p), "replace session file")
}

// Load returns the stored session for tracePath. A missing file or one
// written by another schema reports false.
func (s *SessionStore) Load(tracePath string) (*Session, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	f, err := os.Open(s.pathFor(tracePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "open session")
	}
	defer f.Close()
	var sess Session
	if err := msgpack.NewDecoder(f).Decode(&sess); err != nil {
		return nil, false, errors.Wrapf(err, "decode session %s", f.Name())
	}
	if sess.Schema != sessionSchema {
		return nil, false, nil
	}
	return &sess, true, nil
}
