package userstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Serializer provides the encoding used for record files.
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}

type GobSerializer struct{}

func (s *GobSerializer) Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *GobSerializer) Deserialize(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Store keeps one record file per user under a data directory.
type Store struct {
	dir        string
	serializer Serializer
	mu         sync.RWMutex
}

type Config struct {
	Dir        string
	Serializer Serializer
}

func New(cfg Config) (*Store, error) {
	const op = "userstore.New"

	if cfg.Serializer == nil {
		cfg.Serializer = &GobSerializer{}
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: create data dir: %w", op, err)
	}

	return &Store{
		dir:        cfg.Dir,
		serializer: cfg.Serializer,
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes a record to <dir>/<id><ext>, assigning a fresh uuid when the
// record has none.
func (s *Store) Save(rec *UserRecord) error {
	const op = "userstore.Save"

	if rec == nil {
		return ErrNilRecord
	}
	if rec.Name == "" {
		return ErrEmptyName
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	data, err := s.serializer.Serialize(rec)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, rec.ID+RecordExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%s: write %s: %w", op, path, err)
	}
	return nil
}

// Load reads one record by id.
func (s *Store) Load(id string) (*UserRecord, error) {
	const op = "userstore.Load"

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.dir, id+RecordExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("%s: read %s: %w", op, path, err)
	}

	var rec UserRecord
	if err := s.serializer.Deserialize(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", op, path, err)
	}
	return &rec, nil
}

// ListAll scans the data directory and returns every record keyed by id.
// Files with a foreign extension are skipped; a corrupt record fails the
// whole scan.
func (s *Store) ListAll() (map[string]*UserRecord, error) {
	const op = "userstore.ListAll"

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%s: read dir %s: %w", op, s.dir, err)
	}

	records := make(map[string]*UserRecord)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != RecordExt {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", op, entry.Name(), err)
		}

		var rec UserRecord
		if err := s.serializer.Deserialize(data, &rec); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", op, entry.Name(), err)
		}
		records[rec.ID] = &rec
	}
	return records, nil
}

// FindByEmail returns the first record with the given email.
func (s *Store) FindByEmail(email string) (*UserRecord, error) {
	const op = "userstore.FindByEmail"

	records, err := s.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, rec := range records {
		if rec.Email == email {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%s: %w: %s", op, ErrUserNotFound, email)
}

// Delete removes one record file; missing records are not an error.
func (s *Store) Delete(id string) error {
	const op = "userstore.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, id+RecordExt))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
