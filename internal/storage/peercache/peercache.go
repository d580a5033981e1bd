package peercache

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	PeersBucket = "peers"
)

// Record is one last-seen peer observation, keyed by token.
type Record struct {
	Token    string
	Endpoint string
	LastSeen time.Time
}

// Cache persists last-seen peers across restarts for diagnostics.
type Cache struct {
	db         *bbolt.DB
	mu         sync.RWMutex
	serializer Serializer
}

type Config struct {
	Path       string
	FileMode   os.FileMode
	Options    *bbolt.Options
	Serializer Serializer
}

func New(cfg Config) (*Cache, error) {
	if cfg.Serializer == nil {
		cfg.Serializer = &GobSerializer{}
	}

	if cfg.FileMode == 0 {
		cfg.FileMode = 0666
	}

	db, err := bbolt.Open(cfg.Path, cfg.FileMode, cfg.Options)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(PeersBucket))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize peer cache: %w", err)
	}

	return &Cache{
		db:         db,
		serializer: cfg.Serializer,
	}, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return ErrNilDB
	}
	return c.db.Close()
}

// Put stores or refreshes a peer observation. Satisfies the discovery
// loop's PeerCache interface.
func (c *Cache) Put(token, endpoint string, seen time.Time) error {
	if token == "" {
		return ErrEmptyToken
	}

	data, err := c.serializer.Serialize(&Record{
		Token:    token,
		Endpoint: endpoint,
		LastSeen: seen,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(PeersBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(token), data)
	})
}

// Get loads one peer observation by token.
func (c *Cache) Get(token string) (*Record, error) {
	var rec Record

	c.mu.RLock()
	defer c.mu.RUnlock()

	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(PeersBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		data := bucket.Get([]byte(token))
		if data == nil {
			return ErrPeerNotFound
		}

		return c.serializer.Deserialize(data, &rec)
	})

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// All returns every cached peer observation.
func (c *Cache) All() ([]*Record, error) {
	var records []*Record

	c.mu.RLock()
	defer c.mu.RUnlock()

	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(PeersBucket))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var rec Record
			if err := c.serializer.Deserialize(v, &rec); err != nil {
				return err
			}
			records = append(records, &rec)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes one cached peer.
func (c *Cache) Delete(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(PeersBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(token))
	})
}
