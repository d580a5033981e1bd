package presence

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Record is one known peer, keyed by its discovery token.
type Record struct {
	Token         string
	DisplayName   string
	Addr          *net.UDPAddr
	LastHeartbeat time.Time
}

func (r Record) Endpoint() string {
	if r.Addr == nil {
		return ""
	}
	return r.Addr.String()
}

// Table is the in-memory registry of currently known peers. The discovery
// loop is the only writer; readers take snapshots.
type Table struct {
	sync.RWMutex
	records map[string]*Record
	created int
}

func NewTable() *Table {
	return &Table{
		records: make(map[string]*Record),
	}
}

// Upsert inserts a record for token or refreshes an existing one. The
// heartbeat never moves backwards.
func (t *Table) Upsert(token string, addr *net.UDPAddr, now time.Time) {
	t.Lock()
	defer t.Unlock()

	rec, found := t.records[token]
	if !found {
		t.created++
		rec = &Record{
			Token:       token,
			DisplayName: fmt.Sprintf("User %d", t.created),
		}
		t.records[token] = rec
	}

	rec.Addr = addr
	if now.After(rec.LastHeartbeat) {
		rec.LastHeartbeat = now
	}
}

// Sweep removes every peer whose heartbeat is older than timeout relative
// to now. Returns the number of evicted records.
func (t *Table) Sweep(now time.Time, timeout time.Duration) int {
	t.Lock()
	defer t.Unlock()

	removed := 0
	for token, rec := range t.records {
		if now.Sub(rec.LastHeartbeat) > timeout {
			delete(t.records, token)
			removed++
		}
	}
	return removed
}

func (t *Table) Get(token string) (Record, bool) {
	t.RLock()
	defer t.RUnlock()

	rec, found := t.records[token]
	if !found {
		return Record{}, false
	}
	return *rec, true
}

// Snapshot returns a consistent copy of the table for display. Callers
// never observe a live record.
func (t *Table) Snapshot() []Record {
	t.RLock()
	defer t.RUnlock()

	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	return out
}

func (t *Table) Len() int {
	t.RLock()
	defer t.RUnlock()

	return len(t.records)
}
