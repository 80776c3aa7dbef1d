// Package ledger keeps a record of every randomization run: seed, flags,
// family order and each attribute the run changed. Records live in a pebble
// database keyed by run ID.
package ledger

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/aerobonkers/pkg/engine"
)

// ErrRunNotFound is returned when no record exists for a run ID
var ErrRunNotFound = stderrors.New("run not found")

var prefixRun = []byte("run/")

// RunRecord is the stored form of one run
type RunRecord struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Seed      int64           `json:"seed"`
	Flags     map[string]bool `json:"flags"`
	Order     []string        `json:"order"`
	Changes   []ChangeRecord  `json:"changes"`
}

// ChangeRecord is one changed attribute with its values rendered as text
type ChangeRecord struct {
	Family string `json:"family"`
	Index  int    `json:"index"`
	Attr   string `json:"attr"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

// NewRunRecord builds a record from a finished run
func NewRunRecord(res *engine.Result, flags map[string]bool) RunRecord {
	rec := RunRecord{
		ID:        res.RunID.String(),
		CreatedAt: res.RunID.Time().UTC(),
		Seed:      res.Seed,
		Flags:     flags,
		Order:     res.Order,
		Changes:   make([]ChangeRecord, 0, len(res.Changes)),
	}
	for _, c := range res.Changes {
		rec.Changes = append(rec.Changes, ChangeRecord{
			Family: c.Family,
			Index:  c.Index,
			Attr:   c.Attr,
			Old:    c.Old.String(),
			New:    c.New.String(),
		})
	}
	return rec
}

// Ledger stores run records
type Ledger struct {
	db *pebble.DB
}

// Open opens or creates a ledger in dir
func Open(dir string) (*Ledger, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Save writes rec, replacing any record with the same ID
func (l *Ledger) Save(rec RunRecord) error {
	id, err := ksuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", rec.ID, err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := l.db.Set(runKey(id), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record of run id
func (l *Ledger) Get(id ksuid.KSUID) (*RunRecord, error) {
	data, closer, err := l.db.Get(runKey(id))
	if err == pebble.ErrNotFound {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}
	defer closer.Close()

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns every record, oldest first
func (l *Ledger) List() ([]RunRecord, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixRun,
		UpperBound: prefixUpperBound(prefixRun),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}
	defer iter.Close()

	var out []RunRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var rec RunRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", iter.Key(), err)
		}
		out = append(out, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}
	return out, nil
}

// Delete removes the record of run id
func (l *Ledger) Delete(id ksuid.KSUID) error {
	_, closer, err := l.db.Get(runKey(id))
	if err == pebble.ErrNotFound {
		return ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read run %s: %w", id, err)
	}
	closer.Close()

	if err := l.db.Delete(runKey(id), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// runKey sorts by creation time because KSUID strings do
func runKey(id ksuid.KSUID) []byte {
	return append(append([]byte(nil), prefixRun...), id.String()...)
}

func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}
