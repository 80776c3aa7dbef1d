package ledger

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/engine"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func idAt(t *testing.T, ts time.Time) ksuid.KSUID {
	t.Helper()
	id, err := ksuid.NewRandomWithTime(ts)
	require.NoError(t, err)
	return id
}

func TestNewRunRecord(t *testing.T) {
	id := ksuid.New()
	res := &engine.Result{
		RunID: id,
		Seed:  4242,
		Order: []string{"airline names", "plane data"},
		Changes: []engine.Change{
			{Family: "airline names", Index: 0, Attr: "name", Old: codec.TextValue("GP-ANDO"), New: codec.TextValue("SKYBIRD")},
			{Family: "plane data", Index: 3, Attr: "price", Old: codec.IntValue(100), New: codec.IntValue(120)},
		},
	}

	rec := NewRunRecord(res, map[string]bool{"data": true})
	assert.Equal(t, id.String(), rec.ID)
	assert.Equal(t, int64(4242), rec.Seed)
	assert.Equal(t, res.Order, rec.Order)
	assert.True(t, rec.Flags["data"])
	require.Len(t, rec.Changes, 2)
	assert.Equal(t, ChangeRecord{Family: "plane data", Index: 3, Attr: "price", Old: "100", New: "120"}, rec.Changes[1])
	assert.Equal(t, "airline names", rec.Changes[0].Family)
}

func TestLedger_SaveGet(t *testing.T) {
	l := openLedger(t)

	id := ksuid.New()
	rec := RunRecord{
		ID:        id.String(),
		CreatedAt: id.Time().UTC(),
		Seed:      7,
		Flags:     map[string]bool{"names": true},
		Order:     []string{"A"},
		Changes:   []ChangeRecord{{Family: "A", Index: 1, Attr: "v", Old: "1", New: "2"}},
	}
	require.NoError(t, l.Save(rec))

	got, err := l.Get(id)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, *got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	_, err = l.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, l.Delete(id))
	_, err = l.Get(id)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, l.Delete(id), ErrRunNotFound)
}

func TestLedger_SaveInvalidID(t *testing.T) {
	l := openLedger(t)
	err := l.Save(RunRecord{ID: "not-a-ksuid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
}

func TestLedger_ListOldestFirst(t *testing.T) {
	l := openLedger(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := []ksuid.KSUID{
		idAt(t, base.Add(2*time.Hour)),
		idAt(t, base),
		idAt(t, base.Add(time.Hour)),
	}
	for i, id := range ids {
		require.NoError(t, l.Save(RunRecord{ID: id.String(), Seed: int64(i)}))
	}

	runs, err := l.List()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{1, 2, 0}, []int64{runs[0].Seed, runs[1].Seed, runs[2].Seed})
}

func TestLedger_Reopen(t *testing.T) {
	dir := t.TempDir()
	id := ksuid.New()

	l, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, l.Save(RunRecord{ID: id.String(), Seed: 99}))
	require.NoError(t, l.Close())

	l, err = Open(dir)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Seed)
}
