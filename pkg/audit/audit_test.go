package audit

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit/internal/store/memory"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/logging"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
)

var (
	ana = masterdata.Identity{Name: "Ana", Email: "ana@undp.org", Agency: "UNDP"}
	ts  = time.Date(2025, 11, 3, 14, 5, 9, 0, time.UTC)
)

func TestAppend(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.SetSheet(masterdata.AuditSheet, [][]string{Header})

	changes := []reconcile.Change{
		{Ordinal: 3, Timestamp: ts, Action: reconcile.ActionEdited},
		{Ordinal: 7, Timestamp: ts, Action: reconcile.ActionPartiallyEdited},
	}
	require.NoError(t, NewLogger().Append(ctx, ana, changes, store))

	appends := store.CallsOf(memory.OpAppend)
	require.Len(t, appends, 2)
	assert.Equal(t, []string{"Ana", "ana@undp.org", "UNDP", "3", "2025-11-03 14:05:09", "Row edited"}, appends[0].Values)
	assert.Empty(t, store.CallsOf(memory.OpUpdate), "audit log is append-only")

	records, err := ReadLog(ctx, store)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 7, records[1].RowIndex)
	assert.Equal(t, reconcile.ActionPartiallyEdited, records[1].Action)
	require.NotNil(t, records[0].Timestamp)
	assert.Equal(t, ts, *records[0].Timestamp)
}

func TestAppendNoChanges(t *testing.T) {
	store := memory.New()
	require.NoError(t, NewLogger().Append(context.Background(), ana, nil, store))
	assert.Empty(t, store.Calls())
}

func TestAppendMissingSheetFailsLoudly(t *testing.T) {
	store := memory.New()
	tl := logging.NewTestLogger(t)

	changes := []reconcile.Change{
		{Ordinal: 1, Timestamp: ts, Action: reconcile.ActionEdited},
		{Ordinal: 2, Timestamp: ts, Action: reconcile.ActionEdited},
	}
	err := NewLogger().WithLogger(tl.Logger).Append(context.Background(), ana, changes, store)
	require.Error(t, err)
	assert.True(t, errors.IsAuditAppend(err))
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsPartialWrite(err))

	failures := Failures(err)
	require.Len(t, failures, 2)
	assert.Equal(t, 1, failures[0].Ordinal)
	assert.Equal(t, 2, failures[1].Ordinal)
	assert.True(t, tl.Contains("Audit record not appended"))
}

func TestAppendContinuesAfterFailure(t *testing.T) {
	store := memory.New()
	store.SetSheet(masterdata.AuditSheet, [][]string{Header})
	first := true
	store.FailWhen(func(c memory.Call) error {
		if c.Op == memory.OpAppend && first {
			first = false
			return stderrors.New("rate limited")
		}
		return nil
	})

	changes := []reconcile.Change{
		{Ordinal: 1, Timestamp: ts, Action: reconcile.ActionEdited},
		{Ordinal: 2, Timestamp: ts, Action: reconcile.ActionEdited},
	}
	err := NewLogger().WithLogger(logging.NewNopLogger()).Append(context.Background(), ana, changes, store)
	require.Len(t, Failures(err), 1)
	assert.Equal(t, "2", store.Cell(masterdata.AuditSheet, 2, 4))
}

func TestReadLogMissingSheetIsEmpty(t *testing.T) {
	records, err := ReadLog(context.Background(), memory.New())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestReadLogStoreFailure(t *testing.T) {
	store := memory.New()
	store.SetSheet(masterdata.AuditSheet, [][]string{Header})
	store.FailWhen(func(memory.Call) error {
		return errors.NewStoreError("read", masterdata.AuditSheet, stderrors.New("timeout"))
	})
	_, err := ReadLog(context.Background(), store)
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestDecode(t *testing.T) {
	records := Decode([][]string{
		Header,
		{"Ana", "ana@undp.org", "UNDP", "3", "2025-11-03 14:05:09", "Row edited"},
		{"", "", ""},
		{"Bo", "bo@wfp.org", "WFP", "x", "yesterday"},
	})
	require.Len(t, records, 2)
	assert.Equal(t, -1, records[1].RowIndex)
	assert.Nil(t, records[1].Timestamp)
	assert.Equal(t, "", records[1].Action)

	assert.Equal(t, Header, Encode(records)[0])
	assert.Equal(t, "Bo", Encode(records)[2][0])
	assert.Nil(t, Failures(nil))
}
