package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

func testApplication(email string) models.Application {
	return models.Application{
		Name:          "John Doe",
		Email:         email,
		LoanAmount:    50000,
		CreditScore:   750,
		AnnualIncome:  150000,
		HasBankruptcy: false,
	}
}

func newFileLedger(t *testing.T) (*Ledger, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "submissions.json"))
	return New(store, logger.NewTestLogger(t)), store
}

func recordsFor(t *testing.T, store Store, email string) []models.SubmissionRecord {
	t.Helper()
	all, err := store.Load(context.Background())
	require.NoError(t, err)
	var out []models.SubmissionRecord
	for _, r := range all {
		if r.Key() == email {
			out = append(out, r)
		}
	}
	return out
}

func TestLedger_UpsertAppendsNewRecord(t *testing.T) {
	l, store := newFileLedger(t)

	res, err := l.Upsert(context.Background(), testApplication("John@Example.com"), models.DecisionPreApproved)
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, "john@example.com", res.Key)

	records := recordsFor(t, store, "john@example.com")
	require.Len(t, records, 1)
	assert.Equal(t, "John@Example.com", records[0].Email, "original casing preserved for display")
	assert.Equal(t, models.DecisionPreApproved, records[0].Decision)
	assert.Nil(t, records[0].ContactRequested)
}

func TestLedger_UpsertReplacesStaleRecordInPlace(t *testing.T) {
	l, store := newFileLedger(t)

	base := time.Now().UTC()
	l.now = func() time.Time { return base.Add(-8 * 24 * time.Hour) }
	_, err := l.Upsert(context.Background(), testApplication("jane@example.com"), models.DecisionDenied)
	require.NoError(t, err)

	l.now = func() time.Time { return base }
	_, err = l.Upsert(context.Background(), testApplication("jane@example.com"), models.DecisionConditional)
	require.NoError(t, err)

	records := recordsFor(t, store, "jane@example.com")
	require.Len(t, records, 1, "stale record must be replaced, not appended")
	assert.Equal(t, models.DecisionConditional, records[0].Decision)
}

func TestLedger_UpsertKeyInvariantOverRepeatedCycles(t *testing.T) {
	l, store := newFileLedger(t)

	base := time.Now().UTC().Add(-60 * 24 * time.Hour)
	for i := 0; i < 5; i++ {
		offset := time.Duration(i) * 10 * 24 * time.Hour
		l.now = func() time.Time { return base.Add(offset) }
		_, err := l.Upsert(context.Background(), testApplication("repeat@example.com"), models.DecisionDenied)
		require.NoError(t, err)

		records := recordsFor(t, store, "repeat@example.com")
		assert.Len(t, records, 1, "upsert cycle %d must keep a single record per key", i)
	}
}

func TestLedger_UpsertFreshRecordForDifferentKeyAppends(t *testing.T) {
	l, store := newFileLedger(t)

	_, err := l.Upsert(context.Background(), testApplication("a@example.com"), models.DecisionDenied)
	require.NoError(t, err)
	_, err = l.Upsert(context.Background(), testApplication("b@example.com"), models.DecisionPreApproved)
	require.NoError(t, err)

	all, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLedger_UpdateContactMarksNewestRecordOnly(t *testing.T) {
	l, store := newFileLedger(t)

	base := time.Now().UTC()
	l.now = func() time.Time { return base.Add(-10 * 24 * time.Hour) }
	_, err := l.Upsert(context.Background(), testApplication("multi@example.com"), models.DecisionDenied)
	require.NoError(t, err)

	// Force a second record for the same key (legacy shape the guard must
	// tolerate): append fresh without replacement by using a non-stale scan.
	l.now = func() time.Time { return base.Add(-6 * 24 * time.Hour) }
	_, err = l.Upsert(context.Background(), testApplication("multi@example.com"), models.DecisionConditional)
	require.NoError(t, err)

	updated, err := l.UpdateContact(context.Background(), "MULTI@example.com", true)
	require.NoError(t, err)
	assert.True(t, updated)

	records := recordsFor(t, store, "multi@example.com")
	require.Len(t, records, 2)
	assert.Nil(t, records[0].ContactRequested, "older record untouched")
	require.NotNil(t, records[1].ContactRequested)
	assert.True(t, *records[1].ContactRequested)
	assert.NotNil(t, records[1].ContactTimestamp)
}

func TestLedger_UpdateContactUnknownEmail(t *testing.T) {
	l, _ := newFileLedger(t)

	updated, err := l.UpdateContact(context.Background(), "nobody@example.com", false)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestLedger_ConcurrentUpsertsForDifferentKeysLoseNothing(t *testing.T) {
	l, store := newFileLedger(t)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			app := testApplication(fmt.Sprintf("user%d@example.com", i))
			_, err := l.Upsert(context.Background(), app, models.DecisionDenied)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, writers)
}

func TestDuplicateGuard_FreshRecordIsDuplicate(t *testing.T) {
	l, store := newFileLedger(t)
	_, err := l.Upsert(context.Background(), testApplication("dup@example.com"), models.DecisionDenied)
	require.NoError(t, err)

	guard := NewDuplicateGuard(store)
	check, err := guard.Check(context.Background(), "DUP@example.com")
	require.NoError(t, err)

	assert.True(t, check.IsDuplicate)
	assert.Equal(t, 7, check.DaysRemaining)
	require.NotNil(t, check.Existing)
	assert.Equal(t, "dup@example.com", check.Existing.Key())
}

func TestDuplicateGuard_AgedRecordIsNotDuplicate(t *testing.T) {
	l, store := newFileLedger(t)
	l.now = func() time.Time { return time.Now().UTC().Add(-8 * 24 * time.Hour) }
	_, err := l.Upsert(context.Background(), testApplication("aged@example.com"), models.DecisionDenied)
	require.NoError(t, err)

	guard := NewDuplicateGuard(store)
	check, err := guard.Check(context.Background(), "aged@example.com")
	require.NoError(t, err)

	assert.False(t, check.IsDuplicate)
	assert.Nil(t, check.Existing)
}

func TestDuplicateGuard_PartialDaysRemaining(t *testing.T) {
	l, store := newFileLedger(t)
	l.now = func() time.Time { return time.Now().UTC().Add(-5 * 24 * time.Hour) }
	_, err := l.Upsert(context.Background(), testApplication("midway@example.com"), models.DecisionDenied)
	require.NoError(t, err)

	guard := NewDuplicateGuard(store)
	check, err := guard.Check(context.Background(), "midway@example.com")
	require.NoError(t, err)

	assert.True(t, check.IsDuplicate)
	assert.Equal(t, 2, check.DaysRemaining)
}

func TestDuplicateGuard_NoRecordIsNotDuplicate(t *testing.T) {
	_, store := newFileLedger(t)

	guard := NewDuplicateGuard(store)
	check, err := guard.Check(context.Background(), "new@example.com")
	require.NoError(t, err)

	assert.False(t, check.IsDuplicate)
	assert.Zero(t, check.DaysRemaining)
}

func TestDuplicateGuard_NewestMatchDecides(t *testing.T) {
	_, store := newFileLedger(t)

	base := time.Now().UTC()
	err := store.Update(context.Background(), func(records []models.SubmissionRecord) ([]models.SubmissionRecord, error) {
		old := models.NewSubmissionRecord(testApplication("legacy@example.com"), models.DecisionDenied, base.Add(-20*24*time.Hour))
		fresh := models.NewSubmissionRecord(testApplication("legacy@example.com"), models.DecisionConditional, base.Add(-2*24*time.Hour))
		return append(records, old, fresh), nil
	})
	require.NoError(t, err)

	guard := NewDuplicateGuard(store)
	check, err := guard.Check(context.Background(), "legacy@example.com")
	require.NoError(t, err)

	assert.True(t, check.IsDuplicate)
	assert.Equal(t, 5, check.DaysRemaining)
	require.NotNil(t, check.Existing)
	assert.Equal(t, models.DecisionConditional, check.Existing.Decision)
}
