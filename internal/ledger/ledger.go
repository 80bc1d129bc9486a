// Package ledger holds the persisted submission records and the cooldown
// duplicate guard. All mutations are serialized through a single logical
// writer: the Ledger wraps every read-modify-write of the full record set
// in one mutex, and store backends additionally serialize at their own
// level (file rewrite, Redis WATCH transaction, Postgres table lock).
// Reads may observe a slightly stale record set; with a cooldown measured
// in days that staleness is immaterial to the business rule.
package ledger

import (
	"context"
	"sync"
	"time"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

// CooldownDays is the waiting period before an applicant may resubmit.
const CooldownDays = 7

// Store persists the ordered submission record set. Load is a snapshot
// read; Update applies mutate to the current set and persists the result
// atomically with respect to other Updates on the same store.
type Store interface {
	Load(ctx context.Context) ([]models.SubmissionRecord, error)
	Update(ctx context.Context, mutate func([]models.SubmissionRecord) ([]models.SubmissionRecord, error)) error
}

// UpsertResult reports a completed ledger write.
type UpsertResult struct {
	Saved bool   `json:"saved"`
	Key   string `json:"key"`
}

type Ledger struct {
	store  Store
	logger logger.Logger
	now    func() time.Time

	// mu enforces the single-writer discipline across concurrent runs.
	mu sync.Mutex
}

func New(store Store, log logger.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "ledger"}),
		now:    time.Now,
	}
}

// Upsert records the decision for an application. Scanning newest-first, a
// matching record older than the cooldown window is replaced in place;
// otherwise a new record is appended. Upsert does not re-check the cooldown:
// the duplicate guard must have short-circuited the run before this point.
func (l *Ledger) Upsert(ctx context.Context, app models.Application, decision models.Decision) (*UpsertResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := app.Key()
	record := models.NewSubmissionRecord(app, decision, l.now().UTC())

	err := l.store.Update(ctx, func(records []models.SubmissionRecord) ([]models.SubmissionRecord, error) {
		for i := len(records) - 1; i >= 0; i-- {
			if records[i].Key() == key && records[i].AgeDays(l.now()) >= CooldownDays {
				records[i] = record
				return records, nil
			}
		}
		return append(records, record), nil
	})
	if err != nil {
		return nil, stderrors.NewLedgerWriteFailedError(err)
	}

	l.logger.Info("submission saved", map[string]interface{}{
		"key":      key,
		"decision": string(decision),
	})
	return &UpsertResult{Saved: true, Key: key}, nil
}

// UpdateContact sets the contact preference on the newest record for the
// email. Returns false when no record exists for the key.
func (l *Ledger) UpdateContact(ctx context.Context, email string, preference bool) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := (models.SubmissionRecord{Email: email}).Key()
	updated := false

	err := l.store.Update(ctx, func(records []models.SubmissionRecord) ([]models.SubmissionRecord, error) {
		for i := len(records) - 1; i >= 0; i-- {
			if records[i].Key() == key {
				ts := l.now().UTC()
				records[i].ContactRequested = &preference
				records[i].ContactTimestamp = &ts
				updated = true
				break
			}
		}
		return records, nil
	})
	if err != nil {
		return false, stderrors.NewContactUpdateFailedError(err)
	}
	return updated, nil
}

// Records returns a snapshot of the full record set. It does not take the
// writer mutex; callers tolerate the documented staleness.
func (l *Ledger) Records(ctx context.Context) ([]models.SubmissionRecord, error) {
	records, err := l.store.Load(ctx)
	if err != nil {
		return nil, stderrors.NewLedgerReadFailedError(err)
	}
	return records, nil
}
