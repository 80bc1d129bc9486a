package ledger

import (
	"context"
	"strings"
	"time"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

// DuplicateCheck is the cooldown verdict for an applicant key.
type DuplicateCheck struct {
	IsDuplicate   bool                     `json:"is_duplicate"`
	DaysRemaining int                      `json:"days_remaining,omitempty"`
	Existing      *models.SubmissionRecord `json:"existing_submission,omitempty"`
}

// DuplicateGuard derives a cooldown verdict from the ledger. It reads
// without the writer mutex; the check and a later upsert are deliberately
// not atomic with each other.
type DuplicateGuard struct {
	store Store
	now   func() time.Time
}

func NewDuplicateGuard(store Store) *DuplicateGuard {
	return &DuplicateGuard{store: store, now: time.Now}
}

// Check scans newest-first for a record matching email. The most recent
// match decides: younger than the cooldown window means duplicate, with the
// whole days remaining until resubmission is allowed.
func (g *DuplicateGuard) Check(ctx context.Context, email string) (*DuplicateCheck, error) {
	records, err := g.store.Load(ctx)
	if err != nil {
		return nil, stderrors.NewDuplicateCheckFailedError(err)
	}

	key := strings.ToLower(email)
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Key() != key {
			continue
		}
		ageDays := records[i].AgeDays(g.now())
		if ageDays < CooldownDays {
			existing := records[i]
			return &DuplicateCheck{
				IsDuplicate:   true,
				DaysRemaining: CooldownDays - ageDays,
				Existing:      &existing,
			}, nil
		}
		break
	}
	return &DuplicateCheck{IsDuplicate: false}, nil
}
