package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"loanflow/internal/models"
)

// PostgresStore keeps the ordered record set in one table. Update performs
// the whole read-modify-write inside a transaction holding an exclusive
// table lock, so cross-process writers are serialized by the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS loan_submissions (
	position        INTEGER PRIMARY KEY,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL,
	loan_amount     DOUBLE PRECISION NOT NULL,
	credit_score    INTEGER NOT NULL,
	annual_income   DOUBLE PRECISION NOT NULL,
	has_bankruptcy  BOOLEAN NOT NULL,
	decision        TEXT NOT NULL,
	contact_requested BOOLEAN,
	submitted_at    TIMESTAMPTZ NOT NULL,
	contact_at      TIMESTAMPTZ
)`

const selectRecords = `SELECT name, email, loan_amount, credit_score, annual_income, has_bankruptcy, decision, contact_requested, submitted_at, contact_at FROM loan_submissions ORDER BY position`

const insertRecord = `INSERT INTO loan_submissions (position, name, email, loan_amount, credit_score, annual_income, has_bankruptcy, decision, contact_requested, submitted_at, contact_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Migrate creates the submissions table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) Load(ctx context.Context) ([]models.SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) Update(ctx context.Context, mutate func([]models.SubmissionRecord) ([]models.SubmissionRecord, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submissions tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE loan_submissions IN ACCESS EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock submissions: %w", err)
	}

	rows, err := tx.QueryContext(ctx, selectRecords)
	if err != nil {
		return fmt.Errorf("select submissions: %w", err)
	}
	records, err := scanRecords(rows)
	rows.Close()
	if err != nil {
		return err
	}

	records, err = mutate(records)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM loan_submissions`); err != nil {
		return fmt.Errorf("clear submissions: %w", err)
	}
	for i, r := range records {
		var contactAt sql.NullTime
		if r.ContactTimestamp != nil {
			contactAt = sql.NullTime{Time: *r.ContactTimestamp, Valid: true}
		}
		var contactRequested sql.NullBool
		if r.ContactRequested != nil {
			contactRequested = sql.NullBool{Bool: *r.ContactRequested, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insertRecord,
			i, r.Name, r.Email, r.LoanAmount, r.CreditScore, r.AnnualIncome,
			r.HasBankruptcy, string(r.Decision), contactRequested, r.Timestamp, contactAt,
		); err != nil {
			return fmt.Errorf("insert submission %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func scanRecords(rows *sql.Rows) ([]models.SubmissionRecord, error) {
	var records []models.SubmissionRecord
	for rows.Next() {
		var r models.SubmissionRecord
		var decision string
		var contactRequested sql.NullBool
		var contactAt sql.NullTime
		if err := rows.Scan(
			&r.Name, &r.Email, &r.LoanAmount, &r.CreditScore, &r.AnnualIncome,
			&r.HasBankruptcy, &decision, &contactRequested, &r.Timestamp, &contactAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		r.Decision = models.Decision(decision)
		if contactRequested.Valid {
			v := contactRequested.Bool
			r.ContactRequested = &v
		}
		if contactAt.Valid {
			t := contactAt.Time
			r.ContactTimestamp = &t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}
