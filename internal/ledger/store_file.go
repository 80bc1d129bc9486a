package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"loanflow/internal/models"
)

// FileStore keeps the record set as an ordered JSON array in a single file,
// the engine's default zero-infrastructure backend. Writes go through a
// temp file and rename so a crash never leaves a torn record set.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) ([]models.SubmissionRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read submissions file: %w", err)
	}
	var records []models.SubmissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode submissions file: %w", err)
	}
	return records, nil
}

func (s *FileStore) Update(ctx context.Context, mutate func([]models.SubmissionRecord) ([]models.SubmissionRecord, error)) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}

	records, err = mutate(records)
	if err != nil {
		return err
	}
	if records == nil {
		records = []models.SubmissionRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submissions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".submissions-*.json")
	if err != nil {
		return fmt.Errorf("create temp submissions file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write submissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close submissions file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace submissions file: %w", err)
	}
	return nil
}
