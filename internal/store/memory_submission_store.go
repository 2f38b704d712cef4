package store

import (
	"context"
	"sync"
	"time"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

// MemorySubmissionStore implements SubmissionStore using in-memory storage.
// It is the default backend for development and tests.
type MemorySubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]*models.Submission
}

// NewMemorySubmissionStore creates a new in-memory submission store
func NewMemorySubmissionStore() *MemorySubmissionStore {
	return &MemorySubmissionStore{
		submissions: make(map[string]*models.Submission),
	}
}

func (s *MemorySubmissionStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[sub.ID]; exists {
		return ErrDuplicateSubmission
	}
	s.submissions[sub.ID] = sub.Clone()
	return nil
}

func (s *MemorySubmissionStore) Get(_ context.Context, id string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemorySubmissionStore) SetOutcome(_ context.Context, id string, status models.SubmissionStatus, payload []byte, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return ErrSubmissionNotFound
	}
	if sub.Status != models.StatusPending {
		return ErrNotPending
	}

	sub.Status = status
	sub.VerificationPayload = append([]byte(nil), payload...)
	sub.UpdatedAt = now
	return nil
}

func (s *MemorySubmissionStore) ListUnexported(_ context.Context) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Submission
	for _, sub := range s.submissions {
		if sub.Status == models.StatusApproved && !sub.Exported {
			out = append(out, sub.Clone())
		}
	}
	return out, nil
}

func (s *MemorySubmissionStore) MarkExported(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return ErrSubmissionNotFound
	}
	if sub.Status != models.StatusApproved || sub.Exported {
		return ErrNotExportable
	}

	sub.Exported = true
	exportedAt := at
	sub.ExportedAt = &exportedAt
	sub.UpdatedAt = at
	return nil
}
