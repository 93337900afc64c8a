package clients

import (
	"context"
	"sort"
	"sync"

	"github.com/udistrital/marketplace_mid/models"
)

// MemoryStore implementa EntityStore en memoria; usado en desarrollo y pruebas.
type MemoryStore struct {
	mu           sync.RWMutex
	postings     map[string]models.Posting
	proposals    map[string]models.Proposal
	deliverables map[string]models.Deliverable
	history      map[string][]models.StatusChange
}

var _ EntityStore = (*MemoryStore)(nil)

// NewMemoryStore crea un almacén vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		postings:     make(map[string]models.Posting),
		proposals:    make(map[string]models.Proposal),
		deliverables: make(map[string]models.Deliverable),
		history:      make(map[string][]models.StatusChange),
	}
}

func (s *MemoryStore) GetPosting(ctx context.Context, id string) (*models.Posting, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.postings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) CreatePosting(ctx context.Context, p *models.Posting) (*models.Posting, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.postings[p.Id]; exists {
		return nil, ErrDuplicate
	}
	rec := *p
	rec.Revision = 1
	s.postings[rec.Id] = rec
	return &rec, nil
}

func (s *MemoryStore) UpdatePosting(ctx context.Context, p *models.Posting, expectedRevision int64) (*models.Posting, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.postings[p.Id]
	if !ok {
		return nil, ErrNotFound
	}
	if current.Revision != expectedRevision {
		return nil, ErrConflict
	}
	rec := *p
	rec.Revision = expectedRevision + 1
	s.postings[rec.Id] = rec
	return &rec, nil
}

func (s *MemoryStore) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) CreateProposal(ctx context.Context, p *models.Proposal) (*models.Proposal, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[p.Id]; exists {
		return nil, ErrDuplicate
	}
	for _, other := range s.proposals {
		if other.PostingId == p.PostingId && other.WorkerId == p.WorkerId {
			return nil, ErrDuplicate
		}
	}
	rec := *p
	rec.Revision = 1
	s.proposals[rec.Id] = rec
	return &rec, nil
}

func (s *MemoryStore) UpdateProposal(ctx context.Context, p *models.Proposal, expectedRevision int64) (*models.Proposal, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.proposals[p.Id]
	if !ok {
		return nil, ErrNotFound
	}
	if current.Revision != expectedRevision {
		return nil, ErrConflict
	}
	rec := *p
	rec.Revision = expectedRevision + 1
	s.proposals[rec.Id] = rec
	return &rec, nil
}

func (s *MemoryStore) ListProposals(ctx context.Context, filter ProposalFilter) ([]models.Proposal, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Proposal, 0)
	for _, p := range s.proposals {
		if filter.PostingId != "" && p.PostingId != filter.PostingId {
			continue
		}
		if filter.WorkerId != "" && p.WorkerId != filter.WorkerId {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetDeliverable(ctx context.Context, id string) (*models.Deliverable, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliverables[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryStore) CreateDeliverable(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.deliverables[d.Id]; exists {
		return nil, ErrDuplicate
	}
	for _, other := range s.deliverables {
		if other.PostingId == d.PostingId && other.Version == d.Version {
			return nil, ErrDuplicate
		}
	}
	rec := *d
	rec.Revision = 1
	s.deliverables[rec.Id] = rec
	return &rec, nil
}

func (s *MemoryStore) UpdateDeliverable(ctx context.Context, d *models.Deliverable, expectedRevision int64) (*models.Deliverable, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.deliverables[d.Id]
	if !ok {
		return nil, ErrNotFound
	}
	if current.Revision != expectedRevision {
		return nil, ErrConflict
	}
	rec := *d
	rec.Revision = expectedRevision + 1
	s.deliverables[rec.Id] = rec
	return &rec, nil
}

func (s *MemoryStore) DeleteDeliverable(ctx context.Context, id string, expectedRevision int64) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.deliverables[id]
	if !ok {
		return ErrNotFound
	}
	if current.Revision != expectedRevision {
		return ErrConflict
	}
	delete(s.deliverables, id)
	return nil
}

func (s *MemoryStore) ListDeliverables(ctx context.Context, postingID string) ([]models.Deliverable, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Deliverable, 0)
	for _, d := range s.deliverables {
		if d.PostingId == postingID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *MemoryStore) MaxDeliverableVersion(ctx context.Context, postingID string) (int, bool, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	max, found := 0, false
	for _, d := range s.deliverables {
		if d.PostingId == postingID && d.Version > max {
			max, found = d.Version, true
		}
	}
	return max, found, nil
}

func (s *MemoryStore) AddStatusChange(ctx context.Context, change *models.StatusChange) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[change.PostingId] = append(s.history[change.PostingId], *change)
	return nil
}

func (s *MemoryStore) ListStatusChanges(ctx context.Context, postingID string) ([]models.StatusChange, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[postingID]
	out := make([]models.StatusChange, len(entries))
	copy(out, entries)
	return out, nil
}
