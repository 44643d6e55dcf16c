package shipments

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "smutrack/internal/errors"
	"smutrack/internal/tracking"
)

// Store is the shipment board.
type Store interface {
	Create(ctx context.Context, d Draft) (*Shipment, error)
	Get(ctx context.Context, id string) (*Shipment, error)
	GetBySMU(ctx context.Context, smu string) (*Shipment, error)
	List(ctx context.Context, f Filter) ([]*Shipment, error)
	Update(ctx context.Context, id string, d Draft) (*Shipment, error)
	Delete(ctx context.Context, id string) error

	MarkChecking(ctx context.Context, smu string, airline tracking.Airline) (*Shipment, error)
	ApplyTracking(ctx context.Context, smu string, res tracking.Result) (*Shipment, error)
	MarkSystemError(ctx context.Context, smu string) (*Shipment, error)
}

// MemoryStore is an in-memory Store. Returned shipments are copies.
type MemoryStore struct {
	mu        sync.RWMutex
	shipments map[string]*Shipment
	bySMU     map[string]string
	now       func() time.Time
}

// NewMemoryStore creates an empty board.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shipments: make(map[string]*Shipment),
		bySMU:     make(map[string]string),
		now:       time.Now,
	}
}

// Create adds a shipment. Its initial status is "still at <origin>".
func (s *MemoryStore) Create(_ context.Context, d Draft) (*Shipment, error) {
	d = d.normalized()
	if err := validateDraft(d); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySMU[d.SMU]; exists {
		return nil, apperrors.NewConflictError(fmt.Sprintf("shipment %s already exists", d.SMU)).
			WithContext("smu", d.SMU)
	}

	now := s.now()
	sh := &Shipment{
		ID:        uuid.NewString(),
		Status:    tracking.StillAt(d.Origin),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyDraft(sh, d)

	s.shipments[sh.ID] = sh
	s.bySMU[sh.SMU] = sh.ID
	return copyOf(sh), nil
}

// Get retrieves a shipment by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shipments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("shipment " + id)
	}
	return copyOf(sh), nil
}

// GetBySMU retrieves a shipment by waybill.
func (s *MemoryStore) GetBySMU(_ context.Context, smu string) (*Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, err := s.lookupSMU(smu)
	if err != nil {
		return nil, err
	}
	return copyOf(sh), nil
}

// List returns matching shipments, oldest first.
func (s *MemoryStore) List(_ context.Context, f Filter) ([]*Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Shipment, 0, len(s.shipments))
	for _, sh := range s.shipments {
		if f.matches(sh) {
			result = append(result, copyOf(sh))
		}
	}

	slices.SortFunc(result, func(a, b *Shipment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SMU, b.SMU)
	})

	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

// Update replaces the editable fields. Tracking fields other than koli are
// left alone.
func (s *MemoryStore) Update(_ context.Context, id string, d Draft) (*Shipment, error) {
	d = d.normalized()
	if err := validateDraft(d); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("shipment " + id)
	}
	if other, taken := s.bySMU[d.SMU]; taken && other != id {
		return nil, apperrors.NewConflictError(fmt.Sprintf("shipment %s already exists", d.SMU)).
			WithContext("smu", d.SMU)
	}

	delete(s.bySMU, sh.SMU)
	applyDraft(sh, d)
	sh.UpdatedAt = s.now()
	s.bySMU[sh.SMU] = sh.ID
	return copyOf(sh), nil
}

// Delete removes a shipment.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[id]
	if !ok {
		return apperrors.NewNotFoundError("shipment " + id)
	}
	delete(s.bySMU, sh.SMU)
	delete(s.shipments, id)
	return nil
}

// MarkChecking sets the interim status shown while tracking runs.
func (s *MemoryStore) MarkChecking(_ context.Context, smu string, airline tracking.Airline) (*Shipment, error) {
	return s.mutateSMU(smu, func(sh *Shipment) {
		sh.Status = tracking.Checking(airline)
	})
}

// ApplyTracking merges a tracking result. The status is always replaced;
// the airport ETA and piece count only when the run resolved them.
func (s *MemoryStore) ApplyTracking(_ context.Context, smu string, res tracking.Result) (*Shipment, error) {
	return s.mutateSMU(smu, func(sh *Shipment) {
		sh.Status = res.Status
		if eta, ok := res.EtaBandara(); ok {
			sh.EtaBandara = eta
		}
		if koli, ok := res.Koli.Value(); ok {
			sh.Koli = koli
		}
		sh.UpdatedAt = s.now()
	})
}

// MarkSystemError stores the status left by an unexpected tracking failure.
func (s *MemoryStore) MarkSystemError(_ context.Context, smu string) (*Shipment, error) {
	return s.mutateSMU(smu, func(sh *Shipment) {
		sh.Status = tracking.StatusSystemError
	})
}

// Stats counts shipments by coarse state.
func (s *MemoryStore) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]int{
		"total":     len(s.shipments),
		"checking":  0,
		"arrived":   0,
		"delivered": 0,
		"failed":    0,
		"with_eta":  0,
	}
	for _, sh := range s.shipments {
		switch {
		case strings.HasPrefix(sh.Status, "checking at "):
			stats["checking"]++
		case strings.HasPrefix(sh.Status, "arrived at "):
			stats["arrived"]++
		case sh.Status == tracking.StatusDelivered:
			stats["delivered"]++
		case sh.Status == tracking.StatusFailed || sh.Status == tracking.StatusSystemError:
			stats["failed"]++
		}
		if sh.EtaBandara != "" {
			stats["with_eta"]++
		}
	}
	return stats
}

func (s *MemoryStore) mutateSMU(smu string, fn func(*Shipment)) (*Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.lookupSMU(smu)
	if err != nil {
		return nil, err
	}
	fn(sh)
	return copyOf(sh), nil
}

func (s *MemoryStore) lookupSMU(smu string) (*Shipment, error) {
	key := strings.ReplaceAll(strings.TrimSpace(smu), " ", "")
	id, ok := s.bySMU[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("shipment with SMU " + key)
	}
	return s.shipments[id], nil
}

func validateDraft(d Draft) error {
	if _, err := tracking.ParseWaybill(d.SMU); err != nil {
		return err
	}
	if _, err := tracking.NewLegTopology(d.Origin, d.Transit, d.Destination); err != nil {
		return err
	}
	if d.Koli < 0 {
		return apperrors.NewAppValidationError("koli must not be negative")
	}
	return nil
}

func applyDraft(sh *Shipment, d Draft) {
	sh.SMU = d.SMU
	sh.CustomerName = d.CustomerName
	sh.Origin = d.Origin
	sh.Transit = d.Transit
	sh.Destination = d.Destination
	sh.Koli = d.Koli
	sh.Notes = d.Notes
}

func copyOf(sh *Shipment) *Shipment {
	c := *sh
	return &c
}
