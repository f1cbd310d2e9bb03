package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/google/uuid"
)

// MemoryRepository implements EstimateRepository with an in-process map.
// Results are session-scoped and intentionally not persisted: a restart
// clears every active countdown.
type MemoryRepository struct {
	mu        sync.RWMutex
	estimates map[uuid.UUID]*domain.EstimationResult
}

// NewMemoryRepository creates an empty in-memory estimate store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		estimates: make(map[uuid.UUID]*domain.EstimationResult),
	}
}

// Save stores a result. Results are write-once: overwriting an existing
// estimate ID is a programming error and is rejected.
func (r *MemoryRepository) Save(ctx context.Context, result *domain.EstimationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.estimates[result.ID]; exists {
		return fmt.Errorf("estimate %s already stored", result.ID)
	}
	r.estimates[result.ID] = result
	return nil
}

// Get retrieves a stored result
func (r *MemoryRepository) Get(ctx context.Context, estimateID uuid.UUID) (*domain.EstimationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.estimates[estimateID]
	if !ok {
		return nil, ports.ErrEstimateNotFound
	}
	return result, nil
}

// Delete discards a stored result
func (r *MemoryRepository) Delete(ctx context.Context, estimateID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.estimates[estimateID]; !ok {
		return ports.ErrEstimateNotFound
	}
	delete(r.estimates, estimateID)
	return nil
}

// Len returns the number of active estimates
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.estimates)
}

// Ensure MemoryRepository implements the interface
var _ ports.EstimateRepository = (*MemoryRepository)(nil)
