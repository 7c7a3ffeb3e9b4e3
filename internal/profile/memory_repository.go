package profile

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRepository keeps profiles in memory.
type MemoryRepository struct {
	now func() time.Time

	mu       sync.Mutex
	profiles map[string]Profile
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:      time.Now,
		profiles: make(map[string]Profile),
	}
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (r *MemoryRepository) CreateIfAbsent(_ context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[profile.ID]; !ok {
		r.profiles[profile.ID] = *profile
	}
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, id, fullName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[id]
	if !ok {
		return fmt.Errorf("update profile %s: %w", id, ErrProfileNotFound)
	}
	profile.FullName = fullName
	profile.UpdatedAt = r.now()
	r.profiles[id] = profile
	return nil
}
