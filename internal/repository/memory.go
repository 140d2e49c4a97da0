package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/complaint-tracker/internal/model"
)

// MemoryUserRepo keeps users in process memory.  It is used by tests and by
// STORE_DRIVER=memory for local runs; data is lost on restart.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: map[string]model.User{}, byEmail: map[string]string{}}
}

// Create enforces email uniqueness under the write lock, which makes it the
// real guard against concurrent duplicate registrations for this backend.
func (r *MemoryUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailExists
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (model.User, error) {
	if !canonicalUUID(id) {
		return model.User{}, ErrInvalidID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

type memoryComplaint struct {
	model.Complaint
	seq uint64
}

// MemoryComplaintRepo keeps complaints in process memory.  Owner
// projections for admin listings are resolved through Users.
type MemoryComplaintRepo struct {
	Users *MemoryUserRepo

	mu    sync.RWMutex
	items map[string]*memoryComplaint
	seq   uint64
}

func NewMemoryComplaintRepo(users *MemoryUserRepo) *MemoryComplaintRepo {
	return &MemoryComplaintRepo{Users: users, items: map[string]*memoryComplaint{}}
}

func (r *MemoryComplaintRepo) ValidID(id string) bool {
	return canonicalUUID(id)
}

// canonicalUUID accepts only the hyphenated lower-case form the store
// issues, not the braced, urn or bare-hex variants uuid.Parse allows.
func canonicalUUID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

func (r *MemoryComplaintRepo) Create(_ context.Context, c *model.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.seq++
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Owner = nil
	r.items[c.ID] = &memoryComplaint{Complaint: stored, seq: r.seq}
	return nil
}

func (r *MemoryComplaintRepo) GetByID(_ context.Context, id string) (model.Complaint, error) {
	if !r.ValidID(id) {
		return model.Complaint{}, ErrInvalidID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return model.Complaint{}, ErrNotFound
	}
	return it.Complaint, nil
}

// sorted returns the items matching keep, newest first.  Ties on CreatedAt
// are broken by insertion order.
func (r *MemoryComplaintRepo) sorted(keep func(*memoryComplaint) bool) []*memoryComplaint {
	out := make([]*memoryComplaint, 0, len(r.items))
	for _, it := range r.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func (r *MemoryComplaintRepo) ListAll(ctx context.Context, offset, limit int) ([]model.Complaint, int, error) {
	r.mu.RLock()
	all := r.sorted(func(*memoryComplaint) bool { return true })
	page := []model.Complaint{}
	for i := offset; i < len(all) && len(page) < limit; i++ {
		page = append(page, all[i].Complaint)
	}
	r.mu.RUnlock()

	for i := range page {
		c := &page[i]
		if r.Users != nil {
			if u, err := r.Users.GetByID(ctx, c.CreatedBy); err == nil {
				c.Owner = &model.Owner{Name: u.Name, Email: u.Email}
			}
		}
	}
	return page, len(all), nil
}

func (r *MemoryComplaintRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Complaint{}
	for _, it := range r.sorted(func(it *memoryComplaint) bool { return it.CreatedBy == ownerID }) {
		out = append(out, it.Complaint)
	}
	return out, nil
}

func (r *MemoryComplaintRepo) UpdateStatus(_ context.Context, id string, status model.Status) (model.Complaint, error) {
	if !r.ValidID(id) {
		return model.Complaint{}, ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return model.Complaint{}, ErrNotFound
	}
	it.Status = status
	it.UpdatedAt = time.Now().UTC()
	return it.Complaint, nil
}
