package repository

import (
	"context"

	"github.com/iliyamo/complaint-tracker/internal/model"
)

// UserStore is the credential store.
type UserStore interface {
	// Create inserts u, fills its ID and timestamps, and returns
	// ErrEmailExists on a unique violation.
	Create(ctx context.Context, u *model.User) error
	// GetByEmail looks up a normalized email; ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// GetByID returns ErrInvalidID for malformed ids and ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (model.User, error)
}

// ComplaintStore persists complaints.
type ComplaintStore interface {
	// ValidID reports whether id has the shape this backend generates.
	ValidID(id string) bool
	// Create inserts c and fills its ID and timestamps.
	Create(ctx context.Context, c *model.Complaint) error
	GetByID(ctx context.Context, id string) (model.Complaint, error)
	// ListAll returns one page, newest first, with owner projections and the
	// total number of complaints.
	ListAll(ctx context.Context, offset, limit int) ([]model.Complaint, int, error)
	// ListByOwner returns every complaint created by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Complaint, error)
	// UpdateStatus overwrites the status (last write wins) and returns the
	// stored record; ErrNotFound when absent.
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Complaint, error)
}

var (
	_ UserStore      = (*UserRepo)(nil)
	_ UserStore      = (*MongoUserRepo)(nil)
	_ UserStore      = (*MemoryUserRepo)(nil)
	_ ComplaintStore = (*ComplaintRepo)(nil)
	_ ComplaintStore = (*MongoComplaintRepo)(nil)
	_ ComplaintStore = (*MemoryComplaintRepo)(nil)
)
