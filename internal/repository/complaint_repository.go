package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iliyamo/complaint-tracker/internal/model"
)

// ComplaintRepo is the MySQL complaint store backed by the 'complaints'
// table.  complaints.created_by references users.id.
type ComplaintRepo struct{ DB *sql.DB }

func NewComplaintRepo(db *sql.DB) *ComplaintRepo { return &ComplaintRepo{DB: db} }

const complaintColumns = "c.id, c.title, c.description, c.category, c.status, c.created_by, c.created_at, c.updated_at"

// ValidID accepts positive decimal identifiers.
func (r *ComplaintRepo) ValidID(id string) bool {
	_, ok := parseSQLID(id)
	return ok
}

// Create inserts the complaint and fills its ID and timestamps.
func (r *ComplaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	owner, ok := parseSQLID(c.CreatedBy)
	if !ok {
		return ErrInvalidID
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO complaints (title, description, category, status, created_by, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		c.Title, c.Description, string(c.Category), string(c.Status), owner, now, now)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// GetByID returns one complaint.
func (r *ComplaintRepo) GetByID(ctx context.Context, id string) (model.Complaint, error) {
	n, ok := parseSQLID(id)
	if !ok {
		return model.Complaint{}, ErrInvalidID
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+complaintColumns+" FROM complaints c WHERE c.id=? LIMIT 1", n)
	c, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Complaint{}, ErrNotFound
		}
		return model.Complaint{}, fmt.Errorf("select complaint: %w", err)
	}
	return c, nil
}

// ListAll returns one page ordered by creation time descending, joined with
// the owner's name and email.
func (r *ComplaintRepo) ListAll(ctx context.Context, offset, limit int) ([]model.Complaint, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM complaints").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+complaintColumns+", u.name, u.email FROM complaints c JOIN users u ON u.id = c.created_by "+
			"ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	out := make([]model.Complaint, 0, limit)
	for rows.Next() {
		var (
			c     model.Complaint
			owner model.Owner
		)
		if err := scanInto(rows, &c, &owner.Name, &owner.Email); err != nil {
			return nil, 0, fmt.Errorf("scan complaint: %w", err)
		}
		c.Owner = &owner
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	return out, total, nil
}

// ListByOwner returns every complaint of ownerID, newest first.
func (r *ComplaintRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Complaint, error) {
	owner, ok := parseSQLID(ownerID)
	if !ok {
		return []model.Complaint{}, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+complaintColumns+" FROM complaints c WHERE c.created_by=? ORDER BY c.created_at DESC, c.id DESC",
		owner)
	if err != nil {
		return nil, fmt.Errorf("list owner complaints: %w", err)
	}
	defer rows.Close()

	out := []model.Complaint{}
	for rows.Next() {
		var c model.Complaint
		if err := scanInto(rows, &c); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list owner complaints: %w", err)
	}
	return out, nil
}

// UpdateStatus overwrites the status and reloads the row.  Concurrent
// updates are last-write-wins; there is no version column.
func (r *ComplaintRepo) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Complaint, error) {
	n, ok := parseSQLID(id)
	if !ok {
		return model.Complaint{}, ErrInvalidID
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE complaints SET status=?, updated_at=? WHERE id=?",
		string(status), now, n); err != nil {
		return model.Complaint{}, fmt.Errorf("update complaint status: %w", err)
	}
	// RowsAffected is 0 both for a missing row and for an unchanged status,
	// so existence is decided by the reload.
	return r.GetByID(ctx, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComplaint(s scanner) (model.Complaint, error) {
	var c model.Complaint
	err := scanInto(s, &c)
	return c, err
}

func scanInto(s scanner, c *model.Complaint, extra ...any) error {
	var (
		id, owner        uint64
		category, status string
	)
	dest := append([]any{&id, &c.Title, &c.Description, &category, &status, &owner, &c.CreatedAt, &c.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	c.ID = strconv.FormatUint(id, 10)
	c.CreatedBy = strconv.FormatUint(owner, 10)
	c.Category = model.Category(category)
	c.Status = model.Status(status)
	return nil
}
