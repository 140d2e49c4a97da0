package service

import (
    "context"
    "errors"
    "sync"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/complaint-tracker/internal/apperr"
    "github.com/iliyamo/complaint-tracker/internal/model"
    q "github.com/iliyamo/complaint-tracker/internal/queue"
    "github.com/iliyamo/complaint-tracker/internal/repository"
    "github.com/iliyamo/complaint-tracker/internal/validation"
)

const publishTimeout = 5 * time.Second

// ComplaintPage is one page of the admin listing.
type ComplaintPage struct {
    Complaints []model.Complaint `json:"complaints"`
    Total      int               `json:"total"`
    Page       int               `json:"page"`
    Limit      int               `json:"limit"`
    TotalPages int               `json:"totalPages"`
}

// ComplaintService implements the complaint lifecycle.  Callers pass the
// identity taken from verified claims; nothing here trusts request bodies
// for ownership.
type ComplaintService struct {
    Complaints repository.ComplaintStore
    Users      repository.UserStore
    Events     EventPublisher
    Log        *zap.Logger
    now        func() time.Time
    pending    sync.WaitGroup
}

func NewComplaintService(complaints repository.ComplaintStore, users repository.UserStore, events EventPublisher, log *zap.Logger) *ComplaintService {
    if events == nil {
        events = NopPublisher{}
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &ComplaintService{Complaints: complaints, Users: users, Events: events, Log: log, now: time.Now}
}

// Create stores a Pending complaint owned by ownerID.
func (s *ComplaintService) Create(ctx context.Context, draft validation.ComplaintDraft, ownerID string) (model.Complaint, error) {
    if _, err := s.Users.GetByID(ctx, ownerID); err != nil {
        if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
            return model.Complaint{}, apperr.Unauthenticated("", "account no longer exists")
        }
        return model.Complaint{}, apperr.Internal("lookup owner", err)
    }

    c := &model.Complaint{
        Title:       draft.Title,
        Description: draft.Description,
        Category:    draft.Category,
        Status:      model.StatusPending,
        CreatedBy:   ownerID,
    }
    if err := s.Complaints.Create(ctx, c); err != nil {
        return model.Complaint{}, apperr.Internal("create complaint", err)
    }
    s.emit(q.EventComplaintCreated, *c, ownerID)
    return *c, nil
}

// ListAll returns one page of every complaint, newest first.
func (s *ComplaintService) ListAll(ctx context.Context, page, limit int) (ComplaintPage, error) {
    items, total, err := s.Complaints.ListAll(ctx, (page-1)*limit, limit)
    if err != nil {
        return ComplaintPage{}, apperr.Internal("list complaints", err)
    }
    if items == nil {
        items = []model.Complaint{}
    }
    return ComplaintPage{
        Complaints: items,
        Total:      total,
        Page:       page,
        Limit:      limit,
        TotalPages: (total + limit - 1) / limit,
    }, nil
}

// ListMine returns every complaint created by ownerID, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, ownerID string) ([]model.Complaint, error) {
    items, err := s.Complaints.ListByOwner(ctx, ownerID)
    if err != nil {
        return nil, apperr.Internal("list own complaints", err)
    }
    if items == nil {
        items = []model.Complaint{}
    }
    return items, nil
}

// UpdateStatus overwrites the status of complaint id.  Concurrent updates
// are last write wins.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id string, status model.Status, actorID string) (model.Complaint, error) {
    if !s.Complaints.ValidID(id) {
        return model.Complaint{}, apperr.Validation("validation failed", "id is not a valid complaint id")
    }
    if !status.Valid() {
        return model.Complaint{}, apperr.Validation("validation failed", "status must be one of Pending, InProgress, Resolved")
    }

    current, err := s.Complaints.GetByID(ctx, id)
    if err != nil {
        return model.Complaint{}, s.storeErr(err, "load complaint")
    }
    next, ok := model.Transition(current.Status, status)
    if !ok {
        return model.Complaint{}, apperr.Validation("validation failed", "status transition not allowed")
    }

    c, err := s.Complaints.UpdateStatus(ctx, id, next)
    if err != nil {
        return model.Complaint{}, s.storeErr(err, "update complaint status")
    }
    s.emit(q.EventComplaintStatusChanged, c, actorID)
    return c, nil
}

func (s *ComplaintService) storeErr(err error, op string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return apperr.NotFound("complaint not found")
    case errors.Is(err, repository.ErrInvalidID):
        return apperr.Validation("validation failed", "id is not a valid complaint id")
    }
    return apperr.Internal(op, err)
}

// emit publishes in the background; a broker outage never fails a request.
func (s *ComplaintService) emit(kind string, c model.Complaint, actorID string) {
    ev := q.ComplaintEvent{
        Type:        kind,
        ComplaintID: c.ID,
        Title:       c.Title,
        Category:    string(c.Category),
        Status:      string(c.Status),
        OwnerID:     c.CreatedBy,
        ActorID:     actorID,
        OccurredAt:  s.now().UTC().Format(time.RFC3339),
    }
    s.pending.Add(1)
    go func() {
        defer s.pending.Done()
        ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
        defer cancel()
        if err := s.Events.Publish(ctx, ev); err != nil {
            s.Log.Warn("complaint event not published",
                zap.String("type", ev.Type), zap.String("complaint_id", ev.ComplaintID), zap.Error(err))
        }
    }()
}

// Drain waits for in-flight event publishes, or until ctx is done.
func (s *ComplaintService) Drain(ctx context.Context) error {
    done := make(chan struct{})
    go func() {
        s.pending.Wait()
        close(done)
    }()
    select {
    case <-done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}
