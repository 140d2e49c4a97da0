package service

import (
    "context"
    "errors"
    "net"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "go.uber.org/zap/zaptest/observer"

    "github.com/iliyamo/complaint-tracker/internal/model"
    q "github.com/iliyamo/complaint-tracker/internal/queue"
    "github.com/iliyamo/complaint-tracker/internal/repository"
    "github.com/iliyamo/complaint-tracker/internal/validation"
)

type publishFunc func(ctx context.Context, ev q.ComplaintEvent) error

func (f publishFunc) Publish(ctx context.Context, ev q.ComplaintEvent) error { return f(ctx, ev) }

func newServiceWith(t *testing.T, events EventPublisher, log *zap.Logger) (*ComplaintService, string) {
    t.Helper()
    users := repository.NewMemoryUserRepo()
    owner := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h", Role: model.RoleCitizen}
    require.NoError(t, users.Create(context.Background(), owner))
    return NewComplaintService(repository.NewMemoryComplaintRepo(users), users, events, log), owner.ID
}

var pothole = validation.ComplaintDraft{Title: "Pothole", Description: "Main St", Category: model.CategoryRoad}

func TestAMQPPublisherDialHonoursDeadline(t *testing.T) {
    // Accepts TCP but never speaks AMQP.
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)
    conns := make(chan net.Conn, 8)
    t.Cleanup(func() {
        _ = ln.Close()
        for {
            select {
            case c := <-conns:
                _ = c.Close()
            default:
                return
            }
        }
    })
    go func() {
        for {
            conn, err := ln.Accept()
            if err != nil {
                return
            }
            conns <- conn
        }
    }()

    p := NewAMQPPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", nil)
    ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
    defer cancel()

    start := time.Now()
    err = p.Publish(ctx, q.ComplaintEvent{Type: q.EventComplaintCreated, ComplaintID: "1"})
    assert.Error(t, err)
    assert.Less(t, time.Since(start), 3*time.Second)
}

func TestEmitLogsPublishFailureOnce(t *testing.T) {
    core, logs := observer.New(zapcore.DebugLevel)
    failing := publishFunc(func(context.Context, q.ComplaintEvent) error { return errors.New("broker down") })
    svc, owner := newServiceWith(t, failing, zap.New(core))

    _, err := svc.Create(context.Background(), pothole, owner)
    require.NoError(t, err)
    require.NoError(t, svc.Drain(context.Background()))

    warned := logs.FilterLevelExact(zapcore.WarnLevel)
    require.Equal(t, 1, warned.Len())
    assert.Equal(t, "complaint event not published", warned.All()[0].Message)
}

func TestDrainWaitsForInFlightEvents(t *testing.T) {
    release := make(chan struct{})
    blocking := publishFunc(func(ctx context.Context, _ q.ComplaintEvent) error {
        select {
        case <-release:
            return nil
        case <-ctx.Done():
            return ctx.Err()
        }
    })
    svc, owner := newServiceWith(t, blocking, nil)

    _, err := svc.Create(context.Background(), pothole, owner)
    require.NoError(t, err)

    short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
    defer cancel()
    assert.ErrorIs(t, svc.Drain(short), context.DeadlineExceeded)

    close(release)
    assert.NoError(t, svc.Drain(context.Background()))
}
