package queue

// consumer.go runs the background listener for complaint.events.  Every
// event is appended as one line to <dir>/complaint.log.

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// LogFileName is the file the consumer appends to inside its directory.
const LogFileName = "complaint.log"

// Consumer reads complaint events from RabbitMQ and writes them to disk.
type Consumer struct {
    URL string
    Dir string
    Log *zap.Logger
}

func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
    if dir == "" {
        dir = "logs"
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{URL: url, Dir: dir, Log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are retried with exponential backoff capped at 30s.
func (cs *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(cs.URL)
        if err != nil {
            cs.Log.Warn("complaint-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = cs.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        cs.Log.Warn("complaint-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (cs *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        cs.Log.Warn("complaint-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(ComplaintEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ComplaintEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := cs.HandleMessage(d.Body); err != nil {
                cs.Log.Error("complaint-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false) // poison message, drop it
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends it to the log file.
func (cs *Consumer) HandleMessage(body []byte) error {
    var ev ComplaintEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ComplaintID == "" {
        return errors.New("event without type or complaint id")
    }
    if err := os.MkdirAll(cs.Dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", cs.Dir, err)
    }
    f, err := os.OpenFile(filepath.Join(cs.Dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] %s | complaint_id=%s | status=%s | category=%q | title=%q | owner_id=%s | actor_id=%s\n",
        ev.OccurredAt, ev.Type, ev.ComplaintID, ev.Status, ev.Category, ev.Title, ev.OwnerID, ev.ActorID)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
