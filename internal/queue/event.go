// Package queue defines message payloads exchanged over the message broker.
package queue

// ComplaintEventsQueue is the durable queue complaint events are routed to.
const ComplaintEventsQueue = "complaint.events"

// Event types carried in ComplaintEvent.Type.
const (
    EventComplaintCreated       = "complaint.created"
    EventComplaintStatusChanged = "complaint.status_changed"
)

// ComplaintEvent is published after a complaint is created or its status is
// changed.  It carries enough for a consumer to log or notify without
// reading the store.
type ComplaintEvent struct {
    Type        string `json:"type"`
    ComplaintID string `json:"complaint_id"`
    Title       string `json:"title"`
    Category    string `json:"category"`
    Status      string `json:"status"`
    OwnerID     string `json:"owner_id"`
    ActorID     string `json:"actor_id"`
    OccurredAt  string `json:"occurred_at"`
}
