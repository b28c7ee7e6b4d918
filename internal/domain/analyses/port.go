package analyses

import "context"

// Repository port (interface untuk persistence)
//
// The whole record set is always listed; no filtering, sorting or paging is
// pushed to the backend. Create does not return the new record, callers list
// again to observe it. Delete of an absent id is a success.
type Repository interface {
	List(ctx context.Context) ([]Analysis, error)
	Create(ctx context.Context, f Fields) error
	Update(ctx context.Context, id ID, f Fields) error
	Delete(ctx context.Context, id ID) error
}

// Archive port (penyimpanan snapshot)
type Archive interface {
	PutJSON(ctx context.Context, key string, data []byte) (string, error)
}

// Advisor drafts a diagnostic narrative for a device
type Advisor interface {
	SuggestAnalysis(ctx context.Context, f Fields) (string, error)
}

// EventKind of a Notifier event
type EventKind string

const (
	EventRefreshed EventKind = "refreshed"
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventDeleted   EventKind = "deleted"
	EventFailure   EventKind = "failure"
)

// Event is a non-blocking notification about the record set
type Event struct {
	Kind    EventKind `json:"kind"`
	ID      ID        `json:"id,omitempty"`
	Count   int       `json:"count,omitempty"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Notifier port. Implementations must not block the caller for long and
// must not fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}
