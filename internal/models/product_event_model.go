package models

import "time"

// ProductAction names the kind of product mutation an event records.
type ProductAction string

const (
	ActionCreateProduct ProductAction = "CREATE_PRODUCT"
	ActionUpdateProduct ProductAction = "UPDATE_PRODUCT"
	ActionDeleteProduct ProductAction = "DELETE_PRODUCT"
)

// EventTimestampLayout is fixed width so stored timestamps sort lexically.
const EventTimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatEventTime renders t in EventTimestampLayout (UTC).
func FormatEventTime(t time.Time) string {
	return t.UTC().Format(EventTimestampLayout)
}

// ProductEvent is an append-only audit record of a product mutation,
// stored in the real-time store for the live activity feed.
type ProductEvent struct {
	Action      ProductAction `json:"action" firestore:"action"`
	ProductID   int64         `json:"productId" firestore:"productId"`
	ProductName string        `json:"productName,omitempty" firestore:"productName,omitempty"`
	Timestamp   string        `json:"timestamp" firestore:"timestamp"`
	UserID      string        `json:"userId,omitempty" firestore:"userId,omitempty"`
	UserEmail   string        `json:"userEmail,omitempty" firestore:"userEmail,omitempty"`
}

// Time parses Timestamp. Values written by other clients in RFC 3339 form
// are accepted too.
func (e ProductEvent) Time() (time.Time, error) {
	if t, err := time.Parse(EventTimestampLayout, e.Timestamp); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// ProductLogEntry is a stored ProductEvent together with its store key.
type ProductLogEntry struct {
	ID string `json:"id"`
	ProductEvent
}

// Actor identifies the principal behind a mutation.
type Actor struct {
	ID    string
	Email string
}
