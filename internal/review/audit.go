package review

import "time"

// EventType classifies an audit-trail entry into the fixed taxonomy.
type EventType string

const (
	EventInvitation       EventType = "invitation"
	EventAcceptance       EventType = "acceptance"
	EventDecline          EventType = "decline"
	EventReminder         EventType = "reminder"
	EventOverdue          EventType = "overdue"
	EventReviewReceived   EventType = "review-received"
	EventDecision         EventType = "decision"
	EventRevision         EventType = "revision"
	EventEditorAssignment EventType = "editor-assignment"
	EventOther            EventType = "other"
)

// EventSource tags which subsystem a raw event row came from.
type EventSource string

const (
	SourceStatusHistory  EventSource = "status-history"
	SourceCorrespondence EventSource = "correspondence"
	SourceInferred       EventSource = "inferred"
	SourceCommLog        EventSource = "comm-log"
)

// AuditEvent is one entry in the synthesized manuscript timeline.
type AuditEvent struct {
	Sequence    int         `json:"sequence"`
	Date        time.Time   `json:"date"`
	Type        EventType   `json:"type"`
	From        string      `json:"from,omitempty"`
	To          string      `json:"to,omitempty"`
	Source      EventSource `json:"source"`
	Description string      `json:"description,omitempty"`
}

// Key returns the dedupe key for an event: (date, type, from, to).
func (e AuditEvent) Key() string {
	return e.Date.UTC().Format(time.RFC3339) + "|" + string(e.Type) + "|" + e.From + "|" + e.To
}

// ResponseTypes are the event types that count as a referee response when
// measuring reminder effectiveness.
var ResponseTypes = map[EventType]struct{}{
	EventAcceptance:     {},
	EventDecline:        {},
	EventReviewReceived: {},
}
