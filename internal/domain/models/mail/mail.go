package mail

import (
	"fmt"
	"time"
)

// MailType is the direction of a mail record
type MailType string

const (
	TypeIncoming MailType = "INCOMING"
	TypeOutgoing MailType = "OUTGOING"
	TypeInternal MailType = "INTERNAL"
)

func (t MailType) Valid() bool {
	switch t {
	case TypeIncoming, TypeOutgoing, TypeInternal:
		return true
	}
	return false
}

// Priority of a mail record. Defaults to NORMAL.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status is a state of the mail lifecycle: NEW -> IN_PROGRESS -> PROCESSED -> ARCHIVED
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusProcessed  Status = "PROCESSED"
	StatusArchived   Status = "ARCHIVED"
)

// statusOrder gives each status its position in the lifecycle
var statusOrder = map[Status]int{
	StatusNew:        0,
	StatusInProgress: 1,
	StatusProcessed:  2,
	StatusArchived:   3,
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusArchived
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Only a single step forward is permitted. Staying in the same status is
// treated as a no-op by callers and is not a transition.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to == from+1
}

// ParseStatus converts user input into a Status
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown mail status %q", raw)
	}
	return s, nil
}

type Mail struct {
	ID           int64      `json:"id" db:"id"`
	Code         string     `json:"code" db:"code"` // COU-<YEAR>-<SEQ>
	DocumentID   int64      `json:"document_id" db:"document_id"`
	Type         MailType   `json:"type" db:"type"`
	Subject      string     `json:"subject" db:"subject"`
	Sender       string     `json:"sender" db:"sender"`
	Recipient    string     `json:"recipient" db:"recipient"`
	Reference    string     `json:"reference" db:"reference"`
	MailDate     *time.Time `json:"mail_date,omitempty" db:"mail_date"`
	Priority     Priority   `json:"priority" db:"priority"`
	Observations string     `json:"observations" db:"observations"`
	Confidential bool       `json:"confidential" db:"confidential"`
	Status       Status     `json:"status" db:"status"`
	CreatedBy    int64      `json:"created_by" db:"created_by"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at" db:"modified_at"`

	// Read-side join fields
	DocumentCode  string `json:"document_code,omitempty"`
	DocumentTitle string `json:"document_title,omitempty"`
}
