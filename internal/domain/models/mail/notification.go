package mail

import (
	"time"
)

// Notification is one (mail, user) entry of a user's mailbox
type Notification struct {
	MailID     int64      `json:"mail_id" db:"mail_id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	Read       bool       `json:"read" db:"read"`
	NotifiedAt time.Time  `json:"notified_at" db:"notified_at"`
	ReadAt     *time.Time `json:"read_at,omitempty" db:"read_at"`
}

// NotificationView joins a notification with the mail it points at
type NotificationView struct {
	MailID     int64      `json:"mail_id"`
	MailCode   string     `json:"mail_code"`
	Subject    string     `json:"subject"`
	Sender     string     `json:"sender"`
	Type       MailType   `json:"type"`
	Priority   Priority   `json:"priority"`
	Status     Status     `json:"status"`
	MailDate   *time.Time `json:"mail_date,omitempty"`
	Read       bool       `json:"read"`
	NotifiedAt time.Time  `json:"notified_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// ResponsibleAssignment is the single active responsible user
type ResponsibleAssignment struct {
	UserID     int64     `json:"user_id" db:"user_id"`
	AssignedBy int64     `json:"assigned_by" db:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}
