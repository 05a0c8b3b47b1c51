package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationKind tells which flow produced a notification.
type NotificationKind string

const (
	NotificationIntake NotificationKind = "intake"
	NotificationLead   NotificationKind = "lead"
)

// Notification is a rendered, human-readable message about a new submission.
type Notification struct {
	Kind      NotificationKind  `json:"kind"`
	Reference string            `json:"reference"` // Submission or lead ID
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	ReplyTo   string            `json:"replyTo,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"` // Flat copy of the submission, forwarded to the relay
}

// NotificationEntry is the durable record kept when the relay is unconfigured or failed.
type NotificationEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind      NotificationKind   `bson:"kind" json:"kind"`
	Reference string             `bson:"reference" json:"reference"`
	Subject   string             `bson:"subject" json:"subject"`
	Body      string             `bson:"body" json:"body"`
	Reason    string             `bson:"reason" json:"reason"` // "unconfigured" or "failed"
	Error     string             `bson:"error,omitempty" json:"error,omitempty"`
	Attempts  int                `bson:"attempts" json:"attempts"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
