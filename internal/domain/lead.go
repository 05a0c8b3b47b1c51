package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadSource names the page/modal a lead came from.
type LeadSource string

const (
	SourceContact   LeadSource = "contact"
	SourcePackages  LeadSource = "packages"
	SourceWedding   LeadSource = "wedding"
	SourceCorporate LeadSource = "corporate"
	SourcePromo     LeadSource = "promo"
	SourceWizard    LeadSource = "wizard"
)

// Event types offered by every lead form.
const (
	EventWedding    = "wedding"
	EventCorporate  = "corporate"
	EventBirthday   = "birthday"
	EventGraduation = "graduation"
	EventOther      = "other"
)

// EventTypes lists the accepted event types in display order.
var EventTypes = []string{EventWedding, EventCorporate, EventBirthday, EventGraduation, EventOther}

// Budgets lists the accepted budget brackets in display order.
var Budgets = []string{"$1000-$1500", "$1500-$2000", "$2000+"}

// NormalizeEventType maps user input onto an EventTypes entry. ok is false for unknown values.
func NormalizeEventType(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, t := range EventTypes {
		if t == v {
			return t, true
		}
	}
	return "", false
}

// NormalizeBudget maps user input onto a Budgets entry. ok is false for unknown values.
func NormalizeBudget(v string) (string, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	for _, b := range Budgets {
		if b == v {
			return b, true
		}
	}
	return "", false
}

// Lead is a submission from one of the lead-capture forms (contact page, package/wedding/corporate modals, wizard).
type Lead struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Source      LeadSource          `bson:"source" json:"source"`
	Name        string              `bson:"name" json:"name"`
	Email       string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string              `bson:"phone,omitempty" json:"phone,omitempty"`
	EventType   string              `bson:"eventType,omitempty" json:"eventType,omitempty"`
	EventDate   string              `bson:"eventDate,omitempty" json:"eventDate,omitempty"`
	Budget      string              `bson:"budget,omitempty" json:"budget,omitempty"`
	PackageName string              `bson:"packageName,omitempty" json:"packageName,omitempty"`
	Message     string              `bson:"message,omitempty" json:"message,omitempty"`
	Extra       map[string]string   `bson:"extra,omitempty" json:"extra,omitempty"` // Any other flat keys the form sent
	Attribution AttributionSnapshot `bson:"attribution,omitempty" json:"attribution,omitempty"`
	SubmittedAt time.Time           `bson:"submittedAt" json:"submittedAt"`
}
