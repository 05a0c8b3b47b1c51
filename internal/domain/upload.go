package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoredFile describes an uploaded file after it was moved into durable storage.
// The durable copy is the only artifact downstream sinks ever reference.
type StoredFile struct {
	OriginalName string `bson:"originalName" json:"originalName"` // Filename as sent by the browser
	StorageName  string `bson:"storageName" json:"storageName"`   // <unixmillis>-<token>-<sanitized original>
	Size         int64  `bson:"size" json:"size"`                 // Bytes written
	ContentType  string `bson:"contentType" json:"contentType"`   // Declared MIME type
	PublicPath   string `bson:"publicPath" json:"publicPath"`     // e.g. /api/uploads/intake/<storageName>
	PublicURL    string `bson:"publicUrl" json:"publicUrl"`       // Absolute link when a base URL is configured
}

// Link returns the best link available for humans reading a sheet or an email.
func (f StoredFile) Link() string {
	if f.PublicURL != "" {
		return f.PublicURL
	}
	return f.PublicPath
}

// IntakeSubmission is one client intake form, accepted and persisted.
type IntakeSubmission struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ContactName         string              `bson:"contactName" json:"contactName"`
	ContactEmail        string              `bson:"contactEmail" json:"contactEmail"`
	ContactPhone        string              `bson:"contactPhone" json:"contactPhone"`
	Logo                *StoredFile         `bson:"logo,omitempty" json:"logo,omitempty"`
	Inspiration         []StoredFile        `bson:"inspiration" json:"inspiration"`
	FilterCopy          string              `bson:"filterCopy" json:"filterCopy"`
	RobotTheme          string              `bson:"robotTheme" json:"robotTheme"`
	VoiceActivation     string              `bson:"voiceActivation" json:"voiceActivation"`
	LoadingInstructions string              `bson:"loadingInstructions" json:"loadingInstructions"`
	ClientSubmittedAt   string              `bson:"clientSubmittedAt,omitempty" json:"clientSubmittedAt,omitempty"` // As sent by the form, not trusted
	SubmittedAt         time.Time           `bson:"submittedAt" json:"submittedAt"`
	Attribution         AttributionSnapshot `bson:"attribution,omitempty" json:"attribution,omitempty"`
}
