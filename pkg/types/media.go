package types

import (
	"fmt"
	"time"
)

// MediaType is the kind of captured file.
type MediaType string

// Media types.
const (
	MediaPhoto    MediaType = "photo"
	MediaAudio    MediaType = "audio"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaAudio, MediaVideo, MediaDocument:
		return true
	}
	return false
}

// Media is metadata for a captured file. The binary content lives at
// StoragePath and is never stored in the database.
type Media struct {
	ID              string    `json:"id"`
	FeatureID       *string   `json:"featureId,omitempty"`     // nulled when the feature is deleted
	ObservationID   *string   `json:"observationId,omitempty"` // nulled when the observation is deleted
	Type            MediaType `json:"type"`
	Filename        string    `json:"filename"`
	StoragePath     string    `json:"storagePath"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       *int64    `json:"sizeBytes,omitempty"`
	Width           *int      `json:"width,omitempty"`
	Height          *int      `json:"height,omitempty"`
	DurationSeconds *float64  `json:"durationSeconds,omitempty"`
	Caption         *string   `json:"caption,omitempty"`
	RecordedAt      time.Time `json:"recordedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	Accuracy        *float64  `json:"accuracy,omitempty"`
}

// CreateMediaInput holds the fields of a new media record.
type CreateMediaInput struct {
	FeatureID       *string
	ObservationID   *string
	Type            MediaType
	Filename        string
	StoragePath     string
	MimeType        string
	SizeBytes       *int64
	Width           *int
	Height          *int
	DurationSeconds *float64
	Caption         *string
	RecordedAt      *time.Time
	Latitude        *float64
	Longitude       *float64
	Accuracy        *float64
}

// Validate checks the type and the required file fields.
func (in CreateMediaInput) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidValue, in.Type)
	}
	if in.Filename == "" || in.StoragePath == "" || in.MimeType == "" {
		return fmt.Errorf("%w: filename, storage path and mime type are required", ErrInvalidValue)
	}
	return nil
}

// Setting is an application preference stored alongside the data.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
