package types

import "time"

// Observation is a qualitative note recorded against a feature.
type Observation struct {
	ID                string    `json:"id"`
	FeatureID         string    `json:"featureId"`
	Notes             *string   `json:"notes,omitempty"`
	Tags              []string  `json:"tags"`
	RecordedAt        time.Time `json:"recordedAt"`
	CreatedAt         time.Time `json:"createdAt"`
	ObserverLatitude  *float64  `json:"observerLatitude,omitempty"`
	ObserverLongitude *float64  `json:"observerLongitude,omitempty"`
	ObserverAccuracy  *float64  `json:"observerAccuracy,omitempty"`
}

// CreateObservationInput holds the fields of a new observation. A nil
// RecordedAt means now.
type CreateObservationInput struct {
	FeatureID         string
	Notes             *string
	Tags              []string
	RecordedAt        *time.Time
	ObserverLatitude  *float64
	ObserverLongitude *float64
	ObserverAccuracy  *float64
}

// UpdateObservationInput holds a partial observation update.
type UpdateObservationInput struct {
	Notes *string
	Tags  []string
}
