package workout

import (
	"time"
)

// PerformedSet is one set as it was actually performed.
type PerformedSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// ExercisePerformance is the log of one slot within a session.
type ExercisePerformance struct {
	ExerciseID ExerciseID `json:"exerciseId"`
	// VariantName records which variant was performed. It never affects history lookups.
	VariantName   string         `json:"variantName,omitempty"`
	SetsPerformed []PerformedSet `json:"setsPerformed"`
	Skipped       bool           `json:"skipped,omitempty"`
}

// SessionRecord is a logged workout or rest day.
type SessionRecord struct {
	ID string `json:"id"`
	// Date is either an ISO date (2006-01-02) or an RFC 3339 timestamp.
	Date       string                `json:"date"`
	TemplateID TemplateID            `json:"templateId,omitempty"`
	RestDay    bool                  `json:"restDay,omitempty"`
	Exercises  []ExercisePerformance `json:"exercises"`
	CreatedAt  *time.Time            `json:"createdAt,omitempty"`
}

// OfferDecision records the user's answer to a bonus session offer.
type OfferDecision struct {
	ID              string     `json:"id"`
	AnchorSessionID string     `json:"anchorSessionId"`
	TemplateID      TemplateID `json:"templateId"`
	Decision        string     `json:"decision"`
	Date            time.Time  `json:"date"`
}

const decisionDeclined = "declined"

// Collection names in the record store.
const (
	SessionsCollection       = "workoutSessions"
	OfferDecisionsCollection = "workoutOfferDecisions"
)
