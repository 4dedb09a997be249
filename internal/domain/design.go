package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// DesignStatus enumerates the lifecycle states of a design generation.
type DesignStatus string

const (
	DesignStatusPending    DesignStatus = "PENDING"
	DesignStatusProcessing DesignStatus = "PROCESSING"
	DesignStatusCompleted  DesignStatus = "COMPLETED"
	DesignStatusFailed     DesignStatus = "FAILED"
)

// MaxErrorLength caps the error text stored on a design record.
const MaxErrorLength = 250

// IsTerminal reports whether the status admits no further transitions.
func (s DesignStatus) IsTerminal() bool {
	return s == DesignStatusCompleted || s == DesignStatusFailed
}

// Design tracks one generation request from submission to its terminal state.
// Status moves PENDING -> PROCESSING -> COMPLETED|FAILED, never backwards.
type Design struct {
	ID             string
	RoomID         string
	Prompt         string
	Provider       string
	Status         DesignStatus
	ImageURL       string
	AllImageURLs   []string
	ProcessingTime time.Duration
	ErrorMessage   string
	Metadata       json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DesignMetadata carries the free-form generation context persisted with a design.
type DesignMetadata struct {
	Style          string `json:"style,omitempty"`
	RoomType       string `json:"room_type,omitempty"`
	AIIntervention string `json:"ai_intervention,omitempty"`
	Attempts       int    `json:"attempts,omitempty"`
	GeneratedCount int    `json:"generated_count,omitempty"`
}

// TruncateError bounds an error message to MaxErrorLength characters,
// appending "..." when the original was longer.
func TruncateError(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= MaxErrorLength {
		return msg
	}
	return msg[:MaxErrorLength] + "..."
}
