package design

import "context"

// DesignType selects the provider's generation pipeline.
type DesignType string

const (
	DesignTypeInterior DesignType = "Interior"
	DesignTypeExterior DesignType = "Exterior"
	DesignTypeGarden   DesignType = "Garden"
)

// Intervention is the amount of creative freedom granted to the model,
// ordered from the most conservative to the most aggressive.
type Intervention string

const (
	InterventionVeryLow Intervention = "Very Low"
	InterventionLow     Intervention = "Low"
	InterventionMid     Intervention = "Mid"
	InterventionExtreme Intervention = "Extreme"
)

// ImageInput is the room photo in whichever form the caller has it.
// Exactly one of URL, Base64 or Data should be set; Base64 accepts both
// bare payloads and data-URL strings.
type ImageInput struct {
	URL      string
	Base64   string
	Data     []byte
	Filename string
}

// IsZero reports whether no image was provided at all.
func (i ImageInput) IsZero() bool {
	return i.URL == "" && i.Base64 == "" && len(i.Data) == 0
}

// Request describes one generation submission. Immutable once handed to a
// generator.
type Request struct {
	Image             ImageInput
	DesignType        DesignType
	DesignStyle       string
	RoomType          string
	HouseAngle        string
	GardenType        string
	Intervention      Intervention
	NoDesign          int
	CustomInstruction string
	KeepStructure     bool
}

// Result is the single shape all callers observe, whether the provider
// answered synchronously or via polling.
type Result struct {
	Success      bool
	InputImage   string
	OutputImages []string
	Error        string
	Attempts     int
}

// Job is the transient outcome of one provider submission: either the
// images themselves (sync mode) or a queue id to poll (async mode).
type Job struct {
	Sync         bool
	InputImage   string
	OutputImages []string
	QueueID      string
}

// Generator is the contract implemented by all generation providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
	Name() string
}
