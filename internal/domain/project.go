package domain

import "time"

// Project groups the rooms a user is redesigning.
type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoomType enumerates the room categories the generation providers accept.
type RoomType string

const (
	RoomTypeLivingRoom RoomType = "LIVING_ROOM"
	RoomTypeBedroom    RoomType = "BEDROOM"
	RoomTypeKitchen    RoomType = "KITCHEN"
	RoomTypeBathroom   RoomType = "BATHROOM"
	RoomTypeDiningRoom RoomType = "DINING_ROOM"
)

// ProviderLabel maps the stored room type onto the label the generation
// provider expects. Unknown types default to Bedroom, matching the
// provider's most permissive category.
func (t RoomType) ProviderLabel() string {
	switch t {
	case RoomTypeLivingRoom:
		return "Living Room"
	case RoomTypeBedroom:
		return "Bedroom"
	case RoomTypeKitchen:
		return "Kitchen"
	case RoomTypeBathroom:
		return "Bathroom"
	case RoomTypeDiningRoom:
		return "Dining Room"
	default:
		return "Bedroom"
	}
}

// Room is one photographed space inside a project.
type Room struct {
	ID               string
	ProjectID        string
	Name             string
	Type             RoomType
	OriginalImageURL string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
