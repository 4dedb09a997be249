package design

// Catalog lists every value the generation form accepts. The labels for
// intervention levels and design types are localized per request.
type Catalog struct {
	InteriorStyles       []string        `json:"interiorStyles"`
	RoomTypes            []string        `json:"roomTypes"`
	ExteriorStyles       []string        `json:"exteriorStyles"`
	HouseAngles          []string        `json:"houseAngles"`
	GardenTypes          []string        `json:"gardenTypes"`
	GardenStyles         []string        `json:"gardenStyles"`
	AIInterventionLevels []LabeledValue  `json:"aiInterventionLevels"`
	DesignTypes          []LabeledValue  `json:"designTypes"`
	DesignCounts         []LabeledNumber `json:"designCounts"`
}

type LabeledValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type LabeledNumber struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

var interiorStyles = []string{
	"Modern", "Minimalist", "Contemporary", "Scandinavian", "Industrial",
	"Mid-Century Modern", "Bohemian", "Coastal", "Traditional",
	"Transitional", "Rustic", "Farmhouse", "French Country", "Art Deco",
	"Victorian", "Mediterranean", "Japanese", "Tropical", "Hollywood Glam",
	"Shabby Chic", "Eclectic", "Urban Modern", "Nordic", "Zen",
}

var roomTypes = []string{
	"Living Room", "Bedroom", "Kitchen", "Bathroom", "Dining Room",
	"Home Office", "Kids Room", "Nursery", "Master Bedroom",
	"Guest Bedroom", "Walk-in Closet", "Laundry Room", "Mudroom",
	"Entryway", "Hallway", "Basement", "Attic", "Garage", "Home Theater",
	"Game Room", "Gym", "Library", "Sunroom", "Balcony", "Patio",
	"Terrace",
}

var exteriorStyles = []string{
	"Modern", "Contemporary", "Traditional", "Colonial", "Victorian",
	"Craftsman", "Mediterranean", "Spanish", "Ranch", "Tudor", "Cape Cod",
	"Farmhouse", "Mid-Century Modern", "Industrial", "Rustic",
	"Beach House",
}

var houseAngles = []string{
	"Front of house", "Side of house", "Back of house",
}

var gardenTypes = []string{
	"Backyard", "Front Yard", "Courtyard", "Rooftop Garden",
	"Balcony Garden", "Patio", "Terrace", "Side Garden",
	"Vegetable Garden", "Flower Garden", "Zen Garden", "Tropical Garden",
}

var gardenStyles = []string{
	"Modern", "Traditional", "Tropical", "Mediterranean", "Japanese",
	"English", "French", "Desert", "Minimalist", "Cottage", "Zen",
	"Contemporary",
}

var interventionLabels = map[string]map[Intervention]string{
	"fr": {
		InterventionVeryLow: "Très bas - Changements minimaux",
		InterventionLow:     "Bas - Quelques modifications",
		InterventionMid:     "Moyen - Modifications équilibrées",
		InterventionExtreme: "Extrême - Transformation complète",
	},
	"en": {
		InterventionVeryLow: "Very low - Minimal changes",
		InterventionLow:     "Low - Some modifications",
		InterventionMid:     "Mid - Balanced modifications",
		InterventionExtreme: "Extreme - Complete transformation",
	},
}

var designTypeLabels = map[string]map[DesignType]string{
	"fr": {
		DesignTypeInterior: "Intérieur",
		DesignTypeExterior: "Extérieur",
		DesignTypeGarden:   "Jardin",
	},
	"en": {
		DesignTypeInterior: "Interior",
		DesignTypeExterior: "Exterior",
		DesignTypeGarden:   "Garden",
	},
}

var designCountLabels = map[string][]LabeledNumber{
	"fr": {
		{Value: 1, Label: "1 design"},
		{Value: 2, Label: "2 designs (recommandé)"},
	},
	"en": {
		{Value: 1, Label: "1 design"},
		{Value: 2, Label: "2 designs (recommended)"},
	},
}

// Options returns the full catalog with labels in the requested locale.
// Unknown locales fall back to French, the product's primary language.
func Options(locale string) Catalog {
	if _, ok := interventionLabels[locale]; !ok {
		locale = "fr"
	}
	levels := make([]LabeledValue, 0, 4)
	for _, level := range []Intervention{InterventionVeryLow, InterventionLow, InterventionMid, InterventionExtreme} {
		levels = append(levels, LabeledValue{Value: string(level), Label: interventionLabels[locale][level]})
	}
	types := make([]LabeledValue, 0, 3)
	for _, dt := range []DesignType{DesignTypeInterior, DesignTypeExterior, DesignTypeGarden} {
		types = append(types, LabeledValue{Value: string(dt), Label: designTypeLabels[locale][dt]})
	}
	return Catalog{
		InteriorStyles:       interiorStyles,
		RoomTypes:            roomTypes,
		ExteriorStyles:       exteriorStyles,
		HouseAngles:          houseAngles,
		GardenTypes:          gardenTypes,
		GardenStyles:         gardenStyles,
		AIInterventionLevels: levels,
		DesignTypes:          types,
		DesignCounts:         designCountLabels[locale],
	}
}

// ValidStyle reports whether style is known for the given design type.
func ValidStyle(dt DesignType, style string) bool {
	var list []string
	switch dt {
	case DesignTypeExterior:
		list = exteriorStyles
	case DesignTypeGarden:
		list = gardenStyles
	default:
		list = interiorStyles
	}
	for _, s := range list {
		if s == style {
			return true
		}
	}
	return false
}
