package design

// TaskSpec is the JSON form of a generation request persisted with a
// PENDING design record, so a worker process can reconstruct the task
// without the submitting request still being around.
type TaskSpec struct {
	ImageURL          string `json:"image_url,omitempty"`
	ImageBase64       string `json:"image_base64,omitempty"`
	DesignType        string `json:"design_type"`
	DesignStyle       string `json:"design_style"`
	RoomType          string `json:"room_type,omitempty"`
	HouseAngle        string `json:"house_angle,omitempty"`
	GardenType        string `json:"garden_type,omitempty"`
	AIIntervention    string `json:"ai_intervention,omitempty"`
	NoDesign          int    `json:"no_design,omitempty"`
	CustomInstruction string `json:"custom_instruction,omitempty"`
	KeepStructure     bool   `json:"keep_structure"`
}

func SpecFromRequest(req Request) TaskSpec {
	return TaskSpec{
		ImageURL:          req.Image.URL,
		ImageBase64:       req.Image.Base64,
		DesignType:        string(req.DesignType),
		DesignStyle:       req.DesignStyle,
		RoomType:          req.RoomType,
		HouseAngle:        req.HouseAngle,
		GardenType:        req.GardenType,
		AIIntervention:    string(req.Intervention),
		NoDesign:          req.NoDesign,
		CustomInstruction: req.CustomInstruction,
		KeepStructure:     req.KeepStructure,
	}
}

func (s TaskSpec) Request() Request {
	return Request{
		Image:             ImageInput{URL: s.ImageURL, Base64: s.ImageBase64},
		DesignType:        DesignType(s.DesignType),
		DesignStyle:       s.DesignStyle,
		RoomType:          s.RoomType,
		HouseAngle:        s.HouseAngle,
		GardenType:        s.GardenType,
		Intervention:      Intervention(s.AIIntervention),
		NoDesign:          s.NoDesign,
		CustomInstruction: s.CustomInstruction,
		KeepStructure:     s.KeepStructure,
	}
}
