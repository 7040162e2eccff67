package features

// EmptyValue is shown for missing or empty popup values.
const EmptyValue = "N/A"

// PopupField maps a popup label to a feature property.
type PopupField struct {
	Label string `json:"label" yaml:"label" validate:"required"`
	Key   string `json:"key"   yaml:"key"   validate:"required"`
}

// PopupLine is one rendered popup row.
type PopupLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DefaultPopupFields is the popup layout used when none is configured.
func DefaultPopupFields() []PopupField {
	return []PopupField{
		{Label: "Object ID", Key: "object_id"},
		{Label: "Stage", Key: "stage"},
		{Label: "Address", Key: "geocoded_address"},
		{Label: "Special Case", Key: "special_case"},
		{Label: "Hazard Size", Key: "hazard_size"},
		{Label: "Tech", Key: "tech"},
	}
}

// Popup renders the popup rows for f.
func Popup(f Feature, fields []PopupField) []PopupLine {
	lines := make([]PopupLine, len(fields))
	for i, field := range fields {
		value, ok := f.Property(field.Key)
		if !ok || value == "" || value == "false" || value == "0" {
			value = EmptyValue
		}
		lines[i] = PopupLine{Label: field.Label, Value: value}
	}
	return lines
}
