package enums

import "fmt"

// LineItemType classifies a priced service inside a version snapshot.
type LineItemType string

const (
	LineItemTypeHotel    LineItemType = "hotel"
	LineItemTypeGolf     LineItemType = "golf"
	LineItemTypeTransfer LineItemType = "transfer"
	LineItemTypeExtra    LineItemType = "extra"
)

var validLineItemTypes = []LineItemType{
	LineItemTypeHotel,
	LineItemTypeGolf,
	LineItemTypeTransfer,
	LineItemTypeExtra,
}

// String implements fmt.Stringer.
func (l LineItemType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineItemType.
func (l LineItemType) IsValid() bool {
	for _, candidate := range validLineItemTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineItemType converts raw input into a LineItemType.
func ParseLineItemType(value string) (LineItemType, error) {
	for _, candidate := range validLineItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item type %q", value)
}
