package enums

import "fmt"

// MappingStatus marks the trustworthiness of a GIAV supplier mapping.
type MappingStatus string

const (
	MappingStatusActive      MappingStatus = "active"
	MappingStatusNeedsReview MappingStatus = "needs_review"
	MappingStatusDeprecated  MappingStatus = "deprecated"
)

// String implements fmt.Stringer.
func (m MappingStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MappingStatus.
func (m MappingStatus) IsValid() bool {
	switch m {
	case MappingStatusActive, MappingStatusNeedsReview, MappingStatusDeprecated:
		return true
	}
	return false
}

// MappingMatchType records how a mapping came to exist.
type MappingMatchType string

const (
	MatchTypeManual      MappingMatchType = "manual"
	MatchTypeSuggested   MappingMatchType = "suggested"
	MatchTypeImported    MappingMatchType = "imported"
	MatchTypeBatch       MappingMatchType = "batch"
	MatchTypeAutoGeneric MappingMatchType = "auto_generic"
)

var validMappingMatchTypes = []MappingMatchType{
	MatchTypeManual,
	MatchTypeSuggested,
	MatchTypeImported,
	MatchTypeBatch,
	MatchTypeAutoGeneric,
}

// String implements fmt.Stringer.
func (m MappingMatchType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MappingMatchType.
func (m MappingMatchType) IsValid() bool {
	for _, candidate := range validMappingMatchTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMappingMatchType converts raw input into a MappingMatchType.
func ParseMappingMatchType(value string) (MappingMatchType, error) {
	for _, candidate := range validMappingMatchTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mapping match type %q", value)
}
