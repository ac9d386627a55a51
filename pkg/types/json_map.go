package types

// JSONMap is arbitrary structured metadata persisted through the gorm JSON
// serializer (audit entries, event payload fragments).
type JSONMap map[string]any
