package types

// JSONMap is a free-form jsonb column helper.
type JSONMap map[string]any
