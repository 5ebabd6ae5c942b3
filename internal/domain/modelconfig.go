package domain

import "time"

// ModelConfig describes which concrete model currently backs a pipeline
// stage. Rows are owned by an administrative surface; the pipeline only
// reads them, on every stage resolution, so operators can swap models
// without a redeploy.
type ModelConfig struct {
	ID              string
	Stage           Stage
	ModelName       string
	IsActive        bool
	Priority        int
	Config          map[string]any
	FallbackModelID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConfigString returns a string tunable from the free-form config blob,
// or fallback when absent.
func (m *ModelConfig) ConfigString(key, fallback string) string {
	if m == nil || m.Config == nil {
		return fallback
	}
	if v, ok := m.Config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// ConfigBool returns a boolean tunable from the config blob.
func (m *ModelConfig) ConfigBool(key string, fallback bool) bool {
	if m == nil || m.Config == nil {
		return fallback
	}
	if v, ok := m.Config[key].(bool); ok {
		return v
	}
	return fallback
}
