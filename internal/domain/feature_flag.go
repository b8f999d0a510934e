package domain

type FeatureFlag struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}
