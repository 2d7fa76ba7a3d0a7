package models

// Status is the farming state of a tracked item
type Status string

const (
	StatusNone         Status = "none"
	StatusFarming      Status = "farming"
	StatusWaitingParts Status = "waiting_parts"
	StatusReadyToBuild Status = "ready_to_build"
	StatusToSell       Status = "to_sell"
	StatusBuilt        Status = "built"
)

// StatusConfig describes how a status is presented
type StatusConfig struct {
	ID    Status `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

// Statuses returns the status configuration in selector order
func Statuses() []StatusConfig {
	return []StatusConfig{
		{ID: StatusNone, Label: "No status", Color: "#6b7280", Order: 0},
		{ID: StatusFarming, Label: "Farming", Color: "#fb923c", Order: 1},
		{ID: StatusWaitingParts, Label: "Missing parts", Color: "#facc15", Order: 2},
		{ID: StatusReadyToBuild, Label: "Ready to build", Color: "#60a5fa", Order: 3},
		{ID: StatusToSell, Label: "To sell", Color: "#4ade80", Order: 4},
		{ID: StatusBuilt, Label: "Built", Color: "#c084fc", Order: 5},
	}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, cfg := range Statuses() {
		if cfg.ID == s {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value for unknown statuses
func (s Status) Label() string {
	for _, cfg := range Statuses() {
		if cfg.ID == s {
			return cfg.Label
		}
	}
	return string(s)
}
