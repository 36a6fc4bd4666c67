package domain

// NoRegion is the region value of a session in which no polygon has been clicked yet.
const NoRegion = "Waiting input"

// DataTypeProbabilistic shows the spread of the ensemble members.
const DataTypeProbabilistic = "Probabilistic"

// Selection is the per-session state driven by the sidebar, the time slider
// and map clicks.
type Selection struct {
	Variable  string `json:"variable"`
	TimeIndex int    `json:"time_index"`
	Profile   int    `json:"profile"`
	DataType  string `json:"data_type"`
	RegionID  string `json:"region_id"`
}

// DefaultSelection returns the state a new session starts in.
func DefaultSelection(variable string) Selection {
	return Selection{
		Variable: variable,
		DataType: DataTypeProbabilistic,
		RegionID: NoRegion,
	}
}

// HasRegion reports whether a polygon has been clicked.
func (s Selection) HasRegion() bool {
	return s.RegionID != "" && s.RegionID != NoRegion
}
