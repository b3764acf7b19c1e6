package models

import (
	"fmt"
	"strings"
)

// ConflictRecord is one country-year row of the organized violence dataset.
// Empty Country or Region means the source had no value.
type ConflictRecord struct {
	Year       int    `json:"year"`
	Country    string `json:"country,omitempty"`
	Region     string `json:"region,omitempty"`
	StateBased int64  `json:"state_based_deaths"`
	NonState   int64  `json:"non_state_deaths"`
	OneSided   int64  `json:"one_sided_deaths"`
	Cumulative int64  `json:"cumulative_deaths"`
}

// Deaths returns the count stored for the given violence type.
func (r ConflictRecord) Deaths(vt ViolenceType) int64 {
	switch vt {
	case StateBased:
		return r.StateBased
	case NonState:
		return r.NonState
	case OneSided:
		return r.OneSided
	case Cumulative:
		return r.Cumulative
	}
	return 0
}

type ViolenceType int

const (
	StateBased ViolenceType = iota
	NonState
	OneSided
	Cumulative
)

// ConflictTypes are the per-type categories produced by a melt, in output order.
var ConflictTypes = []ViolenceType{StateBased, NonState, OneSided}

var violenceKeys = map[ViolenceType]string{
	StateBased: "state_based",
	NonState:   "non_state",
	OneSided:   "one_sided",
	Cumulative: "cumulative",
}

var violenceLabels = map[ViolenceType]string{
	StateBased: "State-based",
	NonState:   "Non-state",
	OneSided:   "One-sided",
	Cumulative: "All types (cumulative)",
}

// Key is the stable identifier used in query strings and flags.
func (v ViolenceType) Key() string { return violenceKeys[v] }

// Label is the human readable name shown on charts.
func (v ViolenceType) Label() string { return violenceLabels[v] }

func (v ViolenceType) String() string { return v.Key() }

// ParseViolenceType accepts a key ("non_state"), a label ("Non-state") or the
// short UCDP prefixes sb/ns/os/all. An empty string selects StateBased.
func ParseViolenceType(s string) (ViolenceType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "", "sb", "state_based", "state-based":
		return StateBased, nil
	case "ns", "non_state", "non-state":
		return NonState, nil
	case "os", "one_sided", "one-sided":
		return OneSided, nil
	case "all", "cumulative", "all types (cumulative)":
		return Cumulative, nil
	}
	return StateBased, fmt.Errorf("unknown violence type %q", s)
}

// FilterSpec is the per-interaction selection. Empty Countries or Region means
// no restriction on that dimension.
type FilterSpec struct {
	Start     int      `json:"start"`
	End       int      `json:"end"`
	Countries []string `json:"countries,omitempty"`
	Region    string   `json:"region,omitempty"`
}

// MeltedRow is the long form of one record for one conflict type.
type MeltedRow struct {
	Year         int    `json:"year"`
	Country      string `json:"country"`
	ConflictType string `json:"conflict_type"`
	Deaths       int64  `json:"deaths"`
}

// FrameRow is a MeltedRow keyed by a fractional animation frame.
type FrameRow struct {
	Frame        float64 `json:"frame"`
	Country      string  `json:"country"`
	ConflictType string  `json:"conflict_type"`
	Deaths       float64 `json:"deaths"`
}

type YearTotal struct {
	Year   int   `json:"year"`
	Deaths int64 `json:"deaths"`
}

// SeriesPoint is one (year, entity) cell of a grouped sum.
type SeriesPoint struct {
	Year   int    `json:"year"`
	Key    string `json:"key"`
	Deaths int64  `json:"deaths"`
}

// EntityTotal is an entity's deaths summed over the selected range.
type EntityTotal struct {
	Key    string `json:"key"`
	Deaths int64  `json:"deaths"`
}

type YearBounds struct {
	Min          int `json:"min"`
	Max          int `json:"max"`
	DefaultStart int `json:"default_start"`
	DefaultEnd   int `json:"default_end"`
}

type Trend struct {
	Type   string      `json:"type"`
	Label  string      `json:"label"`
	Series []YearTotal `json:"series"`
}

type BarRace struct {
	Mode         string      `json:"mode"`
	StepsPerYear int         `json:"steps_per_year"`
	Countries    []string    `json:"countries"`
	AxisMax      int64       `json:"axis_max"`
	Rows         []MeltedRow `json:"rows,omitempty"`
	Frames       []FrameRow  `json:"frames,omitempty"`
}

// Comparison backs both regional views: a per-year line per entity and the
// per-entity totals bar.
type Comparison struct {
	Type     string        `json:"type"`
	Label    string        `json:"label"`
	Scope    string        `json:"scope,omitempty"`
	Entities []string      `json:"entities"`
	Series   []SeriesPoint `json:"series"`
	Totals   []EntityTotal `json:"totals"`
}

type MapFrame struct {
	Year    int    `json:"year"`
	Country string `json:"country"`
	Deaths  int64  `json:"deaths"`
}
