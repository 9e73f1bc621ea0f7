package entity

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// RegionID is the provider polling key (NE id), e.g. "0205".
type RegionID string

// IncidentID is assigned by the provider and stable across polls.
type IncidentID int64

func (i IncidentID) String() string {
	return strconv.FormatInt(int64(i), 10)
}

type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusUnknown  Status = "unknown"
)

// StatusFromActive maps the provider is_active flag, nil meaning the flag was not reported.
func StatusFromActive(active *bool) Status {
	switch {
	case active == nil:
		return StatusUnknown
	case *active:
		return StatusActive
	default:
		return StatusResolved
	}
}

// Incident is one reported outage.
//
// Identity is (RegionID, ID). Nomos is a display label only and never takes part in comparisons.
type Incident struct {
	RegionID      RegionID   `json:"region_id"`
	ID            IncidentID `json:"incident_id"`
	Status        Status     `json:"status"`
	CreatedBy     string     `json:"created_by"`
	Type          string     `json:"type"`
	AffectedAreas []string   `json:"affected_areas"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	ETAAnnounced  *time.Time `json:"eta_announced,omitempty"`
	ETAEstimated  *time.Time `json:"eta_estimated,omitempty"`
	Nomos         string     `json:"nomos,omitempty"`
}

type Key struct {
	Region RegionID
	ID     IncidentID
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Region, k.ID)
}

// ParseKey parses the "<region>:<id>" form returned by Key.String.
func ParseKey(s string) (Key, error) {
	region, id, found := strings.Cut(s, ":")
	if !found || region == "" {
		return Key{}, fmt.Errorf("invalid incident key %q", s)
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid incident id in key %q: %w", s, err)
	}

	return Key{Region: RegionID(region), ID: IncidentID(n)}, nil
}

func (i Incident) Key() Key {
	return Key{Region: i.RegionID, ID: i.ID}
}

func (i Incident) SameIdentity(other Incident) bool {
	return i.Key() == other.Key()
}

// Field names a comparable attribute of an Incident.
type Field string

const (
	FieldStatus        Field = "status"
	FieldAffectedAreas Field = "affected_areas"
	FieldStartTime     Field = "start_time"
	FieldETAAnnounced  Field = "eta_announced"
	FieldETAEstimated  Field = "eta_estimated"
	FieldType          Field = "type"
	FieldCreatedBy     Field = "created_by"
)

// ComparableFields in the order ChangedFields reports them.
var ComparableFields = []Field{
	FieldStatus,
	FieldAffectedAreas,
	FieldStartTime,
	FieldETAAnnounced,
	FieldETAEstimated,
	FieldType,
	FieldCreatedBy,
}

// ChangedFields returns the comparable fields whose value differs between i and other.
func (i Incident) ChangedFields(other Incident) []Field {
	var ret []Field

	for _, field := range ComparableFields {
		if !i.fieldEqual(other, field) {
			ret = append(ret, field)
		}
	}

	return ret
}

// FieldEqual reports whether every comparable field is equal. Identity is not checked.
func (i Incident) FieldEqual(other Incident) bool {
	return len(i.ChangedFields(other)) == 0
}

func (i Incident) fieldEqual(other Incident, field Field) bool {
	switch field {
	case FieldStatus:
		return i.Status == other.Status
	case FieldAffectedAreas:
		return sameSet(i.AffectedAreas, other.AffectedAreas)
	case FieldStartTime:
		return sameTime(i.StartTime, other.StartTime)
	case FieldETAAnnounced:
		return sameTime(i.ETAAnnounced, other.ETAAnnounced)
	case FieldETAEstimated:
		return sameTime(i.ETAEstimated, other.ETAEstimated)
	case FieldType:
		return i.Type == other.Type
	case FieldCreatedBy:
		return i.CreatedBy == other.CreatedBy
	default:
		return true
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Equal(*b)
}

func sameSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, ok := setA[v]; !ok {
			return false
		}

		setB[v] = struct{}{}
	}

	return len(setA) == len(setB)
}

// SortIncidents orders incidents by region then ascending id, in place.
func SortIncidents(incidents []Incident) {
	slices.SortFunc(incidents, func(a, b Incident) int {
		if c := strings.Compare(string(a.RegionID), string(b.RegionID)); c != 0 {
			return c
		}

		return compareID(a.ID, b.ID)
	})
}

func compareID(a, b IncidentID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
