package entity

import (
	"slices"
)

// Snapshot maps a region to the incidents observed for it in the last successful run.
// Within a region an incident identity appears at most once.
type Snapshot map[RegionID][]Incident

// Region returns the incidents of a region; a missing region is empty, not an error.
func (s Snapshot) Region(region RegionID) []Incident {
	return s[region]
}

func (s Snapshot) Has(region RegionID) bool {
	_, ok := s[region]

	return ok
}

func (s Snapshot) Regions() []RegionID {
	ret := make([]RegionID, 0, len(s))
	for region := range s {
		ret = append(ret, region)
	}

	slices.Sort(ret)

	return ret
}

// Clone returns a copy sharing no slices with s.
func (s Snapshot) Clone() Snapshot {
	ret := make(Snapshot, len(s))
	for region, incidents := range s {
		ret[region] = slices.Clone(incidents)
	}

	return ret
}

// With returns a copy of s where region holds incidents.
func (s Snapshot) With(region RegionID, incidents []Incident) Snapshot {
	ret := s.Clone()
	ret[region] = slices.Clone(incidents)

	return ret
}

// Incidents flattens the snapshot, sorted by region then id.
func (s Snapshot) Incidents() []Incident {
	var ret []Incident
	for _, incidents := range s {
		ret = append(ret, incidents...)
	}

	SortIncidents(ret)

	return ret
}

func (s Snapshot) Len() int {
	ret := 0
	for _, incidents := range s {
		ret += len(incidents)
	}

	return ret
}
