package entity

import "slices"

type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeResolved ChangeKind = "resolved"
)

// ChangeEvent is the classified transition of one incident between two snapshots.
//
// Previous is nil for created events, Current is nil for resolved ones.
// Resolved means the incident disappeared from the provider listing.
type ChangeEvent struct {
	Kind          ChangeKind `json:"kind"`
	Region        RegionID   `json:"region_id"`
	ID            IncidentID `json:"incident_id"`
	Previous      *Incident  `json:"previous,omitempty"`
	Current       *Incident  `json:"current,omitempty"`
	ChangedFields []Field    `json:"changed_fields,omitempty"`
}

func (e ChangeEvent) Key() Key {
	return Key{Region: e.Region, ID: e.ID}
}

// Incident returns the most recent known state of the incident.
func (e ChangeEvent) Incident() Incident {
	if e.Current != nil {
		return *e.Current
	}

	if e.Previous != nil {
		return *e.Previous
	}

	return Incident{RegionID: e.Region, ID: e.ID}
}

func (e ChangeEvent) HasChanged(field Field) bool {
	return slices.Contains(e.ChangedFields, field)
}

// ProviderResolved reports an incident still listed whose provider status moved to resolved.
func (e ChangeEvent) ProviderResolved() bool {
	return e.Kind == ChangeUpdated &&
		e.HasChanged(FieldStatus) &&
		e.Current != nil && e.Current.Status == StatusResolved
}
