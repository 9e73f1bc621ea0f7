package snapshot

import (
	"encoding/json"
	"time"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const documentVersion = 3

// Document is the persisted form of a snapshot.
type Document struct {
	Version   int                   `json:"version"`
	Regions   map[string][]Incident `json:"regions"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type Incident struct {
	ID            int64      `json:"incident_id"`
	Status        string     `json:"status"`
	CreatedBy     string     `json:"created_by"`
	Type          string     `json:"type"`
	AffectedAreas []string   `json:"affected_areas"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	ETAAnnounced  *time.Time `json:"eta_announced,omitempty"`
	ETAEstimated  *time.Time `json:"eta_estimated,omitempty"`
	Nomos         string     `json:"nomos,omitempty"`
}

// rawDocument accepts every document version ever written.
type rawDocument struct {
	Version   int                   `json:"version"`
	Regions   map[string][]Incident `json:"regions"`
	Incidents map[string]IncidentV2 `json:"incidents"`
	Areas     json.RawMessage       `json:"areas"`
}

// IncidentV2 is an incident as stored by version 2 documents, keyed by "<ne_id>:<incident_id>".
type IncidentV2 struct {
	IncidentID       int64    `json:"incident_id"`
	NEID             string   `json:"ne_id"`
	Nomos            string   `json:"nomos"`
	Areas            []string `json:"areas"`
	StartDate        *int64   `json:"start_date"`
	EndDate          *int64   `json:"end_date"`
	EndDateAnnounced *int64   `json:"end_date_announced"`
	Creator          string   `json:"creator"`
	Cause            string   `json:"cause"`
	IsActive         *bool    `json:"is_active"`
	IsScheduled      bool     `json:"is_scheduled"`
}

func mapToModels(incidents []entity.Incident) []Incident {
	ret := make([]Incident, 0, len(incidents))

	for _, i := range incidents {
		ret = append(ret, Incident{
			ID:            int64(i.ID),
			Status:        string(i.Status),
			CreatedBy:     i.CreatedBy,
			Type:          i.Type,
			AffectedAreas: i.AffectedAreas,
			StartTime:     i.StartTime,
			ETAAnnounced:  i.ETAAnnounced,
			ETAEstimated:  i.ETAEstimated,
			Nomos:         i.Nomos,
		})
	}

	return ret
}

func mapToEntity(region entity.RegionID, incidents []Incident) []entity.Incident {
	ret := make([]entity.Incident, 0, len(incidents))

	for _, i := range incidents {
		ret = append(ret, entity.Incident{
			RegionID:      region,
			ID:            entity.IncidentID(i.ID),
			Status:        entity.Status(i.Status),
			CreatedBy:     i.CreatedBy,
			Type:          i.Type,
			AffectedAreas: i.AffectedAreas,
			StartTime:     i.StartTime,
			ETAAnnounced:  i.ETAAnnounced,
			ETAEstimated:  i.ETAEstimated,
			Nomos:         i.Nomos,
		})
	}

	return ret
}

func mapV2ToEntity(key entity.Key, i IncidentV2) entity.Incident {
	createdBy := i.Creator
	if createdBy == "" {
		createdBy = "Unknown"
	}

	return entity.Incident{
		RegionID:      key.Region,
		ID:            key.ID,
		Status:        entity.StatusFromActive(i.IsActive),
		CreatedBy:     createdBy,
		Type:          entity.TypeLabel(i.Cause, i.IsScheduled),
		AffectedAreas: i.Areas,
		StartTime:     epochMillis(i.StartDate),
		ETAAnnounced:  epochMillis(i.EndDateAnnounced),
		ETAEstimated:  epochMillis(i.EndDate),
		Nomos:         i.Nomos,
	}
}

func epochMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}

	ret := time.UnixMilli(*ms).UTC()

	return &ret
}
