// Package diff classifies incident transitions between two snapshots.
//
// For a region, incidents only present in the current list are created, incidents present in both
// lists with a different comparable state are updated, and incidents only present in the previous
// list are resolved. Events come out created first, then updated, then resolved, each group by
// ascending incident id; regions follow the order given by the caller.
package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

const CategoryDataIntegrity = "data_integrity"

var (
	ErrDataIntegrity     = errors.New("data integrity error")
	errDuplicateIdentity = errors.New("duplicate incident identity")
	errForeignRegion     = errors.New("incident belongs to another region")
)

// Region computes the change events of one region.
func Region(region entity.RegionID, previous, current []entity.Incident) ([]entity.ChangeEvent, error) {
	prevIndex, err := index(region, previous, "previous")
	if err != nil {
		return nil, err
	}

	currIndex, err := index(region, current, "current")
	if err != nil {
		return nil, err
	}

	var created, updated, resolved []entity.ChangeEvent

	for id, curr := range currIndex {
		prev, found := prevIndex[id]
		if !found {
			created = append(created, entity.ChangeEvent{
				Kind:    entity.ChangeCreated,
				Region:  region,
				ID:      id,
				Current: &curr,
			})

			continue
		}

		fields := prev.ChangedFields(curr)
		if len(fields) == 0 {
			continue
		}

		updated = append(updated, entity.ChangeEvent{
			Kind:          entity.ChangeUpdated,
			Region:        region,
			ID:            id,
			Previous:      &prev,
			Current:       &curr,
			ChangedFields: fields,
		})
	}

	for id, prev := range prevIndex {
		if _, found := currIndex[id]; found {
			continue
		}

		resolved = append(resolved, entity.ChangeEvent{
			Kind:     entity.ChangeResolved,
			Region:   region,
			ID:       id,
			Previous: &prev,
		})
	}

	sortByID(created)
	sortByID(updated)
	sortByID(resolved)

	ret := make([]entity.ChangeEvent, 0, len(created)+len(updated)+len(resolved))
	ret = append(ret, created...)
	ret = append(ret, updated...)
	ret = append(ret, resolved...)

	return ret, nil
}

// Snapshots computes the change events of every region of regions that current holds, in the order of regions.
//
// Regions missing from current (not fetched this run) produce no event. A region whose diff fails is handed
// to skip and left out. The returned snapshot holds the current list of every region diffed successfully.
// A region listed twice is diffed once.
func Snapshots(regions []entity.RegionID, previous, current entity.Snapshot, skip func(entity.RegionID, error)) ([]entity.ChangeEvent, entity.Snapshot) {
	var events []entity.ChangeEvent

	diffed := entity.Snapshot{}
	seen := make(map[entity.RegionID]bool, len(regions))

	for _, region := range regions {
		if seen[region] || !current.Has(region) {
			continue
		}

		seen[region] = true

		regionEvents, err := Region(region, previous.Region(region), current.Region(region))
		if err != nil {
			skip(region, fmt.Errorf("failed to diff region %s: %w", region, err))

			continue
		}

		events = append(events, regionEvents...)
		diffed[region] = slices.Clone(current.Region(region))
	}

	return events, diffed
}

// Reconcile returns the incident list to persist for a region once the events of the run have been dispatched.
//
// It is current, except that every undelivered event is reverted to its previous state, so that
// diffing the result against current on the next run yields the same undelivered events again.
func Reconcile(current []entity.Incident, undelivered []entity.ChangeEvent) []entity.Incident {
	ret := make(map[entity.IncidentID]entity.Incident, len(current))
	for _, incident := range current {
		ret[incident.ID] = incident
	}

	for _, event := range undelivered {
		switch event.Kind {
		case entity.ChangeCreated:
			delete(ret, event.ID)
		case entity.ChangeUpdated, entity.ChangeResolved:
			if event.Previous != nil {
				ret[event.ID] = *event.Previous
			}
		}
	}

	list := make([]entity.Incident, 0, len(ret))
	for _, incident := range ret {
		list = append(list, incident)
	}

	entity.SortIncidents(list)

	return list
}

func index(region entity.RegionID, incidents []entity.Incident, side string) (map[entity.IncidentID]entity.Incident, error) {
	ret := make(map[entity.IncidentID]entity.Incident, len(incidents))

	for _, incident := range incidents {
		if incident.RegionID != region {
			return nil, integrityError(errForeignRegion, incident, "%s snapshot of region %s holds incident %s", side, region, incident.Key())
		}

		if _, found := ret[incident.ID]; found {
			return nil, integrityError(errDuplicateIdentity, incident, "%s snapshot of region %s holds incident %s more than once", side, region, incident.Key())
		}

		ret[incident.ID] = incident
	}

	return ret, nil
}

func integrityError(err error, incident entity.Incident, reason string, args ...interface{}) error {
	var inputs []pipeline.Input

	value, mErr := json.Marshal(incident)
	if mErr == nil {
		inputs = append(inputs, pipeline.Input{
			Source: "snapshot",
			Key:    incident.Key().String(),
			Value:  value,
		})
	}

	return common.NewErrProcessingError(fmt.Errorf("%w: %w", ErrDataIntegrity, err), CategoryDataIntegrity, inputs, reason, args...)
}

func sortByID(events []entity.ChangeEvent) {
	slices.SortFunc(events, func(a, b entity.ChangeEvent) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}
