package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/domain/repo"
)

const categoryEncoding = "snapshot_encoding"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encode marshals snapshot as the current document version.
func Encode(snapshot entity.Snapshot, updatedAt time.Time) ([]byte, error) {
	doc := Document{
		Version:   documentVersion,
		Regions:   make(map[string][]Incident, len(snapshot)),
		UpdatedAt: updatedAt.UTC(),
	}

	for region, incidents := range snapshot {
		sorted := slices.Clone(incidents)
		entity.SortIncidents(sorted)

		doc.Regions[string(region)] = mapToModels(sorted)
	}

	ret, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryEncoding, nil, "failed to marshal snapshot")
	}

	return ret, nil
}

// Decode unmarshals any known document version. Empty data is an empty snapshot.
// Documents older than version 2 hold no incident and return repo.ErrLegacySnapshot.
func Decode(data []byte) (entity.Snapshot, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if len(bytes.TrimSpace(data)) == 0 {
		return entity.Snapshot{}, nil
	}

	raw := rawDocument{}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryEncoding, nil, "failed to unmarshal snapshot")
	}

	switch {
	case raw.Version > documentVersion:
		return nil, common.NewErrProcessingError(fmt.Errorf("unsupported version %d", raw.Version), categoryEncoding, nil, "failed to decode snapshot")
	case raw.Regions != nil:
		return decodeRegions(raw.Regions), nil
	case raw.Incidents != nil:
		return decodeV2(raw.Incidents)
	case raw.Areas != nil:
		return entity.Snapshot{}, repo.ErrLegacySnapshot
	default:
		return entity.Snapshot{}, nil
	}
}

// DecodeRegion unmarshals the incident list of one region, as stored by row oriented backends.
func DecodeRegion(region entity.RegionID, data []byte) ([]entity.Incident, error) {
	var incidents []Incident

	err := json.Unmarshal(data, &incidents)
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryEncoding, nil, "failed to unmarshal incidents of region %s", region)
	}

	return mapToEntity(region, incidents), nil
}

// EncodeRegion marshals the incident list of one region.
func EncodeRegion(incidents []entity.Incident) ([]byte, error) {
	sorted := slices.Clone(incidents)
	entity.SortIncidents(sorted)

	ret, err := json.Marshal(mapToModels(sorted))
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryEncoding, nil, "failed to marshal incidents")
	}

	return ret, nil
}

func decodeRegions(regions map[string][]Incident) entity.Snapshot {
	ret := make(entity.Snapshot, len(regions))

	for region, incidents := range regions {
		ret[entity.RegionID(region)] = mapToEntity(entity.RegionID(region), incidents)
	}

	return ret
}

func decodeV2(incidents map[string]IncidentV2) (entity.Snapshot, error) {
	ret := entity.Snapshot{}

	for rawKey, incident := range incidents {
		key, err := entity.ParseKey(rawKey)
		if err != nil {
			if incident.NEID == "" {
				return nil, common.NewErrProcessingError(err, categoryEncoding, nil, "failed to migrate version 2 snapshot")
			}

			key = entity.Key{Region: entity.RegionID(incident.NEID), ID: entity.IncidentID(incident.IncidentID)}
		}

		ret[key.Region] = append(ret[key.Region], mapV2ToEntity(key, incident))
	}

	for _, list := range ret {
		entity.SortIncidents(list)
	}

	return ret, nil
}
