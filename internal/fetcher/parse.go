package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-logr/logr"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/diff"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

var (
	areaListKeys = []string{
		"lektikoGenikonDiakoponList",
		"exyphretoumeniPerioxiList",
		"exyphretoumeniDhmEnothtaList",
		"kallikratikiDhmotikiEnothtaList",
		"kallikratikosOTAList",
	}

	areaTextKeys = []string{
		"text",
		"name",
		"perioxi",
		"perioxh",
		"peri",
		"description",
		"title",
		"ota",
		"nomos",
		"dhm_enothta",
		"dhm_enothta_name",
		"kallikratikos_ota",
	}

	nomosListKeys = []string{"kallikratikiNomarxiaList"}
	nomosTextKeys = []string{"peri", "name", "text", "nomos"}
)

var errMissingID = errors.New("record without integer id")

type record map[string]any

func decodeBody(body []byte) ([]record, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload any

	err := decoder.Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("malformed json: %w", err)
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected json structure %T, expected list", payload)
	}

	ret := make([]record, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		ret = append(ret, obj)
	}

	return ret, nil
}

// parseRecords builds the incidents of region. Records without area are skipped;
// several records with the same id are merged, keeping the one with the latest restoration time.
func parseRecords(region entity.RegionID, records []record) ([]entity.Incident, error) {
	byID := make(map[entity.IncidentID]entity.Incident, len(records))
	scores := make(map[entity.IncidentID]int64, len(records))

	for i, r := range records {
		id, ok := toInt(r["id"])
		if !ok {
			value, _ := json.Marshal(r)

			return nil, common.NewErrProcessingError(
				fmt.Errorf("%w: %w", diff.ErrDataIntegrity, errMissingID),
				diff.CategoryDataIntegrity,
				[]pipeline.Input{{Source: "provider", Key: fmt.Sprintf("%s[%d]", region, i), Value: value}},
				"invalid record %d of region %s", i, region,
			)
		}

		areas := extractAreas(r)
		if len(areas) == 0 {
			continue
		}

		incident := entity.Incident{
			RegionID:      region,
			ID:            entity.IncidentID(id),
			Status:        entity.StatusFromActive(toBool(r["is_active"])),
			CreatedBy:     stringOr(r["creator"], "Unknown"),
			Type:          entity.TypeLabel(stringOr(r["cause"], ""), isTrue(r["is_scheduled"])),
			AffectedAreas: areas,
			StartTime:     toTime(r["start_date"]),
			ETAAnnounced:  toTime(r["end_date_announced"]),
			ETAEstimated:  toTime(r["end_date"]),
			Nomos:         extractNomos(r),
		}

		score := restorationScore(r)

		existing, found := scores[incident.ID]
		if found && score < existing {
			continue
		}

		byID[incident.ID] = incident
		scores[incident.ID] = score
	}

	ret := make([]entity.Incident, 0, len(byID))
	for _, incident := range byID {
		ret = append(ret, incident)
	}

	entity.SortIncidents(ret)

	return ret, nil
}

func restorationScore(r record) int64 {
	for _, key := range []string{"end_date_announced", "end_date"} {
		if v, ok := toInt(r[key]); ok && v != 0 {
			return v
		}
	}

	return 0
}

func extractAreas(r record) []string {
	areas := map[string]struct{}{}

	for _, key := range areaListKeys {
		for _, text := range listTexts(r[key], areaTextKeys) {
			areas[text] = struct{}{}
		}
	}

	ret := make([]string, 0, len(areas))
	for area := range areas {
		ret = append(ret, area)
	}

	slices.Sort(ret)

	return ret
}

func extractNomos(r record) string {
	for _, key := range nomosListKeys {
		texts := listTexts(r[key], nomosTextKeys)
		if len(texts) > 0 {
			return texts[0]
		}
	}

	return ""
}

// listTexts returns the normalized, non numeric texts of a list of strings or objects.
func listTexts(value any, keys []string) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}

	var ret []string

	for _, item := range items {
		var candidates []string

		switch v := item.(type) {
		case map[string]any:
			candidates = itemTexts(v, keys)
		case string:
			candidates = []string{v}
		}

		for _, c := range candidates {
			normalized := normalize(c)
			if normalized == "" || isNumeric(normalized) {
				continue
			}

			ret = append(ret, normalized)
		}
	}

	return ret
}

// itemTexts looks up the known keys first, then any key mentioning a name or a text.
func itemTexts(item map[string]any, keys []string) []string {
	var ret []string

	for _, key := range keys {
		if s, ok := item[key].(string); ok && strings.TrimSpace(s) != "" {
			ret = append(ret, s)
		}
	}

	if len(ret) > 0 {
		return ret
	}

	itemKeys := make([]string, 0, len(item))
	for key := range item {
		itemKeys = append(itemKeys, key)
	}

	slices.Sort(itemKeys)

	for _, key := range itemKeys {
		s, ok := item[key].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}

		lowered := strings.ToLower(key)
		if strings.Contains(lowered, "name") || strings.Contains(lowered, "text") {
			ret = append(ret, s)
		}
	}

	return ret
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return s != ""
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}

		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return int64(f), true
	case float64:
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}

		return i, true
	default:
		return 0, false
	}
}

func toTime(value any) *time.Time {
	ms, ok := toInt(value)
	if !ok {
		return nil
	}

	ret := time.UnixMilli(ms).UTC()

	return &ret
}

func toBool(value any) *bool {
	b, ok := value.(bool)
	if !ok {
		return nil
	}

	return &b
}

func isTrue(value any) bool {
	b, ok := value.(bool)

	return ok && b
}

func stringOr(value any, fallback string) string {
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}

	return s
}

func logPayloadSample(logger logr.Logger, records []record) {
	logger.Info("Payload sample", "payloads", len(records))

	if len(records) == 0 {
		return
	}

	first := records[0]

	keys := make([]string, 0, len(first))
	for key := range first {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	logger.Info("First payload keys", "keys", keys)

	for _, key := range append(slices.Clone(areaListKeys), nomosListKeys...) {
		items, ok := first[key].([]any)
		if !ok {
			continue
		}

		kv := []any{"list", key, "length", len(items)}

		if len(items) > 0 {
			if item, ok := items[0].(map[string]any); ok {
				itemKeys := make([]string, 0, len(item))
				for k := range item {
					itemKeys = append(itemKeys, k)
				}

				slices.Sort(itemKeys)

				kv = append(kv, "firstItemKeys", itemKeys)
			}
		}

		logger.Info("Payload list", kv...)
	}
}
