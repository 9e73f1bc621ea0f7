package diff_test

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/outage-notifier/internal/diff"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

// Helper

func ts(s string) *time.Time {
	ret, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}

	return &ret
}

func incident(region entity.RegionID, id entity.IncidentID, areas ...string) entity.Incident {
	return entity.Incident{
		RegionID:      region,
		ID:            id,
		Status:        entity.StatusActive,
		CreatedBy:     "ΔΕΔΔΗΕ",
		Type:          entity.TypeEmergency,
		AffectedAreas: areas,
		StartTime:     ts("2026-02-13T08:00"),
	}
}

func kinds(events []entity.ChangeEvent) []string {
	ret := make([]string, 0, len(events))
	for _, e := range events {
		ret = append(ret, string(e.Kind)+":"+e.Key().String())
	}

	return ret
}

// Scenarios

func TestRegionScenarios(t *testing.T) {
	type testCase struct {
		name     string
		previous []entity.Incident
		current  func() []entity.Incident
		expected []string
		fields   map[entity.IncidentID][]entity.Field
	}

	withETA := incident("0205", 100, "A", "B")
	withETA.ETAEstimated = ts("2026-02-13T12:00")

	cases := []testCase{
		{
			name:     "eta appears",
			previous: []entity.Incident{incident("0205", 100, "A", "B")},
			current:  func() []entity.Incident { return []entity.Incident{withETA} },
			expected: []string{"updated:0205:100"},
			fields:   map[entity.IncidentID][]entity.Field{100: {entity.FieldETAEstimated}},
		},
		{
			name:     "first run",
			current:  func() []entity.Incident { return []entity.Incident{incident("0205", 200, "A")} },
			expected: []string{"created:0205:200"},
		},
		{
			name:     "incident disappears",
			previous: []entity.Incident{incident("0205", 300, "A")},
			current:  func() []entity.Incident { return []entity.Incident{} },
			expected: []string{"resolved:0205:300"},
		},
		{
			name:     "nomos relabelled only",
			previous: []entity.Incident{incident("0205", 400, "A")},
			current: func() []entity.Incident {
				i := incident("0205", 400, "A")
				i.Nomos = "Νομός Αττικής"

				return []entity.Incident{i}
			},
		},
		{
			name:     "provider reports resolved while still listed",
			previous: []entity.Incident{incident("0205", 500, "A")},
			current: func() []entity.Incident {
				i := incident("0205", 500, "A")
				i.Status = entity.StatusResolved

				return []entity.Incident{i}
			},
			expected: []string{"updated:0205:500"},
			fields:   map[entity.IncidentID][]entity.Field{500: {entity.FieldStatus}},
		},
		{
			name: "mixed transitions are grouped then sorted by id",
			previous: []entity.Incident{
				incident("0205", 9, "A"),
				incident("0205", 3, "A"),
				incident("0205", 7, "A"),
				incident("0205", 1, "A"),
			},
			current: func() []entity.Incident {
				return []entity.Incident{
					incident("0205", 8, "A"),
					incident("0205", 7, "A", "B"),
					incident("0205", 2, "A"),
					incident("0205", 3, "B"),
				}
			},
			expected: []string{
				"created:0205:2", "created:0205:8",
				"updated:0205:3", "updated:0205:7",
				"resolved:0205:1", "resolved:0205:9",
			},
		},
	}

	for i := range cases {
		c := cases[i]

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			events, err := diff.Region("0205", c.previous, c.current())
			require.NoError(t, err)

			assert.Equal(t, c.expected, nilIfEmpty(kinds(events)))

			for _, e := range events {
				if expected, ok := c.fields[e.ID]; ok {
					assert.Equal(t, expected, e.ChangedFields, "changed fields of %d", e.ID)
				}

				switch e.Kind {
				case entity.ChangeCreated:
					assert.Nil(t, e.Previous)
					assert.NotNil(t, e.Current)
				case entity.ChangeResolved:
					assert.NotNil(t, e.Previous)
					assert.Nil(t, e.Current)
				case entity.ChangeUpdated:
					assert.NotNil(t, e.Previous)
					assert.NotNil(t, e.Current)
					assert.NotEmpty(t, e.ChangedFields)
				}
			}
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}

	return s
}

func TestProviderResolvedIsNotDisappearance(t *testing.T) {
	previous := []entity.Incident{incident("0205", 1, "A"), incident("0205", 2, "A")}

	stillListed := incident("0205", 1, "A")
	stillListed.Status = entity.StatusResolved

	events, err := diff.Region("0205", previous, []entity.Incident{stillListed})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, entity.ChangeUpdated, events[0].Kind)
	assert.True(t, events[0].ProviderResolved())

	assert.Equal(t, entity.ChangeResolved, events[1].Kind)
	assert.False(t, events[1].ProviderResolved())
}

// Properties

func TestIdempotence(t *testing.T) {
	snapshot := []entity.Incident{incident("0205", 1, "A", "B"), incident("0205", 2, "C")}

	for i := 0; i < 2; i++ {
		events, err := diff.Region("0205", snapshot, snapshot)
		require.NoError(t, err)
		assert.Empty(t, events)
	}
}

func TestNoFalsePositiveOnReorderedCopies(t *testing.T) {
	previous := []entity.Incident{incident("0205", 1, "A", "B"), incident("0205", 2, "C", "D")}

	current := []entity.Incident{incident("0205", 2, "D", "C"), incident("0205", 1, "B", "A")}
	current[0].StartTime = ts("2026-02-13T08:00")

	events, err := diff.Region("0205", previous, current)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCompleteness(t *testing.T) {
	var previous, current []entity.Incident

	for id := entity.IncidentID(1); id <= 20; id++ {
		if id%2 == 0 {
			previous = append(previous, incident("0205", id, "A"))
		}

		if id%3 == 0 {
			current = append(current, incident("0205", id, "A"))
		}
	}

	events, err := diff.Region("0205", previous, current)
	require.NoError(t, err)

	created := map[entity.IncidentID]int{}
	resolved := map[entity.IncidentID]int{}

	for _, e := range events {
		switch e.Kind {
		case entity.ChangeCreated:
			created[e.ID]++
		case entity.ChangeResolved:
			resolved[e.ID]++
		default:
			t.Fatalf("unexpected event %s", e.Kind)
		}
	}

	for id := entity.IncidentID(1); id <= 20; id++ {
		inPrevious, inCurrent := id%2 == 0, id%3 == 0

		switch {
		case inCurrent && !inPrevious:
			assert.Equal(t, 1, created[id], "created %d", id)
		case inPrevious && !inCurrent:
			assert.Equal(t, 1, resolved[id], "resolved %d", id)
		default:
			assert.Zero(t, created[id]+resolved[id], "no event for %d", id)
		}
	}
}

func TestFieldChangeIsolation(t *testing.T) {
	previous := incident("0205", 1, "A")
	current := previous
	current.ETAEstimated = ts("2026-02-14T10:00")

	events, err := diff.Region("0205", []entity.Incident{previous}, []entity.Incident{current})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []entity.Field{entity.FieldETAEstimated}, events[0].ChangedFields)
}

// Integrity

func TestDuplicateIdentityIsReported(t *testing.T) {
	duplicated := []entity.Incident{incident("0205", 1, "A"), incident("0205", 1, "B")}

	for _, side := range []string{"previous", "current"} {
		t.Run(side, func(t *testing.T) {
			t.Parallel()

			var err error
			if side == "previous" {
				_, err = diff.Region("0205", duplicated, nil)
			} else {
				_, err = diff.Region("0205", nil, duplicated)
			}

			require.ErrorIs(t, err, diff.ErrDataIntegrity)
			assert.Contains(t, err.Error(), side)

			pErr := pipeline.AsProcessingError(err)
			assert.Equal(t, diff.CategoryDataIntegrity, pErr.Category)
			require.Len(t, pErr.AdditionalInputs, 1)
			assert.Equal(t, "0205:1", pErr.AdditionalInputs[0].Key)
		})
	}
}

func TestForeignRegionIsReported(t *testing.T) {
	_, err := diff.Region("0205", nil, []entity.Incident{incident("0101", 1, "A")})
	require.ErrorIs(t, err, diff.ErrDataIntegrity)
}

// Snapshots

func noSkip(t *testing.T) func(entity.RegionID, error) {
	return func(region entity.RegionID, err error) {
		t.Errorf("unexpected failure of region %s: %v", region, err)
	}
}

func TestSnapshotsFollowsRegionOrderAndSkipsMissingRegions(t *testing.T) {
	previous := entity.Snapshot{
		"0101": {incident("0101", 5, "A")},
		"0205": {incident("0205", 5, "A")},
	}

	current := entity.Snapshot{
		"0205": {incident("0205", 6, "A")},
		"0303": {incident("0303", 1, "A")},
	}

	events, diffed := diff.Snapshots([]entity.RegionID{"0303", "0101", "0205"}, previous, current, noSkip(t))

	assert.Equal(t, []string{
		"created:0303:1",
		"created:0205:6",
		"resolved:0205:5",
	}, kinds(events), "0101 was not fetched and is left alone")
	assert.Equal(t, []entity.RegionID{"0205", "0303"}, diffed.Regions())
	assert.Equal(t, current.Region("0205"), diffed.Region("0205"))
}

func TestSnapshotsDiffsARepeatedRegionOnce(t *testing.T) {
	current := entity.Snapshot{"0205": {incident("0205", 200, "A")}}

	events, diffed := diff.Snapshots([]entity.RegionID{"0205", "0205"}, entity.Snapshot{}, current, noSkip(t))

	assert.Equal(t, []string{"created:0205:200"}, kinds(events))
	assert.Equal(t, 1, diffed.Len())
}

func TestSnapshotsSkipsRegionsFailingIntegrity(t *testing.T) {
	current := entity.Snapshot{
		"0101": {incident("0101", 1, "A")},
		"0205": {incident("0205", 1, "A"), incident("0205", 1, "A")},
	}

	skipped := map[entity.RegionID]error{}

	events, diffed := diff.Snapshots([]entity.RegionID{"0205", "0101"}, entity.Snapshot{}, current, func(region entity.RegionID, err error) {
		skipped[region] = err
	})

	require.Len(t, skipped, 1)
	require.ErrorIs(t, skipped["0205"], diff.ErrDataIntegrity)
	assert.Contains(t, skipped["0205"].Error(), "region 0205")

	assert.Equal(t, []string{"created:0101:1"}, kinds(events))
	assert.False(t, diffed.Has("0205"))
	assert.True(t, diffed.Has("0101"))
}

// Reconcile

func TestReconcile(t *testing.T) {
	previous := []entity.Incident{incident("0205", 1, "A"), incident("0205", 2, "A"), incident("0205", 3, "A")}

	updated := incident("0205", 2, "A", "B")
	current := []entity.Incident{updated, incident("0205", 3, "A"), incident("0205", 4, "A")}

	events, err := diff.Region("0205", previous, current)
	require.NoError(t, err)
	require.Equal(t, []string{"created:0205:4", "updated:0205:2", "resolved:0205:1"}, kinds(events))

	t.Run("everything delivered", func(t *testing.T) {
		t.Parallel()

		next := diff.Reconcile(current, nil)

		again, err := diff.Region("0205", next, current)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("nothing delivered", func(t *testing.T) {
		t.Parallel()

		next := diff.Reconcile(current, events)

		again, err := diff.Region("0205", next, current)
		require.NoError(t, err)
		assert.Equal(t, kinds(events), kinds(again), "undelivered events come back unchanged")
	})

	t.Run("only the update failed", func(t *testing.T) {
		t.Parallel()

		undelivered := slices.DeleteFunc(slices.Clone(events), func(e entity.ChangeEvent) bool {
			return e.Kind != entity.ChangeUpdated
		})

		next := diff.Reconcile(current, undelivered)

		again, err := diff.Region("0205", next, current)
		require.NoError(t, err)
		assert.Equal(t, []string{"updated:0205:2"}, kinds(again))
	})
}
