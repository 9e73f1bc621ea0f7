package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gridwatch/outage-notifier/internal/aggregate"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/nomos"
)

const (
	subject     = "DEDDIE Power Outage Updates"
	testSubject = "DEDDIE Power Outage Updates (Test)"

	titleNew      = "ΝΕΕΣ ΔΙΑΚΟΠΕΣ ΔΕΔΔΗΕ"
	titleUpdated  = "ΕΝΗΜΕΡΩΣΕΙΣ"
	titleKnown    = "ΓΝΩΣΤΕΣ ΔΙΑΚΟΠΕΣ ΔΕΔΔΗΕ"
	titleRestored = "ΑΠΟΚΑΤΑΣΤΑΣΕΙΣ"
	titleTest     = "ΕΝΕΡΓΕΣ ΔΙΑΚΟΠΕΣ (TEST)"

	noKnownIncident = "Καμία ενεργή διακοπή."
	noTestIncident  = "No active outages (test)."

	timeLayout = "02/01/2006 15:04"
	unknown    = "Unknown"
)

var columns = []string{
	"Νομός",
	"Επηρεαζόμενες περιοχές",
	"Έναρξη βλάβης",
	"Εκτιμώμενη αποκατάσταση",
	"Ανακοινωμένη αποκατάσταση",
	"Incident ID",
	"Created By",
	"Type",
	"Status",
	"NE_ID",
}

var fieldLabels = map[entity.Field]string{
	entity.FieldStatus:        "Status",
	entity.FieldAffectedAreas: "Επηρεαζόμενες περιοχές",
	entity.FieldStartTime:     "Έναρξη βλάβης",
	entity.FieldETAAnnounced:  "Ανακοινωμένη αποκατάσταση",
	entity.FieldETAEstimated:  "Εκτιμώμενη αποκατάσταση",
	entity.FieldType:          "Type",
	entity.FieldCreatedBy:     "Created By",
}

var kindSubjects = map[entity.ChangeKind]string{
	entity.ChangeCreated:  "new incident",
	entity.ChangeUpdated:  "updated incident",
	entity.ChangeResolved: "restored incident",
}

type row struct {
	Nomos      string
	NEID       string
	Areas      string
	Start      string
	ETA        string
	Announced  string
	IncidentID string
	CreatedBy  string
	Type       string
	Status     string
	Changes    string
}

func (r row) Cells() []string {
	return []string{r.Nomos, r.Areas, r.Start, r.ETA, r.Announced, r.IncidentID, r.CreatedBy, r.Type, r.Status, r.NEID}
}

type section struct {
	Title string
	Rows  []row
	Empty string
}

type body struct {
	Columns  []string
	Sections []section
	Empty    string
}

var htmlTemplate = template.Must(template.New("html").Parse(
	`<html><body style="font-family:Segoe UI,Arial,sans-serif;">
{{- range .Sections}}<h3 style="margin:16px 0 8px 0;">{{.Title}}</h3>
{{- if .Rows}}<table style="border-collapse:collapse;width:100%;font-family:Segoe UI,Arial,sans-serif;font-size:13px;"><thead><tr>
{{- range $.Columns}}<th style="border:1px solid #999;padding:6px;text-align:left;background:#f2f2f2;">{{.}}</th>{{end -}}
</tr></thead><tbody>
{{- range .Rows}}<tr>{{range .Cells}}<td style="border:1px solid #999;padding:6px;vertical-align:top;">{{.}}</td>{{end}}</tr>{{end -}}
</tbody></table>
{{- else}}<p>{{.Empty}}</p>{{end}}
{{- end}}
{{- if not .Sections}}<p>{{.Empty}}</p>{{end -}}
</body></html>`,
))

// Renderer turns change events into human readable messages, with times shown in location.
type Renderer struct {
	location *time.Location
	clock    clockwork.Clock
}

func NewRenderer(location *time.Location, clock clockwork.Clock) Renderer {
	return Renderer{
		location: location,
		clock:    clock,
	}
}

// Batch renders every event of a run in one message. known holds the incidents currently listed.
func (r Renderer) Batch(events []entity.ChangeEvent, known []entity.Incident) (Message, error) {
	var created, updated, resolved []entity.ChangeEvent

	createdKeys := map[entity.Key]struct{}{}

	for _, e := range events {
		switch e.Kind {
		case entity.ChangeCreated:
			created = append(created, e)
			createdKeys[e.Key()] = struct{}{}
		case entity.ChangeUpdated:
			updated = append(updated, e)
		case entity.ChangeResolved:
			resolved = append(resolved, e)
		}
	}

	var sections []section

	if len(created) > 0 {
		sections = append(sections, section{Title: titleNew, Rows: r.eventRows(created)})
	}

	if len(updated) > 0 {
		sections = append(sections, section{Title: titleUpdated, Rows: r.eventRows(updated)})
	}

	knownRows := make([]row, 0, len(known))

	for _, incident := range sortedIncidents(known) {
		if _, isNew := createdKeys[incident.Key()]; isNew {
			continue
		}

		knownRows = append(knownRows, r.incidentRow(incident, statusLabel(incident.Status)))
	}

	sections = append(sections, section{Title: titleKnown, Rows: knownRows, Empty: noKnownIncident})

	if len(resolved) > 0 {
		sections = append(sections, section{Title: titleRestored, Rows: r.eventRows(resolved)})
	}

	return r.message(subject, body{Columns: columns, Sections: sections}, events, false)
}

// Event renders a single event in its own message.
func (r Renderer) Event(event entity.ChangeEvent) (Message, error) {
	title := map[entity.ChangeKind]string{
		entity.ChangeCreated:  titleNew,
		entity.ChangeUpdated:  titleUpdated,
		entity.ChangeResolved: titleRestored,
	}[event.Kind]

	incident := event.Incident()

	subj := fmt.Sprintf("%s: %s %d (%s)", subject, kindSubjects[event.Kind], event.ID, aggregate.Label(displayNomos(incident)))

	b := body{
		Columns:  columns,
		Sections: []section{{Title: title, Rows: r.eventRows([]entity.ChangeEvent{event})}},
	}

	return r.message(subj, b, []entity.ChangeEvent{event}, false)
}

// Test renders the currently listed incidents, for a notification forced while nothing changed.
func (r Renderer) Test(current []entity.Incident) (Message, error) {
	b := body{Columns: columns, Empty: noTestIncident}

	if len(current) > 0 {
		rows := make([]row, 0, len(current))
		for _, incident := range sortedIncidents(current) {
			rows = append(rows, r.incidentRow(incident, statusLabel(incident.Status)))
		}

		b.Sections = []section{{Title: titleTest, Rows: rows}}
	}

	return r.message(testSubject, b, nil, true)
}

func (r Renderer) message(subj string, b body, events []entity.ChangeEvent, test bool) (Message, error) {
	html := &bytes.Buffer{}

	err := htmlTemplate.Execute(html, b)
	if err != nil {
		return Message{}, fmt.Errorf("failed to render html body: %w", err)
	}

	return Message{
		ID:        uuid.NewString(),
		Subject:   subj,
		Text:      renderText(b),
		HTML:      html.String(),
		Events:    events,
		CreatedAt: r.clock.Now(),
		Test:      test,
	}, nil
}

func renderText(b body) string {
	if len(b.Sections) == 0 {
		return b.Empty
	}

	blocks := make([]string, 0, len(b.Sections))

	for _, s := range b.Sections {
		sb := &strings.Builder{}
		sb.WriteString(s.Title)

		if len(s.Rows) == 0 {
			sb.WriteString("\n" + s.Empty)
		}

		for i, r := range s.Rows {
			if i > 0 {
				sb.WriteString("\n")
			}

			fmt.Fprintf(sb, "\n%d. %s | NE_ID: %s", i+1, r.Nomos, r.NEID)
			fmt.Fprintf(sb, "\nΕπηρεαζόμενες περιοχές: %s", r.Areas)
			fmt.Fprintf(sb, "\nΈναρξη: %s | ETA: %s | Ανακοινωμένη: %s", r.Start, r.ETA, r.Announced)
			fmt.Fprintf(sb, "\nIncident ID: %s | Created By: %s | Type: %s | Status: %s", r.IncidentID, r.CreatedBy, r.Type, r.Status)

			if r.Changes != "" {
				fmt.Fprintf(sb, "\nΑλλαγές: %s", r.Changes)
			}
		}

		blocks = append(blocks, sb.String())
	}

	return strings.Join(blocks, "\n\n")
}

// eventRows orders rows by nomos group, keeping the event order inside each group.
func (r Renderer) eventRows(events []entity.ChangeEvent) []row {
	var ret []row

	for _, group := range aggregate.ByNomos(events) {
		for _, e := range group.Events {
			incident := e.Incident()

			status := statusLabel(incident.Status)

			switch {
			case e.Kind == entity.ChangeResolved:
				status = "Restored"
			case e.ProviderResolved():
				status = "Inactive (still listed)"
			}

			row := r.incidentRow(incident, status)

			if e.Kind == entity.ChangeUpdated {
				row.Changes = changesLabel(e.ChangedFields)
			}

			ret = append(ret, row)
		}
	}

	return ret
}

func (r Renderer) incidentRow(incident entity.Incident, status string) row {
	areas := unknown
	if len(incident.AffectedAreas) > 0 {
		areas = strings.Join(incident.AffectedAreas, ", ")
	}

	createdBy := incident.CreatedBy
	if createdBy == "" {
		createdBy = unknown
	}

	kind := incident.Type
	if kind == "" {
		kind = unknown
	}

	return row{
		Nomos:      aggregate.Label(displayNomos(incident)),
		NEID:       string(incident.RegionID),
		Areas:      areas,
		Start:      r.formatTime(incident.StartTime),
		ETA:        r.formatTime(incident.ETAEstimated),
		Announced:  r.formatTime(incident.ETAAnnounced),
		IncidentID: incident.ID.String(),
		CreatedBy:  createdBy,
		Type:       kind,
		Status:     status,
	}
}

func (r Renderer) formatTime(t *time.Time) string {
	if t == nil {
		return unknown
	}

	return t.In(r.location).Format(timeLayout)
}

func displayNomos(incident entity.Incident) string {
	if incident.Nomos != "" {
		return incident.Nomos
	}

	return nomos.Fallback(incident.RegionID)
}

func statusLabel(status entity.Status) string {
	switch status {
	case entity.StatusActive:
		return "Active"
	case entity.StatusResolved:
		return "Inactive"
	default:
		return unknown
	}
}

func changesLabel(fields []entity.Field) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, fieldLabels[f])
	}

	return strings.Join(labels, ", ")
}

func sortedIncidents(incidents []entity.Incident) []entity.Incident {
	ret := slices.Clone(incidents)
	entity.SortIncidents(ret)

	return ret
}
