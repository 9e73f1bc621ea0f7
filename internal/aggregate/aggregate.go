// Package aggregate groups change events by nomos for presentation.
package aggregate

import (
	"strings"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/nomos"
)

const nomosPrefix = "νομός "

type Group struct {
	Nomos  string
	Events []entity.ChangeEvent
}

// ByNomos groups events by the nomos of their incident, falling back to the region label.
// Groups come in order of first appearance and keep the order of their events; no event is added or removed.
func ByNomos(events []entity.ChangeEvent) []Group {
	var ret []Group

	index := map[string]int{}

	for _, event := range events {
		incident := event.Incident()

		label := incident.Nomos
		if label == "" {
			label = nomos.Fallback(event.Region)
		}

		i, found := index[label]
		if !found {
			i = len(ret)
			index[label] = i

			ret = append(ret, Group{Nomos: label})
		}

		ret[i].Events = append(ret[i].Events, event)
	}

	return ret
}

// Label formats a nomos for display, without its leading "Νομός".
func Label(nomos string) string {
	text := strings.Join(strings.Fields(nomos), " ")

	if strings.HasPrefix(strings.ToLower(text), nomosPrefix) {
		return strings.TrimSpace(string([]rune(text)[len([]rune(nomosPrefix)):]))
	}

	return text
}
