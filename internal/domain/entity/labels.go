package entity

import (
	"strings"
	"unicode"
)

const (
	TypeScheduled = "Scheduled Outage"
	TypeEmergency = "Emergency Outage"
	TypeUnknown   = "Unknown"
)

var causeLabels = map[string]string{
	"OUTAGE":    TypeEmergency,
	"EMERGENCY": TypeEmergency,
	"SCHEDULED": TypeScheduled,
}

// TypeLabel turns the provider cause and scheduling flag into the incident type.
func TypeLabel(cause string, scheduled bool) string {
	if scheduled {
		return TypeScheduled
	}

	upper := strings.ToUpper(strings.TrimSpace(cause))
	if label, ok := causeLabels[upper]; ok {
		return label
	}

	if upper == "" {
		return TypeUnknown
	}

	return titleCase(strings.ReplaceAll(upper, "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)

	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
