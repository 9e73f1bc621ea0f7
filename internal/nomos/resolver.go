// Package nomos resolves the display label of the sub-region an incident belongs to.
package nomos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Resolver maps a region to its nomos label. The zero value resolves every region to its fallback label.
type Resolver struct {
	labels map[entity.RegionID]string
}

func NewResolver(labels map[entity.RegionID]string) Resolver {
	return Resolver{labels: labels}
}

// LoadFile reads a region to label map from a JSON or YAML file. A missing file is an empty map.
func LoadFile(path string) (Resolver, error) {
	if path == "" {
		return Resolver{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Resolver{}, nil
		}

		return Resolver{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	raw := map[string]string{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}

	if err != nil {
		return Resolver{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	labels := make(map[entity.RegionID]string, len(raw))

	for region, label := range raw {
		if strings.TrimSpace(label) == "" {
			continue
		}

		labels[entity.RegionID(region)] = label
	}

	return NewResolver(labels), nil
}

// Resolve returns the label reported by the provider, then the mapped one, then "ΝΕ <region>".
func (r Resolver) Resolve(incident entity.Incident) string {
	if incident.Nomos != "" {
		return incident.Nomos
	}

	if label, found := r.labels[incident.RegionID]; found {
		return label
	}

	return Fallback(incident.RegionID)
}

func Fallback(region entity.RegionID) string {
	if region == "" {
		return "Χωρίς νομό"
	}

	return "ΝΕ " + string(region)
}

// Annotate sets the nomos label of every incident carried by events, in place.
func (r Resolver) Annotate(events []entity.ChangeEvent) {
	for i := range events {
		if events[i].Previous != nil {
			annotated := *events[i].Previous
			annotated.Nomos = r.Resolve(annotated)
			events[i].Previous = &annotated
		}

		if events[i].Current != nil {
			annotated := *events[i].Current
			annotated.Nomos = r.Resolve(annotated)
			events[i].Current = &annotated
		}
	}
}

// AnnotateSnapshot returns a copy of snapshot with every incident labelled.
func (r Resolver) AnnotateSnapshot(snapshot entity.Snapshot) entity.Snapshot {
	ret := snapshot.Clone()

	for _, incidents := range ret {
		for i := range incidents {
			incidents[i].Nomos = r.Resolve(incidents[i])
		}
	}

	return ret
}
