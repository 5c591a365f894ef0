// Package domain holds the event-reduction engine's core types and pure
// logic: event normalization, event-type classification and resource/spec
// value objects. Nothing in this package touches a database or the network.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Trait type codes from the upstream platform's wire convention (spec.md §4.1).
const (
	TraitTypeString    = 1
	TraitTypeInteger   = 2
	TraitTypeTimestamp = 4
)

// RawEvent is the wire shape of one event in an ingress batch (spec.md §6.1):
// traits arrive as a list of (name, type_code, value) triples rather than a
// map, because the upstream event bus emits them that way.
type RawEvent struct {
	Generated string     `json:"generated"`
	EventType string     `json:"event_type"`
	Traits    []RawTrait `json:"traits"`
}

// RawTrait is one (name, type_code, value) triple before normalization.
type RawTrait struct {
	Name     string
	TypeCode int
	Value    any
}

// UnmarshalJSON decodes a trait from its wire form: a 3-element heterogeneous
// JSON array, e.g. ["instance_type", 1, "v1-standard-1"].
func (t *RawTrait) UnmarshalJSON(data []byte) error {
	var tuple [3]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("trait is not a 3-element array: %w", err)
	}

	if err := json.Unmarshal(tuple[0], &t.Name); err != nil {
		return fmt.Errorf("trait name: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &t.TypeCode); err != nil {
		return fmt.Errorf("trait type code: %w", err)
	}

	var value any
	if err := json.Unmarshal(tuple[2], &value); err != nil {
		return fmt.Errorf("trait value: %w", err)
	}
	t.Value = value
	return nil
}

// Event is a normalized event: generated parsed to a timestamp, traits
// converted to a keyed map of typed values (spec.md §3 "Event", §4.1).
type Event struct {
	Generated time.Time
	EventType string
	Traits    map[string]any
}

// isoLayouts are the timestamp formats the upstream platform is observed to
// emit: with and without a zone offset, with and without microseconds.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseISO8601(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unparseable ISO-8601 timestamp %q: %w", value, lastErr)
}

// Normalize converts a RawEvent into an Event: parses `generated` and
// projects the trait triples into a name-keyed map, converting known type
// codes (spec.md §4.1). Pure function; fails with a descriptive error when
// `generated` is unparseable or a trait is structurally invalid — the caller
// maps that to `Malformed` / HTTP 400.
func Normalize(raw RawEvent) (Event, error) {
	generated, err := parseISO8601(raw.Generated)
	if err != nil {
		return Event{}, fmt.Errorf("generated: %w", err)
	}

	traits := make(map[string]any, len(raw.Traits))
	for _, trait := range raw.Traits {
		if trait.Name == "" {
			return Event{}, fmt.Errorf("trait with empty name")
		}

		value := trait.Value
		switch trait.TypeCode {
		case TraitTypeString:
			s, ok := value.(string)
			if !ok {
				return Event{}, fmt.Errorf("trait %q: type code 1 (string) with non-string value", trait.Name)
			}
			value = s
		case TraitTypeInteger:
			switch v := value.(type) {
			case float64:
				value = int64(v)
			case string:
				return Event{}, fmt.Errorf("trait %q: type code 2 (integer) with non-numeric value", trait.Name)
			}
		case TraitTypeTimestamp:
			s, ok := value.(string)
			if !ok {
				return Event{}, fmt.Errorf("trait %q: type code 4 (timestamp) with non-string value", trait.Name)
			}
			ts, err := parseISO8601(s)
			if err != nil {
				return Event{}, fmt.Errorf("trait %q: %w", trait.Name, err)
			}
			value = ts
		}
		traits[trait.Name] = value
	}

	return Event{
		Generated: generated,
		EventType: raw.EventType,
		Traits:    traits,
	}, nil
}

// TraitString returns trait `name` as a string, ok=false if missing or of a
// different type.
func (e Event) TraitString(name string) (string, bool) {
	v, ok := e.Traits[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// TraitInt returns trait `name` as an int64, ok=false if missing or of a
// different type.
func (e Event) TraitInt(name string) (int64, bool) {
	v, ok := e.Traits[name]
	if !ok {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// TraitTime returns trait `name` as a time.Time, ok=false if missing or of a
// different type.
func (e Event) TraitTime(name string) (time.Time, bool) {
	v, ok := e.Traits[name]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// HasTrait reports whether trait `name` is present, regardless of type.
func (e Event) HasTrait(name string) bool {
	_, ok := e.Traits[name]
	return ok
}
