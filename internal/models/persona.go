package models

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Record is the persona and calendar description a brief is personalized
// from. Every field is optional. Pointer and slice fields stay nil when the
// key is absent from the input so that defaults apply only to missing keys.
type Record struct {
	NowISO   *string   `json:"now_iso,omitempty" yaml:"now_iso,omitempty"`
	Persona  *Persona  `json:"persona,omitempty" yaml:"persona,omitempty"`
	Calendar *Calendar `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	Limits   *Limits   `json:"limits,omitempty" yaml:"limits,omitempty"`

	// HasKeys is set by the loader when the input object had at least one
	// key, known or not.
	HasKeys bool `json:"-" yaml:"-"`
}

// IsEmpty reports whether the record came from an empty object: no key at
// all, known or unknown.
func (r Record) IsEmpty() bool {
	return !r.HasKeys && r.NowISO == nil && r.Persona == nil && r.Calendar == nil && r.Limits == nil
}

// Persona describes the person the brief is written for.
type Persona struct {
	Name              *string     `json:"name,omitempty" yaml:"name,omitempty"`
	Timezone          *string     `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	City              *string     `json:"city,omitempty" yaml:"city,omitempty"`
	Country           *string     `json:"country,omitempty" yaml:"country,omitempty"`
	Description       *string     `json:"description,omitempty" yaml:"description,omitempty"`
	InterestsKeywords []string    `json:"interests_keywords,omitempty" yaml:"interests_keywords,omitempty"`
	TypicalDay        *TypicalDay `json:"typical_day,omitempty" yaml:"typical_day,omitempty"`
}

// TypicalDay holds local wall-clock bounds such as "09:30" or "23:00–08:00".
type TypicalDay struct {
	StartLocal *string `json:"start_local,omitempty" yaml:"start_local,omitempty"`
	EndLocal   *string `json:"end_local,omitempty" yaml:"end_local,omitempty"`
	QuietHours *string `json:"quiet_hours,omitempty" yaml:"quiet_hours,omitempty"`
}

// Calendar is today's availability plus the next seven days of commitments.
type Calendar struct {
	FreeWindowsToday []string        `json:"free_windows_today,omitempty" yaml:"free_windows_today,omitempty"`
	Upcoming7d       []UpcomingEvent `json:"upcoming_7d,omitempty" yaml:"upcoming_7d,omitempty"`
}

// UpcomingEvent is a single existing commitment.
type UpcomingEvent struct {
	Date     string `json:"date" yaml:"date"`
	Title    string `json:"title" yaml:"title"`
	Location string `json:"location" yaml:"location"`
}

// Limits caps how many items each brief section may contain.
type Limits struct {
	MaxNews        *Limit `json:"max_news,omitempty" yaml:"max_news,omitempty"`
	MaxEvents      *Limit `json:"max_events,omitempty" yaml:"max_events,omitempty"`
	MaxSuggestions *Limit `json:"max_suggestions,omitempty" yaml:"max_suggestions,omitempty"`
	MaxReminders   *Limit `json:"max_reminders,omitempty" yaml:"max_reminders,omitempty"`
}

// Limit is a section cap kept as the text it was written with, so 3, 3.0
// and "3" all decode and render as given.
type Limit string

// UnmarshalJSON accepts a JSON string, whose contents are kept, or any other
// value, whose literal text is kept.
func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Limit(s)
		return nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return err
	}
	*l = Limit(compact.String())
	return nil
}

// UnmarshalYAML keeps the scalar's text. Collections are rejected.
func (l *Limit) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		var s string
		return value.Decode(&s)
	}
	*l = Limit(value.Value)
	return nil
}

// City returns the persona's city as given in the input, or "" when absent.
func (r Record) City() string {
	if r.Persona == nil || r.Persona.City == nil {
		return ""
	}
	return *r.Persona.City
}

// Timezone returns the persona's declared timezone, or "" when absent.
func (r Record) Timezone() string {
	if r.Persona == nil || r.Persona.Timezone == nil {
		return ""
	}
	return *r.Persona.Timezone
}
