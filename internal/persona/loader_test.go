package persona

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "persona+calendar.json", `{
  "now_iso": "2025-10-01T06:00:00Z",
  "persona": {"name": "Erik", "city": "Lisbon", "interests_keywords": ["design", "UX"]},
  "calendar": {
    "free_windows_today": ["12:30-14:00"],
    "upcoming_7d": [{"date": "2025-09-29", "title": "Freym sync w/ Johan", "location": "IDEA Spaces"}]
  },
  "limits": {"max_news": 2}
}`)

	rec := Load(testLogger(), path)
	if rec.IsEmpty() {
		t.Fatal("Expected a non-empty record")
	}
	if rec.NowISO == nil || *rec.NowISO != "2025-10-01T06:00:00Z" {
		t.Errorf("Unexpected now_iso: %v", rec.NowISO)
	}
	if got := rec.City(); got != "Lisbon" {
		t.Errorf("Expected city Lisbon, got %q", got)
	}
	if rec.Persona.Country != nil {
		t.Errorf("Expected absent country to stay nil, got %q", *rec.Persona.Country)
	}
	if len(rec.Persona.InterestsKeywords) != 2 {
		t.Errorf("Expected 2 interests, got %d", len(rec.Persona.InterestsKeywords))
	}
	if len(rec.Calendar.Upcoming7d) != 1 || rec.Calendar.Upcoming7d[0].Location != "IDEA Spaces" {
		t.Errorf("Unexpected upcoming events: %+v", rec.Calendar.Upcoming7d)
	}
	if rec.Limits.MaxNews == nil || *rec.Limits.MaxNews != "2" {
		t.Errorf("Unexpected max_news: %v", rec.Limits.MaxNews)
	}
	if rec.Limits.MaxEvents != nil {
		t.Error("Expected absent max_events to stay nil")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "persona.yaml", `
persona:
  name: Erik
  timezone: Europe/Lisbon
  typical_day:
    start_local: "09:30"
calendar:
  upcoming_7d:
    - date: "2025-10-01"
      title: AIhub meetup
      location: Saldanha
`)

	rec := Load(testLogger(), path)
	if rec.IsEmpty() {
		t.Fatal("Expected a non-empty record")
	}
	if got := rec.Timezone(); got != "Europe/Lisbon" {
		t.Errorf("Expected timezone Europe/Lisbon, got %q", got)
	}
	if rec.Persona.TypicalDay == nil || *rec.Persona.TypicalDay.StartLocal != "09:30" {
		t.Errorf("Unexpected typical day: %+v", rec.Persona.TypicalDay)
	}
	if len(rec.Calendar.Upcoming7d) != 1 || rec.Calendar.Upcoming7d[0].Title != "AIhub meetup" {
		t.Errorf("Unexpected upcoming events: %+v", rec.Calendar.Upcoming7d)
	}
}

func TestLoadFailuresReturnEmptyRecord(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "does-not-exist.json")},
		{"malformed json", writeFile(t, "bad.json", `{"persona": {"name": `)},
		{"wrong shape", writeFile(t, "list.json", `["not", "an", "object"]`)},
		{"malformed yaml", writeFile(t, "bad.yml", "persona: [unclosed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Load(testLogger(), tt.path)
			if !rec.IsEmpty() {
				t.Errorf("Expected empty record, got %+v", rec)
			}
			if _, err := Parse(tt.path); err == nil {
				t.Error("Expected Parse to report an error")
			}
		})
	}
}

func TestLoadEmptyObject(t *testing.T) {
	rec := Load(testLogger(), writeFile(t, "empty.json", `{}`))
	if !rec.IsEmpty() {
		t.Errorf("Expected {} to load as an empty record, got %+v", rec)
	}
}

func TestLoadUnknownKeysOnly(t *testing.T) {
	for name, path := range map[string]string{
		"json": writeFile(t, "other.json", `{"foo": 1}`),
		"yaml": writeFile(t, "other.yaml", "foo: 1\n"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := Load(testLogger(), path)
			if rec.IsEmpty() {
				t.Error("Expected an object with unknown keys to be non-empty")
			}
			if rec.Persona != nil || rec.Limits != nil {
				t.Errorf("Expected unknown keys to be ignored, got %+v", rec)
			}
		})
	}
}

func TestLoadLenientLimits(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"json", "limits.json", `{"limits": {"max_news": "3", "max_events": 3.0, "max_suggestions": 4}}`},
		{"yaml", "limits.yaml", "limits:\n  max_news: \"3\"\n  max_events: 3.0\n  max_suggestions: 4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			rec, err := Parse(path)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			l := rec.Limits
			if l == nil || l.MaxNews == nil || l.MaxEvents == nil || l.MaxSuggestions == nil {
				t.Fatalf("Expected limits to decode, got %+v", l)
			}
			if *l.MaxNews != "3" || *l.MaxEvents != "3.0" || *l.MaxSuggestions != "4" {
				t.Errorf("Unexpected limits %q/%q/%q", *l.MaxNews, *l.MaxEvents, *l.MaxSuggestions)
			}
			if l.MaxReminders != nil {
				t.Error("Expected absent max_reminders to stay nil")
			}
		})
	}
}
