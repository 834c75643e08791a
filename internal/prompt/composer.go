// Package prompt renders the text sent to the brief generator.
//
// The developer instruction (System) and the backup user prompt (Backup) are
// fixed. Compose renders the user prompt for a persona record, substituting
// documented defaults for every missing field.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"morningbrief/internal/models"
)

// System is the developer instruction that fixes the brief's markdown layout,
// its ranking rules and its word budget.
//
//go:embed templates/system.md
var System string

// Backup is the user prompt sent when no persona record could be loaded.
//
//go:embed templates/backup.txt
var Backup string

//go:embed templates/user_prompt.tmpl
var userPromptTemplate string

// Defaults applied when a key is missing from the record.
const (
	DefaultNowISO      = "2025-09-27T06:30:00Z"
	DefaultName        = "Erik"
	DefaultTimezone    = "Europe/Lisbon"
	DefaultCity        = "Lisbon"
	DefaultCountry     = "Portugal"
	DefaultDescription = "A professional in design"
	DefaultStartLocal  = "09:30"
	DefaultEndLocal    = "17:30"
	DefaultQuietHours  = "23:00–08:00"

	DefaultMaxNews        = 3
	DefaultMaxEvents      = 3
	DefaultMaxSuggestions = 3
	DefaultMaxReminders   = 4
)

var (
	DefaultInterests   = []string{"design", "UX", "AI"}
	DefaultFreeWindows = []string{"12:30-14:00", "18:30-20:00"}
)

var userPrompt = template.Must(template.New("user_prompt").
	Funcs(template.FuncMap{"quoteList": quoteList}).
	Parse(userPromptTemplate))

// view is the fully defaulted data the user prompt template renders.
type view struct {
	NowISO      string
	Timezone    string
	Name        string
	City        string
	Country     string
	Description string
	Interests   []string
	StartLocal  string
	EndLocal    string
	QuietHours  string
	FreeWindows []string
	Upcoming    []models.UpcomingEvent

	MaxNews        string
	MaxEvents      string
	MaxSuggestions string
	MaxReminders   string
}

// Compose renders the user prompt for rec. It is deterministic and has no
// side effects. Missing fields never cause an error; defaults fill them in.
func Compose(rec models.Record) (string, error) {
	var buf bytes.Buffer
	if err := userPrompt.Execute(&buf, newView(rec)); err != nil {
		return "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return buf.String(), nil
}

func newView(rec models.Record) view {
	v := view{
		NowISO:         orDefault(rec.NowISO, DefaultNowISO),
		Name:           DefaultName,
		Timezone:       DefaultTimezone,
		City:           DefaultCity,
		Country:        DefaultCountry,
		Description:    DefaultDescription,
		Interests:      DefaultInterests,
		StartLocal:     DefaultStartLocal,
		EndLocal:       DefaultEndLocal,
		QuietHours:     DefaultQuietHours,
		FreeWindows:    DefaultFreeWindows,
		MaxNews:        strconv.Itoa(DefaultMaxNews),
		MaxEvents:      strconv.Itoa(DefaultMaxEvents),
		MaxSuggestions: strconv.Itoa(DefaultMaxSuggestions),
		MaxReminders:   strconv.Itoa(DefaultMaxReminders),
	}

	if p := rec.Persona; p != nil {
		v.Name = orDefault(p.Name, DefaultName)
		v.Timezone = orDefault(p.Timezone, DefaultTimezone)
		v.City = orDefault(p.City, DefaultCity)
		v.Country = orDefault(p.Country, DefaultCountry)
		v.Description = orDefault(p.Description, DefaultDescription)
		if p.InterestsKeywords != nil {
			v.Interests = p.InterestsKeywords
		}
		if d := p.TypicalDay; d != nil {
			v.StartLocal = orDefault(d.StartLocal, DefaultStartLocal)
			v.EndLocal = orDefault(d.EndLocal, DefaultEndLocal)
			v.QuietHours = orDefault(d.QuietHours, DefaultQuietHours)
		}
	}

	if c := rec.Calendar; c != nil {
		if c.FreeWindowsToday != nil {
			v.FreeWindows = c.FreeWindowsToday
		}
		v.Upcoming = c.Upcoming7d
	}

	if l := rec.Limits; l != nil {
		v.MaxNews = limitOrDefault(l.MaxNews, DefaultMaxNews)
		v.MaxEvents = limitOrDefault(l.MaxEvents, DefaultMaxEvents)
		v.MaxSuggestions = limitOrDefault(l.MaxSuggestions, DefaultMaxSuggestions)
		v.MaxReminders = limitOrDefault(l.MaxReminders, DefaultMaxReminders)
	}
	return v
}

// quoteList renders items as ["a","b"]. An empty list renders as [""].
func quoteList(items []string) string {
	return `["` + strings.Join(items, `","`) + `"]`
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// limitOrDefault renders a limit as it was written in the input.
func limitOrDefault(l *models.Limit, def int) string {
	if l == nil {
		return strconv.Itoa(def)
	}
	return string(*l)
}
