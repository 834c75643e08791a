package brief

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"morningbrief/internal/models"
)

const (
	// Summary is the title of every brief event.
	Summary = "Morning Brief ☕️"

	AttendeeEmail          = "contact@eriks.design"
	AttendeeResponseStatus = "accepted"

	// DefaultOffset is appended to the event times as a literal. It is not
	// derived from the persona's timezone.
	DefaultOffset = "+01:00"
)

var offsetPattern = regexp.MustCompile(`^(Z|[+-]\d{2}:\d{2})$`)

// Schedule places the brief event on the calendar. The start is today's date
// on the local clock at StartHour:00, and both times are written with Offset
// as a fixed suffix regardless of the persona's declared timezone.
type Schedule struct {
	StartHour int
	Duration  time.Duration
	Offset    string
}

// DefaultSchedule is 08:00 for one hour at +01:00.
func DefaultSchedule() Schedule {
	return Schedule{StartHour: 8, Duration: time.Hour, Offset: DefaultOffset}
}

// Validate checks the schedule's fields.
func (s Schedule) Validate() error {
	if s.StartHour < 0 || s.StartHour > 23 {
		return fmt.Errorf("start hour %d out of range 0-23", s.StartHour)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", s.Duration)
	}
	if !offsetPattern.MatchString(s.Offset) {
		return fmt.Errorf("invalid UTC offset %q, want Z or ±HH:MM", s.Offset)
	}
	return nil
}

// Mapper turns generated markdown into a calendar event.
type Mapper struct {
	Schedule Schedule
	// NewUID returns the iCalendar UID of each event. Defaults to a random UUID.
	NewUID func() string
}

// NewMapper returns a Mapper with the given schedule.
func NewMapper(s Schedule) *Mapper {
	return &Mapper{Schedule: s, NewUID: func() string { return uuid.New().String() }}
}

// Event builds the brief event. text is embedded verbatim as the description,
// whatever its length or layout. Only the persona's city and timezone are
// taken from rec, and neither is defaulted: a missing one stays nil.
func (m *Mapper) Event(text string, rec models.Record, now time.Time) *models.Event {
	start := time.Date(now.Year(), now.Month(), now.Day(), m.Schedule.StartHour, 0, 0, 0, now.Location())
	end := start.Add(m.Schedule.Duration)
	var tz, city *string
	if p := rec.Persona; p != nil {
		tz, city = clone(p.Timezone), clone(p.City)
	}

	var uid string
	if m.NewUID != nil {
		uid = m.NewUID()
	}

	return &models.Event{
		Summary:     Summary,
		Description: text,
		Start:       models.EventTime{DateTime: m.format(start), TimeZone: tz},
		End:         models.EventTime{DateTime: m.format(end), TimeZone: clone(tz)},
		Location:    city,
		Attendees: []models.Attendee{
			{Email: AttendeeEmail, ResponseStatus: AttendeeResponseStatus},
		},
		UID: uid,
	}
}

func (m *Mapper) format(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") + m.Schedule.Offset
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
