package models

// EventTime is a point in time as the Google Calendar API expects it:
// an RFC 3339 timestamp plus an IANA zone name carried as metadata.
// A nil TimeZone is written as null.
type EventTime struct {
	DateTime string  `json:"dateTime"`
	TimeZone *string `json:"timeZone"`
}

// Attendee is a guest on the event.
type Attendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"responseStatus"`
}

// Event is the calendar event that carries a generated brief.
// It is built once per run and never modified afterwards.
type Event struct {
	Summary     string     `json:"summary"`     // Fixed title of the brief event
	Description string     `json:"description"` // The model's markdown, verbatim
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Location    *string    `json:"location"` // Persona city, null if the input had none
	Attendees   []Attendee `json:"attendees"`
	UID         string     `json:"-"` // The iCalendar UID, used by .ics export and CalDAV
}

// Zone returns the zone name, or "" when there is none.
func (t EventTime) Zone() string {
	if t.TimeZone == nil {
		return ""
	}
	return *t.TimeZone
}

// LocationText returns the location, or "" when there is none.
func (e *Event) LocationText() string {
	if e.Location == nil {
		return ""
	}
	return *e.Location
}
