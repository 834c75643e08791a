// Package caldav exports brief events as iCalendar data and publishes them
// to a CalDAV server such as iCloud.
package caldav

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-ical"

	"morningbrief/internal/models"
)

const productID = "-//morningbrief//EN"

// NewCalendar wraps the event in a VCALENDAR.
func NewCalendar(event *models.Event, stamp time.Time) (*ical.Calendar, error) {
	vevent, err := toICal(event, stamp)
	if err != nil {
		return nil, err
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, vevent)
	return cal, nil
}

// EncodeEvent writes the event as an iCalendar document to w.
func EncodeEvent(w io.Writer, event *models.Event) error {
	cal, err := NewCalendar(event, time.Now())
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// WriteFile writes the event as an .ics file at path.
func WriteFile(path string, event *models.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeEvent(f, event); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Publish stores the event in the calendar and returns its object path.
func (p *Publisher) Publish(ctx context.Context, event *models.Event) (string, error) {
	p.logger.Debug("Publishing event over CalDAV", "summary", event.Summary, "uid", event.UID)

	cal, err := NewCalendar(event, time.Now())
	if err != nil {
		return "", err
	}

	objectPath := ObjectPath(p.calendarPath, event.UID)
	if _, err := p.client.PutCalendarObject(ctx, objectPath, cal); err != nil {
		return "", fmt.Errorf("failed to put event on CalDAV server: %w", err)
	}

	p.logger.Info("Published brief over CalDAV", "path", objectPath)
	return objectPath, nil
}

// toICal converts an Event to a VEVENT. Times are written in UTC because the
// event only carries a literal offset, not a zone the server could resolve.
func toICal(event *models.Event, stamp time.Time) (*ical.Component, error) {
	if event.UID == "" {
		return nil, fmt.Errorf("event has no UID")
	}
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.UID)
	ve.Props.SetText(ical.PropSummary, event.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if location := event.LocationText(); location != "" {
		ve.Props.SetText(ical.PropLocation, location)
	}
	for _, attendee := range event.Attendees {
		// CAL-ADDRESS is the default type, so no VALUE parameter is written.
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + attendee.Email
		if attendee.ResponseStatus == "accepted" {
			p.Params.Set("PARTSTAT", "ACCEPTED")
		}
		ve.Props.Add(p)
	}
	return ve, nil
}
