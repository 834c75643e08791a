package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-webdav/caldav"
)

// DefaultEndpoint is the iCloud CalDAV server.
const DefaultEndpoint = "https://caldav.icloud.com/"

// basicAuthTransport handles adding Basic Auth and custom headers to requests.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "morningbrief/1.0")
	return t.Transport.RoundTrip(req)
}

// Config locates the CalDAV calendar briefs are published to.
type Config struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarName string
}

// Publisher writes brief events into one CalDAV calendar.
type Publisher struct {
	client       *caldav.Client
	logger       *slog.Logger
	calendarPath string
}

// NewPublisher connects to the server and resolves the calendar named in cfg.
func NewPublisher(ctx context.Context, logger *slog.Logger, cfg Config) (*Publisher, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.CalendarName == "" {
		return nil, fmt.Errorf("no CalDAV calendar name configured")
	}

	httpClient := &http.Client{Transport: &basicAuthTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}}

	client, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	p := &Publisher{client: client, logger: logger}

	logger.Info("Finding CalDAV calendar", "endpoint", cfg.Endpoint, "calendarName", cfg.CalendarName)
	calendarPath, err := p.findCalendar(ctx, cfg.CalendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", cfg.CalendarName, err)
	}
	p.calendarPath = calendarPath
	logger.Info("Found CalDAV calendar", "path", calendarPath)

	return p, nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (p *Publisher) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := p.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := p.client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := p.client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// ObjectPath is where an event with the given UID is stored in calendarPath.
func ObjectPath(calendarPath, uid string) string {
	return path.Join("/", strings.TrimSuffix(calendarPath, "/"), uid+".ics")
}
