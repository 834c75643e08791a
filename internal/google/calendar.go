package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"morningbrief/internal/models"
)

const (
	credentialsFile = "credentials.json"

	// DefaultCalendarID is the authenticated user's main calendar.
	DefaultCalendarID = "primary"
)

// CalendarClient publishes brief events to a Google Calendar.
type CalendarClient struct {
	service    *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewClient creates a Google Calendar client for accountName, whose OAuth
// token must have been saved by the auth command as token-<account>.json.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName, calendarID string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := TokenFile(accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	return newClientFromHTTP(ctx, logger, config.Client(ctx, token), calendarID)
}

func newClientFromHTTP(ctx context.Context, logger *slog.Logger, httpClient *http.Client, calendarID string, opts ...option.ClientOption) (*CalendarClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &CalendarClient{service: service, calendarID: calendarID, logger: logger}, nil
}

// Publish inserts the event and returns the link to it in Google Calendar.
func (c *CalendarClient) Publish(ctx context.Context, event *models.Event) (string, error) {
	c.logger.Debug("Inserting event into Google Calendar", "calendarID", c.calendarID, "summary", event.Summary)

	created, err := c.service.Events.Insert(c.calendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	c.logger.Info("Published brief to Google Calendar", "calendarID", c.calendarID, "eventID", created.Id)
	return created.HtmlLink, nil
}

// toGoogleEvent converts the internal Event model to a Google Calendar event.
func toGoogleEvent(event *models.Event) *calendar.Event {
	attendees := make([]*calendar.EventAttendee, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{
			Email:          a.Email,
			ResponseStatus: a.ResponseStatus,
		})
	}

	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.LocationText(),
		Start:       &calendar.EventDateTime{DateTime: event.Start.DateTime, TimeZone: event.Start.Zone()},
		End:         &calendar.EventDateTime{DateTime: event.End.DateTime, TimeZone: event.End.Zone()},
		Attendees:   attendees,
	}
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	return config, nil
}

// TokenFromWeb exchanges an authorization code for a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenFile is the file the token of accountName is stored in.
func TokenFile(accountName string) string {
	return fmt.Sprintf("token-%s.json", accountName)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the accounts that have a token file in dir.
func GetTokenAccounts(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
