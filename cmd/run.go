package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"morningbrief/internal/brief"
	"morningbrief/internal/caldav"
	"morningbrief/internal/google"
	"morningbrief/internal/models"
	"morningbrief/internal/openai"
	"morningbrief/internal/persona"
)

const defaultOutputFile = "description.md"

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: persona.DefaultFile, Usage: "Persona and calendar file (.json, .yaml or .yml)."},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: defaultOutputFile, Usage: "File the brief markdown is written to."},
		&cli.StringFlag{Name: "ics", Usage: "Also write the event as an iCalendar file at this path."},
		&cli.StringFlag{Name: "publish", Usage: "Publish the event to 'google' or 'caldav' after generating it."},
		&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be published without publishing."},

		&cli.StringFlag{Name: "openai-api-key", EnvVars: []string{"OPENAI_API_KEY"}, Usage: "OpenAI API key."},
		&cli.StringFlag{Name: "openai-base-url", Value: openai.DefaultBaseURL, EnvVars: []string{"OPENAI_BASE_URL"}},
		&cli.StringFlag{Name: "model", Value: openai.DefaultModel, EnvVars: []string{"OPENAI_MODEL"}},
		&cli.StringFlag{Name: "reasoning-effort", Value: openai.DefaultReasoningEffort, EnvVars: []string{"OPENAI_REASONING_EFFORT"}, Usage: "minimal, low, medium or high"},
		&cli.StringFlag{Name: "search-context-size", Value: openai.DefaultSearchContextSize, EnvVars: []string{"OPENAI_SEARCH_CONTEXT_SIZE"}},
		&cli.BoolFlag{Name: "web-search", Value: true, Usage: "Enable the web search tool. Disable to send only the prompt."},

		&cli.StringFlag{Name: "utc-offset", Value: brief.DefaultOffset, EnvVars: []string{"BRIEF_UTC_OFFSET"}, Usage: "Offset literal appended to the event's start and end times."},

		&cli.StringFlag{Name: "google-client-id", EnvVars: []string{"GOOGLE_CLIENT_ID"}},
		&cli.StringFlag{Name: "google-client-secret", EnvVars: []string{"GOOGLE_CLIENT_SECRET"}},
		&cli.StringFlag{Name: "google-account", EnvVars: []string{"GOOGLE_ACCOUNT"}, Usage: "Account saved by 'auth'. Defaults to the first token file found."},
		&cli.StringFlag{Name: "google-calendar-id", Value: google.DefaultCalendarID, EnvVars: []string{"GOOGLE_CALENDAR_ID"}},

		&cli.StringFlag{Name: "caldav-endpoint", Value: caldav.DefaultEndpoint, EnvVars: []string{"CALDAV_ENDPOINT"}},
		&cli.StringFlag{Name: "caldav-username", EnvVars: []string{"CALDAV_USERNAME"}},
		&cli.StringFlag{Name: "caldav-password", EnvVars: []string{"CALDAV_PASSWORD"}},
		&cli.StringFlag{Name: "caldav-calendar-name", EnvVars: []string{"CALDAV_CALENDAR_NAME"}},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Generate the morning brief, write it to a file and print the calendar event JSON.",
		// The run flags live on the app only. Redeclaring them here would
		// shadow values given before the command name.
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	logger := setupLogger(c.String("log-level"))

	publishTarget := c.String("publish")
	switch publishTarget {
	case "", "google", "caldav":
	default:
		return fmt.Errorf("unknown publish target %q, want google or caldav", publishTarget)
	}

	schedule := brief.DefaultSchedule()
	schedule.Offset = c.String("utc-offset")
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("invalid event schedule: %w", err)
	}

	client, err := openai.NewClient(logger, nil, openai.Config{
		APIKey:            c.String("openai-api-key"),
		BaseURL:           c.String("openai-base-url"),
		Model:             c.String("model"),
		ReasoningEffort:   c.String("reasoning-effort"),
		SearchContextSize: c.String("search-context-size"),
		Verbosity:         openai.DefaultVerbosity,
		WebSearch:         c.Bool("web-search"),
	})
	if err != nil {
		return fmt.Errorf("failed to create openai client: %w", err)
	}

	gen := brief.NewGenerator(logger, client, brief.NewMapper(schedule))
	event, err := generate(c.Context, logger, gen, c.String("input"), c.String("out"), os.Stdout)
	if err != nil {
		return err
	}

	if path := c.String("ics"); path != "" {
		if err := caldav.WriteFile(path, event); err != nil {
			return fmt.Errorf("failed to write ics file: %w", err)
		}
		logger.Info("Calendar file saved.", "file", path)
	}

	if publishTarget == "" {
		return nil
	}
	if c.Bool("dry-run") {
		logger.Info("[DRY RUN] Would publish brief", "target", publishTarget, "start", event.Start.DateTime)
		return nil
	}
	return publish(c, logger, publishTarget, event)
}

// generate runs the pipeline for the record at inputPath. On success the
// description is written to outPath and the event JSON to stdout. On failure
// neither is written.
func generate(ctx context.Context, logger *slog.Logger, gen *brief.Generator, inputPath, outPath string, stdout io.Writer) (*models.Event, error) {
	logger.Info("Loading persona+calendar data...", "file", inputPath)
	rec := persona.Load(logger, inputPath)
	if !rec.IsEmpty() {
		name := "Unknown"
		if rec.Persona != nil && rec.Persona.Name != nil {
			name = *rec.Persona.Name
		}
		logger.Info("Loaded persona data.", "name", name)
	}

	event, err := gen.Generate(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("could not generate morning brief: %w", err)
	}

	if err := os.WriteFile(outPath, []byte(event.Description), 0o644); err != nil {
		return nil, fmt.Errorf("failed to save brief: %w", err)
	}
	logger.Info("Morning brief saved.", "file", outPath,
		"length", humanize.Comma(int64(utf8.RuneCountInString(event.Description)))+" characters")

	if err := writeEventJSON(stdout, event); err != nil {
		return nil, fmt.Errorf("failed to print calendar event: %w", err)
	}
	return event, nil
}

// writeEventJSON prints the event indented by two spaces, leaving non-ASCII
// text and markdown characters unescaped.
func writeEventJSON(w io.Writer, event *models.Event) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(event)
}

func publish(c *cli.Context, logger *slog.Logger, target string, event *models.Event) error {
	switch target {
	case "google":
		account := c.String("google-account")
		if account == "" {
			accounts, err := google.GetTokenAccounts(".")
			if err != nil {
				return fmt.Errorf("could not list google accounts: %w", err)
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no google accounts found. Run the 'auth' command first")
			}
			account = accounts[0]
		}

		gClient, err := google.NewClient(c.Context, logger, c.String("google-client-id"), c.String("google-client-secret"), account, c.String("google-calendar-id"))
		if err != nil {
			return fmt.Errorf("failed to create google client for account %s: %w", account, err)
		}
		link, err := gClient.Publish(c.Context, event)
		if err != nil {
			return fmt.Errorf("failed to publish to google calendar: %w", err)
		}
		logger.Info("Event available in Google Calendar.", "link", link)

	case "caldav":
		p, err := caldav.NewPublisher(c.Context, logger, caldav.Config{
			Endpoint:     c.String("caldav-endpoint"),
			Username:     c.String("caldav-username"),
			Password:     c.String("caldav-password"),
			CalendarName: c.String("caldav-calendar-name"),
		})
		if err != nil {
			return fmt.Errorf("failed to create caldav publisher: %w", err)
		}
		if _, err := p.Publish(c.Context, event); err != nil {
			return fmt.Errorf("failed to publish over caldav: %w", err)
		}
	}
	return nil
}
