// Package brief runs the morning brief pipeline: pick a prompt for the
// persona record, ask the model for the brief and map its markdown into a
// calendar event.
package brief

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"morningbrief/internal/models"
	"morningbrief/internal/openai"
	"morningbrief/internal/prompt"
)

// Responder sends one instruction/prompt pair to a text generation service.
// *openai.Client implements it.
type Responder interface {
	Respond(ctx context.Context, instructions, prompt string) (*openai.Result, error)
}

// Generator orchestrates a single brief generation.
type Generator struct {
	logger    *slog.Logger
	responder Responder
	mapper    *Mapper
	now       func() time.Time
}

// NewGenerator creates a new Generator.
func NewGenerator(logger *slog.Logger, responder Responder, mapper *Mapper) *Generator {
	return &Generator{
		logger:    logger,
		responder: responder,
		mapper:    mapper,
		now:       time.Now,
	}
}

// UserPrompt returns the prompt for rec, or the backup prompt when rec is empty.
func UserPrompt(rec models.Record) (string, error) {
	if rec.IsEmpty() {
		return prompt.Backup, nil
	}
	return prompt.Compose(rec)
}

// Generate produces the brief event for rec. On failure it returns the error
// with a nil event and leaves logging it to the caller; there is no retry and
// no partial result.
func (g *Generator) Generate(ctx context.Context, rec models.Record) (*models.Event, error) {
	if rec.IsEmpty() {
		g.logger.Warn("No persona data loaded, using the backup prompt.")
	}
	userPrompt, err := UserPrompt(rec)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Requesting morning brief with web search.")
	text, err := g.request(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	event := g.mapper.Event(text, rec, g.now())
	g.logger.Info("Morning brief generated.", "start", event.Start.DateTime, "location", event.LocationText())
	return event, nil
}

func (g *Generator) request(ctx context.Context, userPrompt string) (string, error) {
	res, err := g.responder.Respond(ctx, prompt.System, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}

	text, err := res.OutputText()
	if err != nil {
		return "", err
	}
	g.logger.Debug("Received brief", "kind", res.Kind, "chars", len(text), "sources", len(res.Sources))
	for _, src := range res.Sources {
		g.logger.Debug("Brief source", "url", src)
	}
	return text, nil
}
