package brief

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"morningbrief/internal/models"
	"morningbrief/internal/openai"
	"morningbrief/internal/prompt"
)

type fakeResponder struct {
	result       *openai.Result
	err          error
	calls        int
	instructions string
	prompt       string
}

func (f *fakeResponder) Respond(ctx context.Context, instructions, userPrompt string) (*openai.Result, error) {
	f.calls++
	f.instructions = instructions
	f.prompt = userPrompt
	return f.result, f.err
}

func newTestGenerator(r Responder) *Generator {
	g := NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), r, fixedMapper())
	g.now = func() time.Time { return time.Date(2025, 9, 27, 6, 30, 0, 0, time.UTC) }
	return g
}

func TestGenerateComposesPrompt(t *testing.T) {
	fake := &fakeResponder{result: &openai.Result{Kind: openai.KindText, Text: "Good morning Erik!"}}
	rec := models.Record{Persona: &models.Persona{Name: str("Erik"), City: str("Lisbon"), Timezone: str("Europe/Lisbon")}}

	event, err := newTestGenerator(fake).Generate(context.Background(), rec)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("Expected exactly 1 call, got %d", fake.calls)
	}
	if fake.instructions != prompt.System {
		t.Error("Expected the fixed system instruction to be sent")
	}
	want, _ := prompt.Compose(rec)
	if fake.prompt != want {
		t.Error("Expected the composed prompt to be sent")
	}
	if event.Description != "Good morning Erik!" {
		t.Errorf("Unexpected description %q", event.Description)
	}
	if event.LocationText() != "Lisbon" || event.Start.Zone() != "Europe/Lisbon" {
		t.Errorf("Unexpected event metadata %+v", event)
	}
	if event.Start.DateTime != "2025-09-27T08:00:00+01:00" {
		t.Errorf("Unexpected start %q", event.Start.DateTime)
	}
}

func TestGenerateEmptyRecordUsesBackupPrompt(t *testing.T) {
	fake := &fakeResponder{result: &openai.Result{Kind: openai.KindText, Text: "brief"}}

	event, err := newTestGenerator(fake).Generate(context.Background(), models.Record{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if fake.prompt != prompt.Backup {
		t.Errorf("Expected backup prompt, got:\n%s", fake.prompt)
	}
	if event == nil {
		t.Fatal("Expected an event")
	}
}

func TestGenerateCallFailure(t *testing.T) {
	boom := errors.New("connection reset")
	fake := &fakeResponder{err: boom}

	event, err := newTestGenerator(fake).Generate(context.Background(), models.Record{})
	if event != nil {
		t.Errorf("Expected no event, got %+v", event)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped call error, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("Expected no retry, got %d calls", fake.calls)
	}
}

func TestGenerateFailureLeavesLoggingToCaller(t *testing.T) {
	var logs strings.Builder
	g := newTestGenerator(&fakeResponder{err: errors.New("connection reset")})
	g.logger = slog.New(slog.NewTextHandler(&logs, nil))

	if _, err := g.Generate(context.Background(), models.Record{}); err == nil {
		t.Fatal("Expected an error")
	}
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("Expected no error log from Generate, got:\n%s", logs.String())
	}
}

func TestGenerateUnexpectedPayload(t *testing.T) {
	fake := &fakeResponder{result: &openai.Result{Kind: openai.KindUnexpected, ItemTypes: []string{"reasoning"}}}

	event, err := newTestGenerator(fake).Generate(context.Background(), models.Record{})
	if event != nil {
		t.Errorf("Expected no event, got %+v", event)
	}
	if !errors.Is(err, openai.ErrUnexpectedPayload) {
		t.Errorf("Expected ErrUnexpectedPayload, got %v", err)
	}
}

func TestGenerateUnknownKeysUseComposedPrompt(t *testing.T) {
	fake := &fakeResponder{result: &openai.Result{Kind: openai.KindText, Text: "brief"}}
	rec := models.Record{HasKeys: true}

	if _, err := newTestGenerator(fake).Generate(context.Background(), rec); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want, _ := prompt.Compose(models.Record{})
	if fake.prompt != want {
		t.Errorf("Expected the defaulted composed prompt, got:\n%s", fake.prompt)
	}
}

func TestUserPrompt(t *testing.T) {
	got, err := UserPrompt(models.Record{})
	if err != nil || got != prompt.Backup {
		t.Errorf("Expected backup prompt for empty record, got err=%v", err)
	}

	got, err = UserPrompt(models.Record{NowISO: str("2025-10-01T06:00:00Z")})
	if err != nil {
		t.Fatalf("UserPrompt failed: %v", err)
	}
	if !strings.HasPrefix(got, "Run a morning brief.\n\nnow_iso: 2025-10-01T06:00:00Z\n") {
		t.Errorf("Unexpected composed prompt:\n%s", got)
	}
}
