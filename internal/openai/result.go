package openai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedPayload means the response carried no assistant text.
var ErrUnexpectedPayload = errors.New("unexpected response payload")

// Kind tags what a Result holds.
type Kind int

const (
	// KindText is a response with at least one output_text part.
	KindText Kind = iota
	// KindUnexpected is a response without any assistant text, for example
	// one that only holds reasoning or a refusal.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the decoded output of a Responses call.
type Result struct {
	Kind Kind
	// Text is every output_text part joined in order. Only set for KindText.
	Text string
	// Sources are the URLs the web search consulted or the text cites,
	// de-duplicated in order of first appearance.
	Sources []string
	// ItemTypes lists the output item types, in order.
	ItemTypes []string
}

// OutputText returns the text payload, or an error wrapping
// ErrUnexpectedPayload when the result is not text.
func (r *Result) OutputText() (string, error) {
	if r.Kind != KindText {
		return "", fmt.Errorf("%w: output items [%s]", ErrUnexpectedPayload, strings.Join(r.ItemTypes, ", "))
	}
	return r.Text, nil
}

type outputContent struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Refusal     string `json:"refusal"`
	Annotations []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"annotations"`
}

type outputItem struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content []outputContent `json:"content"`
	Action  *struct {
		Type    string `json:"type"`
		Query   string `json:"query"`
		Sources []struct {
			URL string `json:"url"`
		} `json:"sources"`
	} `json:"action"`
}

// response is the subset of the Responses API body that is read.
type response struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Output []outputItem `json:"output"`
	Error  *APIError    `json:"error"`
	Usage  struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r *response) result() *Result {
	res := &Result{Kind: KindUnexpected}
	var text strings.Builder
	seen := make(map[string]bool)
	addSource := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			res.Sources = append(res.Sources, u)
		}
	}

	for _, item := range r.Output {
		res.ItemTypes = append(res.ItemTypes, item.Type)
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Type != "output_text" {
					continue
				}
				res.Kind = KindText
				text.WriteString(c.Text)
				for _, a := range c.Annotations {
					addSource(a.URL)
				}
			}
		case "web_search_call":
			if item.Action != nil {
				for _, s := range item.Action.Sources {
					addSource(s.URL)
				}
			}
		}
	}

	if res.Kind == KindText {
		res.Text = text.String()
	}
	return res
}
