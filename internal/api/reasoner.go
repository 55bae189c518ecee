package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/handover/pkg/models"
)

// Reasoner is the single-shot completion surface the pipeline stages
// depend on. Stages never see the SDK directly, so tests can script
// responses.
type Reasoner interface {
	// Complete sends one system+user prompt pair and returns the text reply.
	Complete(ctx context.Context, system, user string) (string, error)
	// CompleteStructured completes and unmarshals the reply as JSON into out,
	// recovering payloads wrapped in markdown fences or surrounding prose.
	CompleteStructured(ctx context.Context, system, user string, out any) error
}

const defaultMaxTokens = 8192

// Complete implements Reasoner against the Anthropic API.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return sb.String(), nil
}

// CompleteStructured implements Reasoner against the Anthropic API.
func (c *Client) CompleteStructured(ctx context.Context, system, user string, out any) error {
	raw, err := c.Complete(ctx, system, user)
	if err != nil {
		return err
	}
	return DecodeJSON(raw, out)
}

// DecodeJSON unmarshals a model reply into out. Models often wrap JSON
// in ```json fences or lead with prose; both forms are recovered.
func DecodeJSON(raw string, out any) error {
	payload := ExtractJSON(raw)
	if payload == "" {
		return fmt.Errorf("no JSON payload in reply: %q", truncate(raw, 120))
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode reply JSON: %w", err)
	}
	return nil
}

// ExtractJSON pulls the JSON document out of a model reply. It prefers
// a fenced code block, then falls back to the outermost object or array
// delimiters. Returns "" when no candidate is found.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			// Drop the language tag line ("json", "JSON", or empty).
			tag := strings.TrimSpace(rest[:nl])
			if tag == "" || strings.EqualFold(tag, "json") {
				rest = rest[nl+1:]
				if end := strings.Index(rest, "```"); end >= 0 {
					return strings.TrimSpace(rest[:end])
				}
				return strings.TrimSpace(rest)
			}
		}
	}

	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	closer := byte('}')
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
		closer = ']'
	}
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// NormalizeQuestions parses a lenient question list: entries may be
// plain strings or objects with text/question and optional evidence
// keys. Malformed entries are dropped, not fatal.
func NormalizeQuestions(raw json.RawMessage) []models.ReportQuestion {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var out []models.ReportQuestion
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				out = append(out, models.ReportQuestion{Text: text})
			}
			continue
		}
		var obj struct {
			Text     string `json:"text"`
			Question string `json:"question"`
			Evidence string `json:"evidence"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		text = strings.TrimSpace(obj.Text)
		if text == "" {
			text = strings.TrimSpace(obj.Question)
		}
		if text == "" {
			continue
		}
		out = append(out, models.ReportQuestion{Text: text, Evidence: strings.TrimSpace(obj.Evidence)})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
