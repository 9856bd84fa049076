package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/llm"
)

func (c *Client) Name() string { return "ai" }

// ExtractSlots implements extract.SlotExtractor.
func (c *Client) ExtractSlots(ctx context.Context, text, sourceURL string) (entity.Schedule, error) {
	s, _, err := c.ExtractSchedule(ctx, llm.ExtractRequest{
		Text:      text,
		SourceURL: sourceURL,
		Now:       c.now(),
		Sports:    c.cfg.Sports,
	})
	return s, err
}

// ExtractSchedule asks the chat/completions endpoint for the schedule in text.
// Every failure is an AppError: configuration (no API key), AI service
// (transport or non-2xx) or AI parse (empty, non-JSON or off-schema reply).
func (c *Client) ExtractSchedule(ctx context.Context, req llm.ExtractRequest) (entity.Schedule, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	if c.cfg.APIKey == "" {
		c.logger.Error("llm.extract.no_api_key", "req_id", rid)
		return entity.Schedule{}, nil, common.ConfigError("DEEPSEEK_API_KEY is not set")
	}

	text := llm.TruncateText(req.Text, c.cfg.MaxInputChars)
	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len([]rune(req.Text)),
		"truncated", text != req.Text,
		"url", req.SourceURL,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": llm.BuildUserPrompt(req, text)},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if status == 0 {
			return entity.Schedule{}, nil, common.AIServiceError("completion request failed", err)
		}
		msg := fmt.Sprintf("completion service returned HTTP %d", status)
		if snippet := strings.TrimSpace(string(raw)); snippet != "" {
			msg += ": " + truncate(snippet, 200)
		}
		return entity.Schedule{}, raw, common.AIServiceError(msg, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Schedule{}, raw, common.AIParseError("undecodable completion response", err)
	}
	var content string
	if len(cc.Choices) > 0 {
		content = strings.TrimSpace(cc.Choices[0].Message.Content)
	}
	if content == "" {
		c.logger.Error("llm.extract.empty_content",
			"req_id", rid, "choices", len(cc.Choices),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Schedule{}, raw, common.AIParseError("no content from completion service", nil)
	}

	rawContent := []byte(llm.StripCodeFence(content))
	if !json.Valid(rawContent) {
		c.logger.Error("llm.extract.invalid_json",
			"req_id", rid, "content", truncate(content, 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Schedule{}, rawContent, common.AIParseError("completion is not valid JSON", nil)
	}

	cleaned, changed, err := llm.NormalizeScheduleJSON(rawContent, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.sanitize_failed", "req_id", rid, "error", err)
		return entity.Schedule{}, rawContent, common.AIParseError("completion is not a JSON object", err)
	}
	if err := llm.ValidateJSON(c.schema, cleaned); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", truncate(string(cleaned), 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Schedule{}, cleaned, common.AIParseError("completion does not match schema", err)
	}

	var out entity.Schedule
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return entity.Schedule{}, cleaned, common.AIParseError("unmarshal schedule", err)
	}
	if out.Slots == nil {
		out.Slots = []entity.Slot{}
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"gym", out.GymName,
		"area", out.AreaName,
		"slots", len(out.Slots),
		"sanitized", len(changed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
