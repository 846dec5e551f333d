package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/internal/types"
)

// ErrMalformedResponse marks a completion-service answer that could not
// be parsed. It is recoverable: handlers surface it as a retryable
// failure, never a crash.
var ErrMalformedResponse = fmt.Errorf("completion service returned malformed itinerary JSON")

// Generate asks the completion service for a multi-day itinerary and
// parses its JSON answer leniently.
func (s *ServiceImpl) Generate(ctx context.Context, req types.GenerateRequest) (*types.GeneratedItinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Generate")
	defer span.End()

	prompt := buildGeneratePrompt(req)
	raw, err := s.aiClient.GenerateContent(ctx, prompt)
	if err != nil {
		metrics.Get().CompletionErrorsTotal.Add(ctx, 1)
		s.logger.ErrorContext(ctx, "Completion service failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion service failed")
		return nil, fmt.Errorf("failed to generate itinerary: %w", err)
	}

	generated, err := parseGeneratedItinerary(raw)
	if err != nil {
		metrics.Get().CompletionErrorsTotal.Add(ctx, 1)
		s.logger.WarnContext(ctx, "Malformed itinerary response",
			slog.Any("error", err), slog.Int("response_len", len(raw)))
		span.RecordError(err)
		return nil, ErrMalformedResponse
	}

	span.SetStatus(codes.Ok, "Itinerary generated")
	return generated, nil
}

func buildGeneratePrompt(req types.GenerateRequest) string {
	return fmt.Sprintf(`Create a %d-day itinerary for %s.
Preferences: %s.
Return only JSON with this shape:
{
  "itinerary_name": "...",
  "overall_description": "...",
  "days": [
    {"day": 1, "activities": ["...", "..."]}
  ]
}`, req.Days, req.Location, req.Preferences)
}

// parseGeneratedItinerary tolerates markdown code fences and leading
// prose around the JSON object.
func parseGeneratedItinerary(raw string) (*types.GeneratedItinerary, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var out types.GeneratedItinerary
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("failed to parse itinerary JSON: %w", err)
	}
	if out.Name == "" && len(out.Days) == 0 {
		return nil, fmt.Errorf("itinerary JSON missing required fields")
	}
	return &out, nil
}

// extractJSON pulls the outermost JSON object out of a completion answer,
// stripping ```json fences and surrounding text.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}
