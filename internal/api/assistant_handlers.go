package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/service"
)

func (s *Server) registerAssistantRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBeachWeather",
		Method:      http.MethodGet,
		Path:        "/api/v1/beaches/{slug}/weather",
		Summary:     "Current weather",
		Description: "Returns current conditions at the beach; available is false when the forecast service is unreachable",
		Tags:        []string{"Assistant"},
	}, s.handleBeachWeather)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBeachVibeSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/beaches/{slug}/vibe-summary",
		Summary:     "Vibe summary",
		Description: "Returns a short generated description of the beach's atmosphere",
		Tags:        []string{"Assistant"},
	}, s.handleVibeSummary)

	huma.Register(s.api, huma.Operation{
		OperationID:  "chat",
		Method:       http.MethodPost,
		Path:         "/api/v1/chat",
		Summary:      "Chat with the beach concierge",
		Description:  "Answers the latest message using the catalog as context",
		Tags:         []string{"Assistant"},
		MaxBodyBytes: 256 << 10,
		Middlewares:  huma.Middlewares{s.rateLimited(s.chatLimiter)},
	}, s.handleChat)
}

// BeachSlugInput identifies a beach by slug.
type BeachSlugInput struct {
	Slug string `path:"slug" doc:"Beach slug"`
}

// WeatherOutput wraps the weather report for Huma.
type WeatherOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         *service.WeatherReport
}

func (s *Server) handleBeachWeather(ctx context.Context, input *BeachSlugInput) (*WeatherOutput, error) {
	report, err := s.services.Assistant.Weather(ctx, input.Slug)
	if err != nil {
		return nil, s.apiError(err)
	}
	out := &WeatherOutput{Body: report}
	if report.Available {
		out.CacheControl = "public, max-age=600"
	}
	return out, nil
}

// VibeSummaryResponse contains the generated summary in API responses.
type VibeSummaryResponse struct {
	Summary string `json:"summary" doc:"Generated vibe summary"`
}

// VibeSummaryOutput wraps the vibe summary for Huma.
type VibeSummaryOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         VibeSummaryResponse
}

func (s *Server) handleVibeSummary(ctx context.Context, input *BeachSlugInput) (*VibeSummaryOutput, error) {
	summary, err := s.services.Assistant.VibeSummary(ctx, input.Slug)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &VibeSummaryOutput{CacheControl: CacheOneHour, Body: VibeSummaryResponse{Summary: summary}}, nil
}

// ChatRequest is the request body for the concierge chat.
type ChatRequest struct {
	Messages    []ai.Message `json:"messages" doc:"Conversation so far, oldest first"`
	CurrentSlug string       `json:"currentBeachSlug,omitempty" doc:"Slug of the beach the user is viewing"`
}

// ChatInput wraps the chat request for Huma.
type ChatInput struct {
	Body ChatRequest
}

// ChatResponse contains the concierge reply in API responses.
type ChatResponse struct {
	Reply string `json:"reply" doc:"Concierge reply"`
}

// ChatOutput wraps the chat response for Huma.
type ChatOutput struct {
	Body ChatResponse
}

func (s *Server) handleChat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	reply, err := s.services.Assistant.Chat(ctx, input.Body.CurrentSlug, input.Body.Messages)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &ChatOutput{Body: ChatResponse{Reply: reply}}, nil
}
