package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/store"
	"github.com/beachatlas/beachatlas-server/internal/validation"
	"github.com/beachatlas/beachatlas-server/internal/weather"
)

// MaxChatMessages is how much recent history Chat forwards to the model.
const MaxChatMessages = 20

// AssistantCatalog is the catalog access needed by the assistant.
type AssistantCatalog interface {
	GetBeachBySlug(ctx context.Context, slug string) (*domain.Beach, error)
	ListVibes(ctx context.Context, beachID string) ([]string, error)
	ListAllBeaches(ctx context.Context) ([]domain.Beach, error)
}

// WeatherSource reports current conditions, or nil when unavailable.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) *weather.Current
}

// Concierge generates the AI copy.
type Concierge interface {
	SummarizeVibe(ctx context.Context, name, description string, vibes []string) string
	Chat(ctx context.Context, catalog []domain.Beach, currentSlug string, messages []ai.Message) string
}

// WeatherReport is the weather for a beach. Available is false when the
// upstream could not be reached.
type WeatherReport struct {
	Available bool             `json:"available"`
	Label     string           `json:"label,omitempty"`
	Current   *weather.Current `json:"current,omitempty"`
}

type chatRequest struct {
	Messages []ai.Message `json:"messages" validate:"required,min=1,dive"`
}

// AssistantService serves the weather, vibe summary and chat features.
// Upstream failures degrade to empty values and never fail the request.
type AssistantService struct {
	catalog   AssistantCatalog
	weather   WeatherSource
	concierge Concierge
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAssistantService creates an assistant service.
func NewAssistantService(catalog AssistantCatalog, weather WeatherSource, concierge Concierge, logger *slog.Logger) *AssistantService {
	return &AssistantService{
		catalog:   catalog,
		weather:   weather,
		concierge: concierge,
		validator: validation.New(),
		logger:    logger,
	}
}

// Weather returns current conditions at the beach with the given slug.
func (s *AssistantService) Weather(ctx context.Context, slug string) (*WeatherReport, error) {
	beach, err := s.beach(ctx, slug)
	if err != nil {
		return nil, err
	}
	cur := s.weather.Current(ctx, beach.Coordinates.Lat, beach.Coordinates.Lon)
	if cur == nil {
		return &WeatherReport{}, nil
	}
	return &WeatherReport{Available: true, Label: cur.Label(), Current: cur}, nil
}

// VibeSummary returns the AI vibe check for a beach, or "" when the model
// is unavailable.
func (s *AssistantService) VibeSummary(ctx context.Context, slug string) (string, error) {
	beach, err := s.beach(ctx, slug)
	if err != nil {
		return "", err
	}
	vibes, err := s.catalog.ListVibes(ctx, beach.ID)
	if err != nil {
		return "", fmt.Errorf("list vibes: %w", err)
	}
	description := beach.ShortDescription
	if description == "" {
		description = beach.Description
	}
	return s.concierge.SummarizeVibe(ctx, beach.Name, description, vibes), nil
}

// Chat answers the last message with the whole catalog as context.
func (s *AssistantService) Chat(ctx context.Context, currentSlug string, messages []ai.Message) (string, error) {
	if err := s.validator.Validate(chatRequest{Messages: messages}); err != nil {
		return "", err
	}
	if len(messages) > MaxChatMessages {
		messages = messages[len(messages)-MaxChatMessages:]
	}

	catalog, err := s.catalog.ListAllBeaches(ctx)
	if err != nil {
		s.logger.Error("load chat catalog failed", "error", err)
		return ai.ChatFallback, nil
	}
	return s.concierge.Chat(ctx, catalog, currentSlug, messages), nil
}

func (s *AssistantService) beach(ctx context.Context, slug string) (*domain.Beach, error) {
	beach, err := s.catalog.GetBeachBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("beach %q not found", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get beach by slug: %w", err)
	}
	return beach, nil
}
