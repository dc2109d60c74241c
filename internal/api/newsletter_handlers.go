package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/beachatlas/beachatlas-server/internal/service"
)

func (s *Server) registerNewsletterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "subscribeNewsletter",
		Method:      http.MethodPost,
		Path:        "/api/v1/newsletter",
		Summary:     "Subscribe to the newsletter",
		Description: "Adds an email address to the newsletter; subscribing twice succeeds",
		Tags:        []string{"Newsletter"},
		Middlewares: huma.Middlewares{s.rateLimited(s.newsletterLimiter)},
	}, s.handleSubscribe)
}

// SubscribeRequest is the request body for a newsletter signup.
type SubscribeRequest struct {
	Email string `json:"email" doc:"Email address"`
}

// SubscribeInput wraps the signup request for Huma.
type SubscribeInput struct {
	Body SubscribeRequest
}

// SubscribeOutput wraps the signup result for Huma.
type SubscribeOutput struct {
	Body *service.SubscribeResult
}

func (s *Server) handleSubscribe(ctx context.Context, input *SubscribeInput) (*SubscribeOutput, error) {
	result, err := s.services.Newsletter.Subscribe(ctx, input.Body.Email)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &SubscribeOutput{Body: result}, nil
}
