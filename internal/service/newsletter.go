package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/store"
	"github.com/beachatlas/beachatlas-server/internal/validation"
)

// Newsletter outcome messages.
const (
	MsgInvalidEmail      = "Please enter a valid email address."
	MsgAlreadySubscribed = "You're already subscribed!"
	MsgSubscribed        = "Thanks for joining! We'll keep you posted on new paradises."
	MsgSubscribeFailed   = "Something went wrong. Please try again later."
)

// Mailer sends the welcome email.
type Mailer interface {
	SendWelcome(ctx context.Context, addr string) error
}

// SubscribeResult is the outcome of a newsletter signup.
type SubscribeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewsletterService records newsletter signups.
type NewsletterService struct {
	subscribers store.Subscribers
	mailer      Mailer
	validator   *validation.Validator
	logger      *slog.Logger
}

// NewNewsletterService creates a newsletter service. mailer may be nil.
func NewNewsletterService(subscribers store.Subscribers, mailer Mailer, logger *slog.Logger) *NewsletterService {
	return &NewsletterService{
		subscribers: subscribers,
		mailer:      mailer,
		validator:   validation.New(),
		logger:      logger,
	}
}

// Subscribe adds email to the newsletter. Invalid addresses return a
// validation error carrying MsgInvalidEmail; an address already on the list
// succeeds with MsgAlreadySubscribed. The welcome email is best effort.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	email = strings.TrimSpace(email)
	if err := s.validator.Var("email", email, "required,email,max=254"); err != nil {
		var verr *domainerrors.Error
		if errors.As(err, &verr) {
			return nil, domainerrors.ValidationWithDetails(MsgInvalidEmail, verr.Details)
		}
		return nil, err
	}

	existing, err := s.subscribers.GetSubscriberByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("subscriber lookup failed", "error", err)
		return &SubscribeResult{Message: MsgSubscribeFailed}, nil
	}
	if existing != nil {
		return &SubscribeResult{Success: true, Message: MsgAlreadySubscribed}, nil
	}

	err = s.subscribers.CreateSubscriber(ctx, &domain.Subscriber{Email: email})
	if errors.Is(err, store.ErrAlreadyExists) {
		return &SubscribeResult{Success: true, Message: MsgAlreadySubscribed}, nil
	}
	if err != nil {
		s.logger.Error("create subscriber failed", "error", err)
		return &SubscribeResult{Message: MsgSubscribeFailed}, nil
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, email); err != nil {
			s.logger.Warn("welcome email not sent", "error", err)
		}
	}
	return &SubscribeResult{Success: true, Message: MsgSubscribed}, nil
}
