package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/ingest/unsplash"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/mailer"
	"github.com/beachatlas/beachatlas-server/internal/weather"
)

// ProvideWeatherClient provides the Open-Meteo client.
func ProvideWeatherClient(i do.Injector) (*weather.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return weather.NewClient(weather.Options{
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
		Logger:  log.Component("weather"),
	}), nil
}

// ProvideAIClient provides the Gemini client. Without an API key it answers
// with canned fallbacks.
func ProvideAIClient(i do.Injector) (*ai.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := ai.NewClient(ai.Options{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.Timeout,
		Logger:  log.Component("ai"),
	})
	if !client.Enabled() {
		log.Warn("GEMINI_API_KEY not set, AI features will use fallbacks")
	}
	return client, nil
}

// ProvideMailer provides the Resend welcome-mail client.
func ProvideMailer(i do.Injector) (*mailer.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return mailer.NewClient(mailer.Options{
		APIKey:  cfg.Mail.APIKey,
		From:    cfg.Mail.From,
		BaseURL: cfg.Mail.BaseURL,
		SiteURL: cfg.Server.BaseURL,
		Logger:  log.Component("mailer"),
	}), nil
}

// unsplashInterval spaces Unsplash requests to stay inside the demo quota.
const unsplashInterval = time.Second

// ProvideUnsplashClient provides the Unsplash photo search client used by
// the ingestion commands.
func ProvideUnsplashClient(i do.Injector) (*unsplash.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := unsplash.NewClient(unsplash.Options{
		AccessKey: cfg.Unsplash.AccessKey,
		Interval:  unsplashInterval,
		Logger:    log.Component("unsplash"),
	})
	if !client.Enabled() {
		log.Warn("UNSPLASH_ACCESS_KEY not set, photo lookups are disabled")
	}
	return client, nil
}
