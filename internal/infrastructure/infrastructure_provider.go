package infrastructure

import (
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/domain/alerting"
	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/domain/workflow"
	"webhook-bridge/internal/infrastructure/config"
	convertkitclient "webhook-bridge/internal/infrastructure/convertkit"
	hubspotclient "webhook-bridge/internal/infrastructure/hubspot"
	intercomclient "webhook-bridge/internal/infrastructure/intercom"
	slackalertclient "webhook-bridge/internal/infrastructure/slackalert"
	"webhook-bridge/internal/infrastructure/tagrules"
	thrivecartclient "webhook-bridge/internal/infrastructure/thrivecart"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Tag routing rules
	ProvideTagRules,
	ProvideRuleSet,

	// Contact directory / conversation service
	ProvideIntercomClient,
	ProvideDirectory,
	ProvideConversationService,

	// Marketing automation
	ProvideConvertKitClient,
	ProvideMarketing,

	// Course access
	ProvideCourseAccess,

	// CRM
	ProvideCRM,

	// Alerting sink
	ProvideAlertSink,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideTagRules loads the tag routing rules
func ProvideTagRules(cfg *config.Config) *tagrules.Config {
	rules, err := tagrules.LoadConfig(cfg.TagRulesPath)
	if err != nil {
		// Return empty rules if file not found; every rule lookup then
		// misses and the corresponding branches are skipped
		log.Warn().Err(err).Str("path", cfg.TagRulesPath).Msg("tag rules not loaded")
		return &tagrules.Config{}
	}
	return rules
}

// ProvideRuleSet exposes the tag rules as the routing table the flows consume
func ProvideRuleSet(rules *tagrules.Config) workflow.RuleSet {
	return rules
}

// ProvideIntercomClient provides the contact directory client if configured
func ProvideIntercomClient(cfg *config.Config) *intercomclient.Client {
	if !cfg.HasIntercom() {
		return nil
	}
	return intercomclient.NewClient(intercomclient.ClientConfig{
		BaseURL:     cfg.IntercomBaseURL,
		AccessToken: cfg.IntercomAccessToken,
		APIVersion:  cfg.IntercomVersion,

		HTTPTimeout:     time.Duration(cfg.HTTPTimeout) * time.Second,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: time.Duration(cfg.IdleConnTimeout) * time.Second,

		RetryMaxAttempts:   cfg.RetryMaxAttempts,
		RetryInitialDelay:  time.Duration(cfg.RetryInitialDelay) * time.Millisecond,
		RetryMaxDelay:      time.Duration(cfg.RetryMaxDelay) * time.Millisecond,
		RetryBackoffFactor: cfg.RetryBackoffFactor,
	})
}

// ProvideDirectory provides the contact directory interface.
// A typed-nil client must become a nil interface so the flows can detect
// the absent credential.
func ProvideDirectory(client *intercomclient.Client) contact.Directory {
	if client == nil {
		return nil
	}
	return client
}

// ProvideConversationService provides the conversation service interface
func ProvideConversationService(client *intercomclient.Client) conversation.Service {
	if client == nil {
		return nil
	}
	return client
}

// ProvideConvertKitClient provides the marketing automation client if configured
func ProvideConvertKitClient(cfg *config.Config) *convertkitclient.Client {
	if !cfg.HasConvertKit() {
		return nil
	}
	return convertkitclient.NewClient(cfg.ConvertKitBaseURL, cfg.ConvertKitAPISecret, time.Duration(cfg.HTTPTimeout)*time.Second)
}

// ProvideMarketing provides the marketing collaborator interface
func ProvideMarketing(client *convertkitclient.Client) workflow.Marketing {
	if client == nil {
		return nil
	}
	return client
}

// ProvideCourseAccess provides the course access collaborator if configured
func ProvideCourseAccess(cfg *config.Config) workflow.CourseAccess {
	if !cfg.HasThriveCart() {
		return nil
	}
	return thrivecartclient.NewClient(cfg.ThriveCartBaseURL, cfg.ThriveCartAPIKey, cfg.ThriveCartCourseID, time.Duration(cfg.HTTPTimeout)*time.Second)
}

// ProvideCRM provides the CRM collaborator if configured
func ProvideCRM(cfg *config.Config) workflow.CRM {
	if !cfg.HasHubSpot() {
		return nil
	}
	return hubspotclient.NewClient(cfg.HubSpotBaseURL, cfg.HubSpotAccessToken, time.Duration(cfg.HTTPTimeout)*time.Second)
}

// ProvideAlertSink provides the alerting sink if configured
func ProvideAlertSink(cfg *config.Config) alerting.Sink {
	if !cfg.HasSlack() {
		return nil
	}
	return slackalertclient.NewClient(cfg.SlackAlertWebhook)
}
