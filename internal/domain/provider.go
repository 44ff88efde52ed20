package domain

import (
	"github.com/google/wire"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/domain/tagging"
	"webhook-bridge/internal/domain/workflow"
	"webhook-bridge/internal/infrastructure/config"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	ProvideResolver,
	ProvideAnalyzer,
	ProvideTagger,
	workflow.NewSchedulingFlow,
	workflow.NewAgreementFlow,
)

// ProvideResolver creates the contact resolver when the directory is available
func ProvideResolver(directory contact.Directory) *contact.Resolver {
	if directory == nil {
		return nil
	}
	return contact.NewResolver(directory)
}

// ProvideAnalyzer creates the conversation analyzer when the service is available
func ProvideAnalyzer(service conversation.Service, cfg *config.Config) *conversation.Analyzer {
	if service == nil {
		return nil
	}
	return conversation.NewAnalyzer(service, cfg.ConversationScanLimit)
}

// ProvideTagger creates the outcome tagger when the directory is available
func ProvideTagger(directory contact.Directory) *tagging.Tagger {
	if directory == nil {
		return nil
	}
	return tagging.NewTagger(directory)
}
