package tagging

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
)

// InteractionTags holds the two mutually exclusive outcome tag ids. Exactly
// one of them is derived per qualifying conversation.
type InteractionTags struct {
	MessagingTagID string
	EmailTagID     string
}

func (t InteractionTags) configured() bool {
	return t.MessagingTagID != "" && t.EmailTagID != ""
}

// ClassifyOutcome maps a classification to at most one outcome tag. No tag
// is produced when the human-after-agent transition was not detected. The
// precedence is channel-specific: a messaging-app conversation always yields
// the messaging tag; email, chat and any other direct channel fall through
// to the email tag.
func ClassifyOutcome(c conversation.Classification, tags InteractionTags) (string, bool) {
	if !c.HumanRespondedAfterAgent {
		return "", false
	}
	if c.Channel == conversation.ChannelMessagingApp {
		return tags.MessagingTagID, true
	}
	return tags.EmailTagID, true
}

// Tagger applies outcome tags through the directory. Repeat application of
// the same (contact, tag) pair is safe: the directory treats tag membership
// as a set, and the gateway treats a repeat-apply response as success.
type Tagger struct {
	directory contact.Directory
}

// NewTagger creates a new outcome tagger.
func NewTagger(directory contact.Directory) *Tagger {
	return &Tagger{directory: directory}
}

// ApplyOutcomes evaluates the classifications conversation-by-conversation
// and applies the derived tags to the contact. The loop halts once both
// exclusive tags have been applied; that is an optimization, not a
// correctness requirement, since re-applying a tag is a no-op. Individual
// tag failures are collected and do not stop remaining conversations.
func (t *Tagger) ApplyOutcomes(ctx context.Context, c contact.Contact, classifications []conversation.Classification, tags InteractionTags) ([]string, error) {
	if !tags.configured() {
		return nil, errors.New("interaction tag ids not configured")
	}

	done := map[string]bool{
		tags.MessagingTagID: c.HasTag(tags.MessagingTagID),
		tags.EmailTagID:     c.HasTag(tags.EmailTagID),
	}

	var applied []string
	var errs []error
	for _, cls := range classifications {
		if done[tags.MessagingTagID] && done[tags.EmailTagID] {
			break
		}
		tagID, ok := ClassifyOutcome(cls, tags)
		if !ok || done[tagID] {
			continue
		}
		if err := t.directory.AddTag(ctx, c.ID, tagID); err != nil {
			log.Warn().Err(err).
				Str("contact_id", c.ID).
				Str("tag_id", tagID).
				Str("conversation_id", cls.ConversationID).
				Msg("outcome tag application failed")
			errs = append(errs, err)
			continue
		}
		done[tagID] = true
		applied = append(applied, tagID)
		log.Info().
			Str("contact_id", c.ID).
			Str("tag_id", tagID).
			Str("channel", string(cls.Channel)).
			Msg("outcome tag applied")
	}

	return applied, errors.Join(errs...)
}
