package conversation

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultScanLimit bounds how many recent conversations are examined per
// contact. A resource cap against the conversation-search API, not a
// business rule.
const DefaultScanLimit = 5

// Analyzer retrieves a contact's recent conversations and classifies each
// timeline for an automated-agent turn followed by a human turn.
type Analyzer struct {
	service Service
	limit   int
}

// NewAnalyzer creates a new conversation analyzer. limit <= 0 falls back to
// DefaultScanLimit.
func NewAnalyzer(service Service, limit int) *Analyzer {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	return &Analyzer{service: service, limit: limit}
}

// Analyze returns one classification per recent conversation, newest first.
// Detail fetches run concurrently, bounded by the scan limit. A single
// conversation's fetch failure is logged and skipped; it never aborts
// classification of the others.
func (a *Analyzer) Analyze(ctx context.Context, contactID string) ([]Classification, error) {
	summaries, err := a.service.SearchConversations(ctx, contactID, a.limit)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	results := make([]*Classification, len(summaries))

	var wg sync.WaitGroup
	for i, s := range summaries {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			detail, err := a.service.GetConversationDetail(ctx, id)
			if err != nil {
				log.Warn().Err(err).Str("conversation_id", id).Msg("conversation detail fetch failed, skipping")
				return
			}
			c := Classify(detail)
			results[i] = &c
		}(i, s.ID)
	}
	wg.Wait()

	classifications := make([]Classification, 0, len(summaries))
	for _, r := range results {
		if r != nil {
			classifications = append(classifications, *r)
		}
	}
	return classifications, nil
}

// Classify scans a timeline from the start for the first human turn after an
// automated-agent turn. The first qualifying transition wins; later turns
// are not examined. A timeline with no agent turn, or agent turns only at
// the end, does not qualify.
func Classify(detail *Detail) Classification {
	c := Classification{
		ConversationID: detail.ID,
		Channel:        detail.Channel,
	}

	agentHasSpoken := false
	for _, evt := range detail.Timeline {
		switch evt.Actor {
		case ActorAutomatedAgent:
			agentHasSpoken = true
		case ActorHumanOperator, ActorEndUser:
			if agentHasSpoken {
				c.HumanRespondedAfterAgent = true
				return c
			}
		}
	}
	return c
}
