package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/domain/event"
	"webhook-bridge/internal/domain/tagging"
	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

const schedulingFlowName = "scheduling"

// SchedulingFlow orchestrates the processing of a scheduling-platform
// webhook: resolve the invitee in the contact directory, classify their
// recent conversations for an automated-agent interaction, apply outcome
// tags, and fan out marketing tags derived from the event and its assignee.
//
// Any collaborator may be nil when its credential is absent; the branches
// that need it are then recorded as skipped instead of failing the flow.
type SchedulingFlow struct {
	resolver  *contact.Resolver
	analyzer  *conversation.Analyzer
	tagger    *tagging.Tagger
	marketing Marketing
	rules     RuleSet
}

// NewSchedulingFlow creates the scheduling webhook orchestrator.
func NewSchedulingFlow(
	resolver *contact.Resolver,
	analyzer *conversation.Analyzer,
	tagger *tagging.Tagger,
	marketing Marketing,
	rules RuleSet,
) *SchedulingFlow {
	return &SchedulingFlow{
		resolver:  resolver,
		analyzer:  analyzer,
		tagger:    tagger,
		marketing: marketing,
		rules:     rules,
	}
}

// Process runs the flow for one raw webhook payload. The only error return
// is a validation failure from normalization; every later failure is
// captured in the aggregate result so the upstream platform still receives
// a success acknowledgment and does not retry.
func (f *SchedulingFlow) Process(ctx context.Context, raw []byte) (*AggregateResult, error) {
	evt, err := event.Normalize(ctx, raw)
	if err != nil {
		metrics.RecordFlow(schedulingFlowName, "rejected")
		return nil, err
	}

	steps := []Step{
		{
			Name: "interaction-tagging",
			Run: func(ctx context.Context) (string, error) {
				return f.runInteractionTagging(ctx, evt)
			},
		},
		{
			Name: "marketing-event-tag",
			Run: func(ctx context.Context) (string, error) {
				return f.runEventTag(ctx, evt)
			},
		},
		{
			Name: "marketing-assignee-tag",
			Run: func(ctx context.Context) (string, error) {
				return f.runAssigneeTag(ctx, evt)
			},
		},
	}

	agg := Run(ctx, schedulingFlowName, steps, len(steps))
	if agg.Failed() {
		metrics.RecordFlow(schedulingFlowName, "partial")
	} else {
		metrics.RecordFlow(schedulingFlowName, "ok")
	}
	return &agg, nil
}

// runInteractionTagging resolves the contact, reconstructs and classifies
// recent conversation timelines, and idempotently applies outcome tags.
func (f *SchedulingFlow) runInteractionTagging(ctx context.Context, evt *event.InboundEvent) (string, error) {
	if f.resolver == nil || f.analyzer == nil || f.tagger == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "contact directory credential not configured", nil)
	}

	messagingTag, emailTag := f.rules.InteractionTagIDs()
	interaction := tagging.InteractionTags{MessagingTagID: messagingTag, EmailTagID: emailTag}

	contacts, err := f.resolver.Resolve(ctx, contact.Hints{Email: evt.Email, Phone: evt.Phone})
	if err != nil {
		return "", err
	}
	if len(contacts) == 0 {
		return "no directory contact matched the identity hints", nil
	}

	var applied []string
	var lastErr error
	for _, c := range contacts {
		classifications, err := f.analyzer.Analyze(ctx, c.ID)
		if err != nil {
			log.Warn().Err(err).Str("contact_id", c.ID).Msg("conversation analysis failed")
			lastErr = err
			continue
		}
		tags, err := f.tagger.ApplyOutcomes(ctx, c, classifications, interaction)
		if err != nil {
			lastErr = err
		}
		applied = append(applied, tags...)
	}

	if len(applied) == 0 && lastErr != nil {
		return "", lastErr
	}
	if len(applied) == 0 {
		return "no qualifying agent interaction found", nil
	}
	return fmt.Sprintf("applied tags: %s", strings.Join(applied, ", ")), nil
}

// runEventTag subscribes the invitee to the marketing tag mapped from the
// scheduling event type slug.
func (f *SchedulingFlow) runEventTag(ctx context.Context, evt *event.InboundEvent) (string, error) {
	if f.marketing == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "marketing credential not configured", nil)
	}
	if evt.Email == "" {
		return "no invitee email for marketing tag", nil
	}

	slug := evt.Meta(event.MetaEventSlug)
	tagID, ok := f.rules.EventTag(slug)
	if !ok {
		return fmt.Sprintf("no tag rule for event type %q", slug), nil
	}

	if err := f.marketing.SubscribeToTag(ctx, tagID, evt.Email); err != nil {
		return "", err
	}
	return fmt.Sprintf("applied tag %s", tagID), nil
}

// runAssigneeTag subscribes the invitee to the marketing tag mapped from the
// call's assigned operator, gated on the event name filters.
func (f *SchedulingFlow) runAssigneeTag(ctx context.Context, evt *event.InboundEvent) (string, error) {
	if f.marketing == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "marketing credential not configured", nil)
	}
	if evt.Email == "" {
		return "no invitee email for marketing tag", nil
	}

	assignee := evt.Meta(event.MetaAssigneeEmail)
	if assignee == "" {
		return "no assignee in payload", nil
	}

	tagID, ok := f.rules.AssigneeTag(assignee, evt.Meta(event.MetaEventName))
	if !ok {
		return fmt.Sprintf("no tag rule matched assignee %s", assignee), nil
	}

	if err := f.marketing.SubscribeToTag(ctx, tagID, evt.Email); err != nil {
		return "", err
	}
	return fmt.Sprintf("applied tag %s", tagID), nil
}
