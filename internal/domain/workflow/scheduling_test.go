package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/domain/tagging"
	"webhook-bridge/internal/domain/workflow"
	"webhook-bridge/utils/platformerrors"
)

type fakeRules struct {
	messagingTag string
	emailTag     string
	eventTags    map[string]string
	assigneeTags map[string]string
	agreementTag string
}

func (r *fakeRules) InteractionTagIDs() (string, string) { return r.messagingTag, r.emailTag }

func (r *fakeRules) EventTag(slug string) (string, bool) {
	tag, ok := r.eventTags[slug]
	return tag, ok
}

func (r *fakeRules) AssigneeTag(assigneeEmail, eventName string) (string, bool) {
	tag, ok := r.assigneeTags[assigneeEmail]
	return tag, ok
}

func (r *fakeRules) AgreementCompletedTag() string { return r.agreementTag }

type fakeDirectory struct {
	mu       sync.Mutex
	contacts []contact.Contact
	tagged   []string // "contactID:tagID"
}

func (f *fakeDirectory) SearchByAttribute(ctx context.Context, field, value string) ([]contact.Contact, error) {
	return f.contacts, nil
}

func (f *fakeDirectory) CreateContact(ctx context.Context, attrs contact.CreateAttrs) (*contact.Contact, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDirectory) UpdateContact(ctx context.Context, id string, attrs contact.UpdateAttrs) (*contact.Contact, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDirectory) AddTag(ctx context.Context, contactID, tagID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagged = append(f.tagged, contactID+":"+tagID)
	return nil
}

type fakeConversations struct {
	details []*conversation.Detail
}

func (f *fakeConversations) SearchConversations(ctx context.Context, contactID string, limit int) ([]conversation.Summary, error) {
	summaries := make([]conversation.Summary, 0, len(f.details))
	for _, d := range f.details {
		summaries = append(summaries, conversation.Summary{ID: d.ID})
	}
	return summaries, nil
}

func (f *fakeConversations) GetConversationDetail(ctx context.Context, id string) (*conversation.Detail, error) {
	for _, d := range f.details {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeMarketing struct {
	mu         sync.Mutex
	subscribed []string // "tagID:email"
	err        error
}

func (f *fakeMarketing) SubscribeToTag(ctx context.Context, tagID, email string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, tagID+":"+email)
	return nil
}

func stepByName(t *testing.T, agg *workflow.AggregateResult, name string) workflow.StepResult {
	t.Helper()
	for _, s := range agg.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no step named %s in %+v", name, agg.Steps)
	return workflow.StepResult{}
}

const schedulingPayload = `[{
	"invitee": {"email": "jane@example.com"},
	"event_type": {"slug": "strategy-session", "name": "Mechanical Rules Strategy Session"},
	"event": {"extended_assigned_to": {"x": {"email": "coach@example.com"}}}
}]`

func newSchedulingFlow(dir *fakeDirectory, convs *fakeConversations, marketing workflow.Marketing, rules workflow.RuleSet) *workflow.SchedulingFlow {
	return workflow.NewSchedulingFlow(
		contact.NewResolver(dir),
		conversation.NewAnalyzer(convs, 5),
		tagging.NewTagger(dir),
		marketing,
		rules,
	)
}

func TestSchedulingFlow_FullFanOut(t *testing.T) {
	dir := &fakeDirectory{contacts: []contact.Contact{{ID: "c1", Email: "jane@example.com"}}}
	convs := &fakeConversations{details: []*conversation.Detail{{
		ID:      "conv1",
		Channel: conversation.ChannelMessagingApp,
		Timeline: conversation.Timeline{
			{Actor: conversation.ActorAutomatedAgent},
			{Actor: conversation.ActorEndUser},
		},
	}}}
	marketing := &fakeMarketing{}
	rules := &fakeRules{
		messagingTag: "msg-tag",
		emailTag:     "email-tag",
		eventTags:    map[string]string{"strategy-session": "event-tag"},
		assigneeTags: map[string]string{"coach@example.com": "coach-tag"},
	}

	agg, err := newSchedulingFlow(dir, convs, marketing, rules).Process(context.Background(), []byte(schedulingPayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !agg.OK || agg.Failed() {
		t.Fatalf("expected clean aggregate, got %+v", agg)
	}

	if s := stepByName(t, agg, "interaction-tagging"); s.Status != workflow.StatusSuccess || !strings.Contains(s.Detail, "msg-tag") {
		t.Errorf("unexpected interaction-tagging result: %+v", s)
	}
	if len(dir.tagged) != 1 || dir.tagged[0] != "c1:msg-tag" {
		t.Errorf("unexpected directory tagging: %v", dir.tagged)
	}

	if s := stepByName(t, agg, "marketing-event-tag"); s.Status != workflow.StatusSuccess {
		t.Errorf("unexpected marketing-event-tag result: %+v", s)
	}
	if s := stepByName(t, agg, "marketing-assignee-tag"); s.Status != workflow.StatusSuccess {
		t.Errorf("unexpected marketing-assignee-tag result: %+v", s)
	}
	if len(marketing.subscribed) != 2 {
		t.Errorf("expected event and assignee subscriptions, got %v", marketing.subscribed)
	}
}

func TestSchedulingFlow_NoQualifyingInteraction(t *testing.T) {
	dir := &fakeDirectory{contacts: []contact.Contact{{ID: "c1"}}}
	convs := &fakeConversations{details: []*conversation.Detail{{
		ID:      "conv1",
		Channel: conversation.ChannelEmail,
		Timeline: conversation.Timeline{
			{Actor: conversation.ActorEndUser},
			{Actor: conversation.ActorAutomatedAgent},
		},
	}}}
	rules := &fakeRules{messagingTag: "msg-tag", emailTag: "email-tag"}

	agg, err := newSchedulingFlow(dir, convs, &fakeMarketing{}, rules).Process(context.Background(), []byte(schedulingPayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s := stepByName(t, agg, "interaction-tagging"); s.Status != workflow.StatusSuccess {
		t.Errorf("a no-op classification is still a successful step: %+v", s)
	}
	if len(dir.tagged) != 0 {
		t.Errorf("no tags should be applied: %v", dir.tagged)
	}
}

func TestSchedulingFlow_MissingIdentityIsRejected(t *testing.T) {
	flow := newSchedulingFlow(&fakeDirectory{}, &fakeConversations{}, &fakeMarketing{}, &fakeRules{})

	_, err := flow.Process(context.Background(), []byte(`[{"invitee": {}}]`))
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSchedulingFlow_AbsentCollaboratorsAreSkipped(t *testing.T) {
	flow := workflow.NewSchedulingFlow(nil, nil, nil, nil, &fakeRules{})

	agg, err := flow.Process(context.Background(), []byte(schedulingPayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !agg.OK {
		t.Error("skipped steps must not fail the aggregate")
	}
	for _, name := range []string{"interaction-tagging", "marketing-event-tag", "marketing-assignee-tag"} {
		if s := stepByName(t, agg, name); s.Status != workflow.StatusSkipped {
			t.Errorf("expected %s to be skipped, got %s", name, s.Status)
		}
	}
}

func TestSchedulingFlow_MarketingFailureIsIsolated(t *testing.T) {
	dir := &fakeDirectory{contacts: []contact.Contact{{ID: "c1"}}}
	convs := &fakeConversations{}
	marketing := &fakeMarketing{err: errors.New("marketing down")}
	rules := &fakeRules{
		messagingTag: "msg-tag",
		emailTag:     "email-tag",
		eventTags:    map[string]string{"strategy-session": "event-tag"},
	}

	agg, err := newSchedulingFlow(dir, convs, marketing, rules).Process(context.Background(), []byte(schedulingPayload))
	if err != nil {
		t.Fatalf("a downstream failure must not reject the webhook: %v", err)
	}
	if !agg.OK {
		t.Error("optional marketing failure must not fail the aggregate")
	}
	if s := stepByName(t, agg, "marketing-event-tag"); s.Status != workflow.StatusFailed {
		t.Errorf("expected marketing-event-tag to fail, got %+v", s)
	}
	if s := stepByName(t, agg, "interaction-tagging"); s.Status != workflow.StatusSuccess {
		t.Errorf("sibling steps must be unaffected, got %+v", s)
	}
}
