package tagging_test

import (
	"context"
	"errors"
	"testing"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/domain/tagging"
)

var testTags = tagging.InteractionTags{MessagingTagID: "msg-tag", EmailTagID: "email-tag"}

type tagCall struct {
	ContactID string
	TagID     string
}

type fakeDirectory struct {
	calls   []tagCall
	failTag string
}

func (f *fakeDirectory) SearchByAttribute(ctx context.Context, field, value string) ([]contact.Contact, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDirectory) CreateContact(ctx context.Context, attrs contact.CreateAttrs) (*contact.Contact, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDirectory) UpdateContact(ctx context.Context, id string, attrs contact.UpdateAttrs) (*contact.Contact, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDirectory) AddTag(ctx context.Context, contactID, tagID string) error {
	if tagID == f.failTag {
		return errors.New("tag service unavailable")
	}
	f.calls = append(f.calls, tagCall{ContactID: contactID, TagID: tagID})
	return nil
}

func classification(channel conversation.Channel, qualified bool) conversation.Classification {
	return conversation.Classification{
		ConversationID:           "conv",
		Channel:                  channel,
		HumanRespondedAfterAgent: qualified,
	}
}

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name     string
		cls      conversation.Classification
		wantTag  string
		wantPick bool
	}{
		{
			name:     "messaging app channel picks messaging tag",
			cls:      classification(conversation.ChannelMessagingApp, true),
			wantTag:  "msg-tag",
			wantPick: true,
		},
		{
			name:     "email channel picks email tag",
			cls:      classification(conversation.ChannelEmail, true),
			wantTag:  "email-tag",
			wantPick: true,
		},
		{
			name:     "chat channel falls through to email tag",
			cls:      classification(conversation.ChannelChat, true),
			wantTag:  "email-tag",
			wantPick: true,
		},
		{
			name:     "other channel falls through to email tag",
			cls:      classification(conversation.ChannelOther, true),
			wantTag:  "email-tag",
			wantPick: true,
		},
		{
			name:     "no qualifying interaction yields no tag",
			cls:      classification(conversation.ChannelMessagingApp, false),
			wantPick: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ok := tagging.ClassifyOutcome(tt.cls, testTags)
			if ok != tt.wantPick {
				t.Fatalf("expected pick=%v, got %v", tt.wantPick, ok)
			}
			if ok && tag != tt.wantTag {
				t.Errorf("expected tag %s, got %s", tt.wantTag, tag)
			}
		})
	}
}

func TestApplyOutcomes_AppliesEachTagOnce(t *testing.T) {
	dir := &fakeDirectory{}
	tagger := tagging.NewTagger(dir)

	classifications := []conversation.Classification{
		classification(conversation.ChannelMessagingApp, true),
		classification(conversation.ChannelMessagingApp, true), // repeat outcome
		classification(conversation.ChannelEmail, true),
		classification(conversation.ChannelChat, true), // both already applied
	}

	applied, err := tagger.ApplyOutcomes(context.Background(), contact.Contact{ID: "c1"}, classifications, testTags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected both tags applied exactly once, got %v", applied)
	}
	if len(dir.calls) != 2 {
		t.Fatalf("expected 2 directory calls, got %d", len(dir.calls))
	}
	if dir.calls[0].TagID != "msg-tag" || dir.calls[1].TagID != "email-tag" {
		t.Errorf("unexpected call order: %+v", dir.calls)
	}
}

func TestApplyOutcomes_SkipsTagsTheContactAlreadyCarries(t *testing.T) {
	dir := &fakeDirectory{}
	tagger := tagging.NewTagger(dir)

	c := contact.Contact{ID: "c1", Tags: []string{"msg-tag"}}
	classifications := []conversation.Classification{
		classification(conversation.ChannelMessagingApp, true),
		classification(conversation.ChannelEmail, true),
	}

	applied, err := tagger.ApplyOutcomes(context.Background(), c, classifications, testTags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 1 || applied[0] != "email-tag" {
		t.Errorf("expected only the email tag to be applied, got %v", applied)
	}
}

func TestApplyOutcomes_FailureDoesNotStopRemainingConversations(t *testing.T) {
	dir := &fakeDirectory{failTag: "msg-tag"}
	tagger := tagging.NewTagger(dir)

	classifications := []conversation.Classification{
		classification(conversation.ChannelMessagingApp, true),
		classification(conversation.ChannelEmail, true),
	}

	applied, err := tagger.ApplyOutcomes(context.Background(), contact.Contact{ID: "c1"}, classifications, testTags)
	if err == nil {
		t.Fatal("expected the messaging tag failure to be reported")
	}
	if len(applied) != 1 || applied[0] != "email-tag" {
		t.Errorf("expected the email tag to still be applied, got %v", applied)
	}
}

func TestApplyOutcomes_UnconfiguredTags(t *testing.T) {
	tagger := tagging.NewTagger(&fakeDirectory{})

	_, err := tagger.ApplyOutcomes(context.Background(), contact.Contact{ID: "c1"}, nil, tagging.InteractionTags{})
	if err == nil {
		t.Fatal("expected error for unconfigured tag ids")
	}
}
