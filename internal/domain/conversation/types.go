package conversation

import (
	"context"
	"time"
)

// ActorType identifies who authored a conversation event.
type ActorType string

const (
	ActorAutomatedAgent ActorType = "automated-agent"
	ActorHumanOperator  ActorType = "human-operator"
	ActorEndUser        ActorType = "end-user"
)

// Channel identifies how a conversation was delivered.
type Channel string

const (
	ChannelChat         Channel = "chat"
	ChannelMessagingApp Channel = "messaging-app"
	ChannelEmail        Channel = "email"
	ChannelOther        Channel = "other"
)

// Event is one message turn in a conversation. The body is not interpreted
// beyond actor and channel.
type Event struct {
	Actor     ActorType
	Channel   Channel
	Timestamp time.Time
	Body      string
}

// Timeline is the chronologically ordered sequence of events for one
// conversation: origin message first, then replies in arrival order. It is
// never re-ordered after construction.
type Timeline []Event

// Summary is one entry from a conversation search, newest first.
type Summary struct {
	ID        string
	UpdatedAt time.Time
}

// Detail is the full view of one conversation.
type Detail struct {
	ID       string
	Channel  Channel
	Timeline Timeline
}

// Service defines the conversation operations required by the domain layer.
type Service interface {
	// SearchConversations returns at most limit conversations for the
	// contact, most-recently-updated first.
	SearchConversations(ctx context.Context, contactID string, limit int) ([]Summary, error)
	GetConversationDetail(ctx context.Context, id string) (*Detail, error)
}

// Classification is the derived result of analyzing one timeline.
type Classification struct {
	ConversationID           string
	Channel                  Channel
	HumanRespondedAfterAgent bool
}
