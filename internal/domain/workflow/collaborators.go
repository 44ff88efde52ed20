package workflow

import "context"

// Marketing is the marketing-automation collaborator: subscribing an email
// address to a tag creates the subscriber when needed.
type Marketing interface {
	SubscribeToTag(ctx context.Context, tagID, email string) error
}

// CourseAccess grants a student access to the configured course.
type CourseAccess interface {
	GrantAccess(ctx context.Context, email, name string) error
}

// CRM updates contact properties in the CRM, addressed by email.
type CRM interface {
	UpdateContactByEmail(ctx context.Context, email string, properties map[string]string) error
}

// RuleSet is the tag routing table consumed by the flows. Implemented by the
// tag-rules configuration loader.
type RuleSet interface {
	// InteractionTagIDs returns the two mutually exclusive outcome tag ids.
	InteractionTagIDs() (messagingTagID, emailTagID string)
	// EventTag maps a scheduling event slug to a marketing tag.
	EventTag(slug string) (string, bool)
	// AssigneeTag maps an assigned operator to a marketing tag, gated on the
	// event name filters.
	AssigneeTag(assigneeEmail, eventName string) (string, bool)
	// AgreementCompletedTag is the marketing tag for a completed signature.
	AgreementCompletedTag() string
}
