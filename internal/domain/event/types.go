package event

// Kind identifies the upstream platform family a payload came from.
type Kind string

const (
	KindScheduling Kind = "scheduling-event"
	KindSignature  Kind = "signature-event"
	KindForm       Kind = "form-event"
)

// Metadata keys populated by the normalizer. Only keys relevant to the
// payload shape are present; consumers must treat every key as optional.
const (
	MetaEventSlug     = "event_slug"
	MetaEventName     = "event_name"
	MetaAssigneeEmail = "assignee_email"
	MetaTagID         = "tag_id"
	MetaSignatureKind = "signature_event"
	MetaCountry       = "country"
	MetaSubmitterName = "submitter_name"
	MetaTemplate      = "template"
	MetaSubmissionURL = "submission_url"
	MetaTimestamp     = "timestamp"
)

// InboundEvent is the canonical view of a webhook payload. It is constructed
// once per request by Normalize and never mutated afterwards.
type InboundEvent struct {
	Kind     Kind
	Email    string
	Phone    string
	Metadata map[string]string
}

// Meta returns the metadata value for key, or "" when absent.
func (e *InboundEvent) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
