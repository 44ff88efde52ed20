package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"webhook-bridge/utils/platformerrors"
)

// Normalize reconciles the historically-used payload shapes for the bridged
// platforms into one canonical InboundEvent. Extraction paths are tried in a
// fixed priority order and the first non-empty match wins; merely optional
// fields never produce an error.
//
// Recognised shapes:
//   - array-wrapped scheduling events ([{invitee, event_type, event}, ...])
//   - signature events ({event_type: "form.*"|"submission.*", data: {...}})
//   - object-wrapped form events ({inputFields: {...}} / {properties: {...}})
//   - flat form events ({email, tag_id, ...})
func Normalize(ctx context.Context, raw []byte) (*InboundEvent, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "malformed payload", err)
	}

	payload, wrapped := unwrap(decoded)
	if payload == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "empty payload", nil)
	}

	var evt *InboundEvent
	switch {
	case wrapped || objAt(payload, "invitee") != nil:
		evt = normalizeScheduling(payload)
	case strAt(payload, "event_type") != "" && objAt(payload, "data") != nil:
		evt = normalizeSignature(payload)
	default:
		evt = normalizeForm(payload)
	}

	if evt.Email == "" && evt.Phone == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "missing identity", nil)
	}
	return evt, nil
}

func normalizeScheduling(payload map[string]any) *InboundEvent {
	evt := &InboundEvent{Kind: KindScheduling, Metadata: map[string]string{}}

	if invitee := objAt(payload, "invitee"); invitee != nil {
		evt.Email = strAt(invitee, "email")
		evt.Phone = firstNonEmpty(
			strAt(invitee, "text_notification_phone"),
			strAt(invitee, "phone"),
			strAt(invitee, "mobile"),
		)
	}

	if eventType := objAt(payload, "event_type"); eventType != nil {
		setMeta(evt, MetaEventSlug, strAt(eventType, "slug"))
		setMeta(evt, MetaEventName, strAt(eventType, "name"))
	}

	// The assignment map is keyed by opaque ids; take the first entry that
	// carries an email.
	if inner := objAt(payload, "event"); inner != nil {
		if assigned := objAt(inner, "extended_assigned_to"); assigned != nil {
			for _, v := range assigned {
				user, ok := v.(map[string]any)
				if !ok {
					continue
				}
				if email := strAt(user, "email"); email != "" {
					setMeta(evt, MetaAssigneeEmail, email)
					break
				}
			}
		}
	}

	return evt
}

func normalizeSignature(payload map[string]any) *InboundEvent {
	evt := &InboundEvent{Kind: KindSignature, Metadata: map[string]string{}}
	setMeta(evt, MetaSignatureKind, strAt(payload, "event_type"))

	if ts, ok := payload["timestamp"]; ok {
		setMeta(evt, MetaTimestamp, fmt.Sprint(ts))
	}

	data := objAt(payload, "data")
	if data == nil {
		return evt
	}

	evt.Email = strAt(data, "email")
	name := ""
	if submitters, ok := data["submitters"].([]any); ok && len(submitters) > 0 {
		if first, ok := submitters[0].(map[string]any); ok {
			if evt.Email == "" {
				evt.Email = strAt(first, "email")
			}
			name = strAt(first, "name")
		}
	}
	if creator := objAt(data, "created_by_user"); creator != nil {
		if evt.Email == "" {
			evt.Email = strAt(creator, "email")
		}
		if name == "" {
			name = strAt(creator, "name")
		}
	}
	setMeta(evt, MetaSubmitterName, name)

	// Country lives in a free-form field/value list; match the field name
	// case-insensitively and ignore blank values.
	if values, ok := data["values"].([]any); ok {
		for _, v := range values {
			item, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(strAt(item, "field")), "country") {
				if country := strings.TrimSpace(strAt(item, "value")); country != "" {
					setMeta(evt, MetaCountry, country)
				}
				break
			}
		}
	}

	if tmpl := objAt(data, "template"); tmpl != nil {
		setMeta(evt, MetaTemplate, strAt(tmpl, "name"))
	}

	submissionURL := strAt(data, "submission_url")
	if submissionURL == "" {
		if submission := objAt(data, "submission"); submission != nil {
			submissionURL = strAt(submission, "url")
		}
	}
	if submissionURL == "" {
		if slug := strAt(data, "slug"); slug != "" {
			submissionURL = "https://docuseal.eu/e/" + slug
		}
	}
	if submissionURL == "" {
		submissionURL = strAt(data, "url")
	}
	setMeta(evt, MetaSubmissionURL, submissionURL)

	return evt
}

func normalizeForm(payload map[string]any) *InboundEvent {
	evt := &InboundEvent{Kind: KindForm, Metadata: map[string]string{}}

	inputFields := objAt(payload, "inputFields")
	properties := objAt(payload, "properties")

	evt.Email = firstNonEmpty(
		strAt(payload, "email"),
		strAt(inputFields, "email"),
		strAt(properties, "email"),
	)
	evt.Phone = firstNonEmpty(
		strAt(payload, "phone"),
		strAt(inputFields, "phone"),
		strAt(properties, "phone"),
	)
	setMeta(evt, MetaTagID, firstNonEmpty(
		strAt(payload, "tag_id"),
		strAt(inputFields, "tag_id"),
	))

	return evt
}

// unwrap takes the first element of an array-wrapped payload. The second
// return reports whether unwrapping happened (marks the scheduling shape).
func unwrap(decoded any) (map[string]any, bool) {
	switch v := decoded.(type) {
	case []any:
		if len(v) == 0 {
			return nil, true
		}
		obj, _ := v[0].(map[string]any)
		return obj, true
	case map[string]any:
		return v, false
	default:
		return nil, false
	}
}

func objAt(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]any)
	return obj
}

func strAt(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		// Numeric ids arrive as JSON numbers from some platforms.
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func setMeta(evt *InboundEvent, key, value string) {
	if value != "" {
		evt.Metadata[key] = value
	}
}
