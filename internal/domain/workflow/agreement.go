package workflow

import (
	"context"
	"fmt"

	"webhook-bridge/internal/domain/alerting"
	"webhook-bridge/internal/domain/event"
	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

const agreementFlowName = "agreement"

// completedSignatureEvent is the signature event that triggers the
// onboarding fan-out.
const completedSignatureEvent = "form.completed"

var signatureEventLabels = map[string]string{
	"form.viewed":          "Form Viewed",
	"form.started":         "Form Started",
	"form.completed":       "Form Completed (Signed)",
	"form.declined":        "Form Declined",
	"submission.created":   "Submission Created",
	"submission.completed": "Submission Completed",
	"submission.expired":   "Submission Expired",
	"submission.archived":  "Submission Archived",
}

var signatureEventColors = map[string]string{
	"form.completed":       alerting.ColorGood,
	"submission.completed": alerting.ColorGood,
	"form.declined":        alerting.ColorBad,
	"submission.expired":   alerting.ColorBad,
	"form.viewed":          alerting.ColorInfo,
	"form.started":         alerting.ColorInfo,
	"submission.created":   alerting.ColorInfo,
	"submission.archived":  alerting.ColorGray,
}

// AgreementFlow orchestrates the processing of an e-signature webhook:
// alert on every event, and on a completed signature fan out to CRM country
// sync, course-access grant and marketing tagging, closing with a summary
// alert that reports each branch's outcome.
type AgreementFlow struct {
	alerter      alerting.Sink
	crm          CRM
	courseAccess CourseAccess
	marketing    Marketing
	rules        RuleSet
}

// NewAgreementFlow creates the signature webhook orchestrator.
func NewAgreementFlow(
	alerter alerting.Sink,
	crm CRM,
	courseAccess CourseAccess,
	marketing Marketing,
	rules RuleSet,
) *AgreementFlow {
	return &AgreementFlow{
		alerter:      alerter,
		crm:          crm,
		courseAccess: courseAccess,
		marketing:    marketing,
		rules:        rules,
	}
}

// Process runs the flow for one raw webhook payload. As with the scheduling
// flow, only normalization can fail the request; side-effect outcomes are
// reported through the aggregate result.
func (f *AgreementFlow) Process(ctx context.Context, raw []byte) (*AggregateResult, error) {
	evt, err := event.Normalize(ctx, raw)
	if err != nil {
		metrics.RecordFlow(agreementFlowName, "rejected")
		return nil, err
	}

	signatureKind := evt.Meta(event.MetaSignatureKind)

	steps := []Step{
		{
			Name: "event-alert",
			Run: func(ctx context.Context) (string, error) {
				return f.runEventAlert(ctx, evt, signatureKind)
			},
		},
	}

	if signatureKind == completedSignatureEvent && evt.Email != "" {
		steps = append(steps,
			Step{
				Name: "crm-country-sync",
				Run: func(ctx context.Context) (string, error) {
					return f.runCountrySync(ctx, evt)
				},
			},
			Step{
				Name: "course-access-grant",
				Run: func(ctx context.Context) (string, error) {
					return f.runCourseGrant(ctx, evt)
				},
			},
			Step{
				Name: "marketing-tag",
				Run: func(ctx context.Context) (string, error) {
					return f.runMarketingTag(ctx, evt)
				},
			},
		)
	}

	agg := Run(ctx, agreementFlowName, steps, len(steps))

	// The summary alert reads the sibling outcomes, so it runs after the
	// fan-out has been joined.
	if signatureKind == completedSignatureEvent && evt.Email != "" {
		summary := Run(ctx, agreementFlowName, []Step{{
			Name: "summary-alert",
			Run: func(ctx context.Context) (string, error) {
				return f.runSummaryAlert(ctx, evt, agg.Steps)
			},
		}}, 1)
		agg.Steps = append(agg.Steps, summary.Steps...)
	}

	if agg.Failed() {
		metrics.RecordFlow(agreementFlowName, "partial")
	} else {
		metrics.RecordFlow(agreementFlowName, "ok")
	}
	return &agg, nil
}

func (f *AgreementFlow) runEventAlert(ctx context.Context, evt *event.InboundEvent, signatureKind string) (string, error) {
	if f.alerter == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "alert webhook not configured", nil)
	}

	label := signatureEventLabels[signatureKind]
	if label == "" {
		label = signatureKind
	}
	color := signatureEventColors[signatureKind]
	if color == "" {
		color = alerting.ColorGray
	}

	fields := []alerting.Field{
		{Title: "Email", Value: evt.Email, Short: true},
		{Title: "Template", Value: valueOr(evt.Meta(event.MetaTemplate), "N/A"), Short: true},
	}
	if country := evt.Meta(event.MetaCountry); country != "" {
		fields = append(fields, alerting.Field{Title: "Country", Value: country, Short: true})
	}
	fields = append(fields, alerting.Field{
		Title: "Submission URL",
		Value: valueOr(evt.Meta(event.MetaSubmissionURL), "N/A"),
	})

	err := f.alerter.Post(ctx, alerting.Alert{
		Title:  fmt.Sprintf("Agreement Event: %s", label),
		Color:  color,
		Fields: fields,
		Footer: fmt.Sprintf("Timestamp: %s", evt.Meta(event.MetaTimestamp)),
	})
	if err != nil {
		return "", err
	}
	return label, nil
}

func (f *AgreementFlow) runCountrySync(ctx context.Context, evt *event.InboundEvent) (string, error) {
	if f.crm == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "CRM credential not configured", nil)
	}
	country := evt.Meta(event.MetaCountry)
	if country == "" {
		return "no country in payload", nil
	}
	if err := f.crm.UpdateContactByEmail(ctx, evt.Email, map[string]string{"country": country}); err != nil {
		return "", err
	}
	return fmt.Sprintf("country set to %s", country), nil
}

func (f *AgreementFlow) runCourseGrant(ctx context.Context, evt *event.InboundEvent) (string, error) {
	if f.courseAccess == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "course access credential not configured", nil)
	}
	if err := f.courseAccess.GrantAccess(ctx, evt.Email, evt.Meta(event.MetaSubmitterName)); err != nil {
		return "", err
	}
	return "course access granted", nil
}

func (f *AgreementFlow) runMarketingTag(ctx context.Context, evt *event.InboundEvent) (string, error) {
	if f.marketing == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "marketing credential not configured", nil)
	}
	tagID := f.rules.AgreementCompletedTag()
	if tagID == "" {
		return "no completed-signature tag configured", nil
	}
	if err := f.marketing.SubscribeToTag(ctx, tagID, evt.Email); err != nil {
		return "", err
	}
	return fmt.Sprintf("applied tag %s", tagID), nil
}

// runSummaryAlert reports the fan-out outcomes so a human can follow up on
// anything that needs manual action.
func (f *AgreementFlow) runSummaryAlert(ctx context.Context, evt *event.InboundEvent, steps []StepResult) (string, error) {
	if f.alerter == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration, "alert webhook not configured", nil)
	}

	hasFailure := false
	var fields []alerting.Field
	var errorDetails string
	for _, s := range steps {
		if s.Name == "event-alert" {
			continue
		}
		if s.Status == StatusFailed || s.Status == StatusException {
			hasFailure = true
			if s.Detail != "" {
				errorDetails += s.Detail + "\n"
			}
		}
		fields = append(fields, alerting.Field{Title: s.Name, Value: string(s.Status), Short: true})
	}

	alert := alerting.Alert{
		Title:  "Access Granted",
		Text:   "Access to the course and initial email have been sent.",
		Color:  alerting.ColorGood,
		Footer: fmt.Sprintf("Timestamp: %s", evt.Meta(event.MetaTimestamp)),
	}
	if hasFailure {
		alert.Title = "Integration Errors Detected"
		alert.Text = "Some automated actions failed. Please review the details below."
		alert.Color = alerting.ColorBad
	}

	user := evt.Email
	if name := evt.Meta(event.MetaSubmitterName); name != "" {
		user = fmt.Sprintf("%s (%s)", name, evt.Email)
	}
	alert.Fields = append([]alerting.Field{{Title: "User", Value: user}}, fields...)
	if errorDetails != "" {
		if len(errorDetails) > 1000 {
			errorDetails = errorDetails[:1000]
		}
		alert.Fields = append(alert.Fields, alerting.Field{Title: "Error Details", Value: errorDetails})
	}
	if hasFailure {
		alert.Fields = append(alert.Fields, alerting.Field{
			Title: "Next Steps",
			Value: "Check logs and grant access manually if needed.",
		})
	}

	if err := f.alerter.Post(ctx, alert); err != nil {
		return "", err
	}
	return "summary posted", nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
