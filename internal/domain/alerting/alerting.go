package alerting

import "context"

// Attachment colors understood by the alerting sink.
const (
	ColorGood = "#36a64f"
	ColorBad  = "#ff0000"
	ColorInfo = "#00bfff"
	ColorGray = "#808080"
)

// Field is one titled value rendered inside an alert.
type Field struct {
	Title string
	Value string
	Short bool
}

// Alert is a fire-and-forget notification. Delivery failures are logged
// only and never affect the webhook response.
type Alert struct {
	Title  string
	Text   string
	Color  string
	Fields []Field
	Footer string
}

// Sink posts alerts to an external notification channel.
type Sink interface {
	Post(ctx context.Context, alert Alert) error
}
