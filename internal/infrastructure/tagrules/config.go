package tagrules

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InteractionTags holds the mutually exclusive outcome tag ids applied when a
// contact replied to the automated agent, keyed by delivery channel.
type InteractionTags struct {
	MessagingTagID string `yaml:"messaging_tag_id"`
	EmailTagID     string `yaml:"email_tag_id"`
}

// EventRule maps a scheduling event type slug to a marketing tag.
type EventRule struct {
	Slug  string `yaml:"slug"`
	TagID string `yaml:"tag_id"`
}

// AssigneeRule maps an assigned operator's email to a marketing tag.
type AssigneeRule struct {
	Email string `yaml:"email"`
	TagID string `yaml:"tag_id"`
}

// AssigneeRules gates assignee tagging on the event name before mapping the
// assignee email to a tag.
type AssigneeRules struct {
	EventNameContains string         `yaml:"event_name_contains"`
	EventNameExcludes string         `yaml:"event_name_excludes"`
	Assignees         []AssigneeRule `yaml:"assignees"`
}

// AgreementRules holds the marketing tag applied when a signature flow completes.
type AgreementRules struct {
	CompletedTagID string `yaml:"completed_tag_id"`
}

// MarketingRules holds standalone marketing tag ids.
type MarketingRules struct {
	NoShowTagID string `yaml:"no_show_tag_id"`
}

// Config represents the tag routing configuration
type Config struct {
	Interaction   InteractionTags `yaml:"interaction"`
	EventRules    []EventRule     `yaml:"event_rules"`
	AssigneeRules AssigneeRules   `yaml:"assignee_rules"`
	Agreement     AgreementRules  `yaml:"agreement"`
	Marketing     MarketingRules  `yaml:"marketing"`
}

// LoadConfig loads the tag routing configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	// Expand environment variables in config path
	configPath = os.ExpandEnv(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InteractionTagIDs returns the mutually exclusive outcome tag ids.
func (c *Config) InteractionTagIDs() (messagingTagID, emailTagID string) {
	return c.Interaction.MessagingTagID, c.Interaction.EmailTagID
}

// AgreementCompletedTag returns the marketing tag for a completed signature.
func (c *Config) AgreementCompletedTag() string {
	return c.Agreement.CompletedTagID
}

// NoShowTag returns the marketing tag applied to no-show registrants.
func (c *Config) NoShowTag() string {
	return c.Marketing.NoShowTagID
}

// EventTag returns the marketing tag id for a scheduling event slug.
func (c *Config) EventTag(slug string) (string, bool) {
	for _, r := range c.EventRules {
		if r.Slug == slug {
			return r.TagID, true
		}
	}
	return "", false
}

// AssigneeTag returns the marketing tag id for an assigned operator, provided
// the event name passes the configured contains/excludes filters.
func (c *Config) AssigneeTag(assigneeEmail, eventName string) (string, bool) {
	rules := c.AssigneeRules
	name := strings.ToLower(eventName)
	if rules.EventNameContains != "" && !strings.Contains(name, strings.ToLower(rules.EventNameContains)) {
		return "", false
	}
	if rules.EventNameExcludes != "" && strings.Contains(name, strings.ToLower(rules.EventNameExcludes)) {
		return "", false
	}
	for _, a := range rules.Assignees {
		if strings.EqualFold(a.Email, assigneeEmail) {
			return a.TagID, true
		}
	}
	return "", false
}
