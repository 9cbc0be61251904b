package domain

import (
	"maps"
	"strings"
)

const (
	CategoryEngagement  = "engagement"
	CategoryInteraction = "interaction"
	CategoryNavigation  = "navigation"
	CategoryConversion  = "conversion"
	CategoryGeneral     = "general"

	defaultLabel = "general"
)

var categoryRules = []struct {
	category string
	needles  []string
}{
	{CategoryEngagement, []string{"form", "consultation"}},
	{CategoryInteraction, []string{"button", "click"}},
	{CategoryNavigation, []string{"page"}},
	{CategoryConversion, []string{"phone", "call"}},
}

// Category classifies an event name for the secondary reporting sink.
// The first matching rule wins.
func Category(name string) string {
	for _, rule := range categoryRules {
		for _, needle := range rule.needles {
			if strings.Contains(name, needle) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// Report is the per-event payload handed to a secondary reporting sink.
type Report struct {
	Category         string         `json:"event_category"`
	Label            string         `json:"event_label"`
	Value            any            `json:"value"`
	CustomParameters map[string]any `json:"custom_parameters"`
}

// NewReport builds the secondary-sink view of e. CustomParameters is a copy of
// e.Properties, so changes made by a reporter do not reach the event.
func NewReport(e Event) Report {
	label := defaultLabel
	for _, key := range []string{"treatment", "form_name"} {
		if s, ok := e.Properties[key].(string); ok && s != "" {
			label = s
			break
		}
	}

	var value any = 1
	if v, ok := e.Properties["value"]; ok && v != nil {
		value = v
	}

	return Report{
		Category:         Category(e.Event),
		Label:            label,
		Value:            value,
		CustomParameters: maps.Clone(e.Properties),
	}
}
