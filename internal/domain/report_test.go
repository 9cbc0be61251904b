package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategory(t *testing.T) {
	cases := map[string]string{
		"form_submit":          CategoryEngagement,
		"consultation_request": CategoryEngagement,
		"button_click":         CategoryInteraction,
		"page_view":            CategoryNavigation,
		"phone_call":           CategoryConversion,
		"other_thing":          CategoryGeneral,
		"":                     CategoryGeneral,
		// "form" is checked before "click".
		"form_click": CategoryEngagement,
	}

	for name, want := range cases {
		require.Equal(t, want, Category(name), name)
	}
}

func TestNewReport(t *testing.T) {
	cases := map[string]struct {
		event Event
		label string
		value any
	}{
		"treatment label and explicit value": {
			event: Event{Event: "consultation_request", Properties: map[string]any{"treatment": "cardiac", "value": 1}},
			label: "cardiac",
			value: 1,
		},
		"form name label": {
			event: Event{Event: "form_submit", Properties: map[string]any{"form_name": "newsletter"}},
			label: "newsletter",
			value: 1,
		},
		"defaults": {
			event: Event{Event: "page_view", Properties: map[string]any{}},
			label: "general",
			value: 1,
		},
		"phone call value": {
			event: Event{Event: "phone_call", Properties: map[string]any{"value": 5}},
			label: "general",
			value: 5,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := NewReport(tc.event)
			require.Equal(t, Category(tc.event.Event), r.Category)
			require.Equal(t, tc.label, r.Label)
			require.Equal(t, tc.value, r.Value)
			require.Equal(t, tc.event.Properties, r.CustomParameters)
		})
	}
}

func TestNewReport_CopiesProperties(t *testing.T) {
	e := Event{Event: "form_submit", Properties: map[string]any{"form_name": "contact"}}

	r := NewReport(e)
	r.CustomParameters["form_name"] = "changed"
	r.CustomParameters["extra"] = true

	require.Equal(t, map[string]any{"form_name": "contact"}, e.Properties)
}
