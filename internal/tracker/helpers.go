package tracker

const (
	EventPageView            = "page_view"
	EventButtonClick         = "button_click"
	EventFormStart           = "form_start"
	EventFormSubmit          = "form_submit"
	EventConsultationRequest = "consultation_request"
	EventNewsletterSignup    = "newsletter_signup"
	EventCostCalculatorUse   = "cost_calculator_use"
	EventPhoneCall           = "phone_call"
)

// PageView records a page view for path, or for the current page when path is empty.
func (t *Tracker) PageView(path string) {
	if path == "" {
		path = pagePath(t.env.Location())
	}
	t.Track(EventPageView, map[string]any{
		"path":  path,
		"title": t.env.Title(),
	})
}

func (t *Tracker) ButtonClick(buttonText, location string) {
	t.Track(EventButtonClick, map[string]any{
		"button_text": buttonText,
		"location":    location,
	})
}

func (t *Tracker) FormStart(formName string) {
	t.Track(EventFormStart, map[string]any{
		"form_name": formName,
	})
}

func (t *Tracker) FormSubmit(formName string, success bool, errorMessage string) {
	props := map[string]any{
		"form_name": formName,
		"success":   success,
	}
	if errorMessage != "" {
		props["error_message"] = errorMessage
	}
	t.Track(EventFormSubmit, props)
}

func (t *Tracker) ConsultationRequest(treatment, urgency string) {
	t.Track(EventConsultationRequest, map[string]any{
		"treatment": treatment,
		"urgency":   urgency,
		"value":     1,
	})
}

func (t *Tracker) NewsletterSignup(source string) {
	t.Track(EventNewsletterSignup, map[string]any{
		"source": source,
		"value":  1,
	})
}

func (t *Tracker) CostCalculatorUse(procedure string, estimatedCost float64) {
	t.Track(EventCostCalculatorUse, map[string]any{
		"procedure":      procedure,
		"estimated_cost": estimatedCost,
	})
}

func (t *Tracker) PhoneCall(phoneNumber, location string) {
	t.Track(EventPhoneCall, map[string]any{
		"phone_number": phoneNumber,
		"location":     location,
		"value":        5,
	})
}
