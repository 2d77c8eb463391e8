package service

import "relay/internal/dispatch/models"

// deriveContext extracts the dispatch context from the envelope. Stakeholder
// selection prefers the first entry with a mobile number, falling back to the
// first entry; an empty list leaves the recipient fields blank.
func (s *Service) deriveContext(event *models.DomainEvent) *models.DerivedContext {
	var stakeholder *models.Stakeholder
	for i := range event.Stakeholders {
		if event.Stakeholders[i].Mobile != "" {
			stakeholder = &event.Stakeholders[i]
			break
		}
	}
	if stakeholder == nil && len(event.Stakeholders) > 0 {
		stakeholder = &event.Stakeholders[0]
	}

	derived := &models.DerivedContext{
		Channel: s.channel,
		Locale:  s.defaultLocale,
	}
	if event.Workflow != nil {
		derived.WorkflowState = event.Workflow.ToState
	}
	if event.Context != nil && event.Context.Locale != "" {
		derived.Locale = event.Context.Locale
	}
	if stakeholder != nil {
		derived.Audience = stakeholder.Type
		derived.RecipientMobile = stakeholder.Mobile
		derived.RecipientUserID = stakeholder.UserID
	}
	return derived
}
