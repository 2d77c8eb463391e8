package service

import (
	"regexp"
	"strconv"
	"strings"

	"relay/internal/dispatch/models"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

// Twilio content template ids are "HX" followed by 32 hex characters.
var twilioContentSidPattern = regexp.MustCompile(`^HX[a-fA-F0-9]{32}$`)

// resolveContentSid returns the effective content id for the template,
// honoring records written before the dedicated field existed where
// templateVersion carried the content id.
func resolveContentSid(template *models.ResolvedTemplate) string {
	if template.ContentSid != "" {
		return template.ContentSid
	}
	if strings.HasPrefix(template.TemplateVersion, "HX") {
		return template.TemplateVersion
	}
	return ""
}

// validateTemplateShape rejects malformed provider configuration before any
// payload is built. A bad content id or a content id without a paramOrder is
// a configuration defect, not a per-event data problem.
func validateTemplateShape(template *models.ResolvedTemplate) error {
	contentSid := resolveContentSid(template)
	if contentSid == "" {
		return nil
	}
	if err := validateContentSid(contentSid); err != nil {
		return err
	}
	if len(template.ParamOrder) == 0 {
		return domainerrors.New(domainerrors.CodeParamOrderRequired,
			"paramOrder is required when a Twilio contentSid is configured")
	}
	return nil
}

func validateContentSid(contentSid string) error {
	if !twilioContentSidPattern.MatchString(contentSid) {
		return domainerrors.New(domainerrors.CodeContentSidInvalid,
			"invalid Twilio contentSid format; expected HX followed by 32 hex chars")
	}
	return nil
}

// findMissingRequiredVars accumulates every effective required variable that
// is absent or nil in the event data. The effective set is requiredVars plus
// paramOrder whenever a content id demands positional substitution.
func findMissingRequiredVars(template *models.ResolvedTemplate, data document.Document) []string {
	var required []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			required = append(required, name)
		}
	}
	for _, name := range template.RequiredVars {
		add(name)
	}
	if resolveContentSid(template) != "" {
		for _, name := range template.ParamOrder {
			add(name)
		}
	}

	var missing []string
	for _, name := range required {
		if data == nil || !data.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// buildTemplateOverrides turns the ordered variable names into positional
// content variables nested under the Twilio passthrough structure. No content
// id means no overrides; the trigger proceeds with the event payload alone.
func buildTemplateOverrides(template *models.ResolvedTemplate, data document.Document) (document.Document, error) {
	contentSid := resolveContentSid(template)
	if contentSid == "" {
		return nil, nil
	}
	if err := validateContentSid(contentSid); err != nil {
		return nil, err
	}
	if len(template.ParamOrder) == 0 {
		return nil, domainerrors.New(domainerrors.CodeParamOrderRequired,
			"paramOrder is required when a Twilio contentSid is configured")
	}

	contentVariables := make(map[string]string, len(template.ParamOrder))
	for i, key := range template.ParamOrder {
		contentVariables[strconv.Itoa(i+1)] = document.Stringify(data[key])
	}
	return buildRawOverrides(contentSid, contentVariables)
}

// buildRawOverrides wraps an explicit content id and variables for the ad-hoc
// trigger path.
func buildRawOverrides(contentSid string, contentVariables map[string]string) (document.Document, error) {
	if contentSid == "" {
		return nil, nil
	}
	if err := validateContentSid(contentSid); err != nil {
		return nil, err
	}
	if contentVariables == nil {
		contentVariables = map[string]string{}
	}
	return document.Document{
		"providers": map[string]any{
			"twilio": map[string]any{
				"_passthrough": map[string]any{
					"body": map[string]any{
						"contentSid":       contentSid,
						"contentVariables": contentVariables,
					},
				},
			},
		},
	}, nil
}

// formatWhatsAppPhone normalizes a mobile number into the whatsapp:+<msisdn>
// addressing scheme, passing through already-formatted values.
func formatWhatsAppPhone(mobile string) string {
	normalized := strings.TrimSpace(mobile)
	if normalized == "" {
		return ""
	}
	if strings.HasPrefix(normalized, "whatsapp:") {
		return normalized
	}
	if strings.HasPrefix(normalized, "+") {
		return "whatsapp:" + normalized
	}
	return "whatsapp:+" + normalized
}
