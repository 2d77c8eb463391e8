package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/dispatch/models"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

func TestResolveContentSid(t *testing.T) {
	t.Run("explicit content sid wins", func(t *testing.T) {
		template := &models.ResolvedTemplate{
			ContentSid:      "HX0123456789abcdef0123456789abcdef",
			TemplateVersion: "v2",
		}
		assert.Equal(t, "HX0123456789abcdef0123456789abcdef", resolveContentSid(template))
	})

	t.Run("legacy template version carrying the content id", func(t *testing.T) {
		template := &models.ResolvedTemplate{
			TemplateVersion: "HXaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		}
		assert.Equal(t, "HXaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", resolveContentSid(template))
	})

	t.Run("plain version is not a content id", func(t *testing.T) {
		template := &models.ResolvedTemplate{TemplateVersion: "v1"}
		assert.Empty(t, resolveContentSid(template))
	})
}

func TestValidateTemplateShape(t *testing.T) {
	t.Run("no content sid needs no param order", func(t *testing.T) {
		require.NoError(t, validateTemplateShape(&models.ResolvedTemplate{
			TemplateKey:     "bill-generated",
			TemplateVersion: "v1",
		}))
	})

	t.Run("content sid without param order rejected", func(t *testing.T) {
		err := validateTemplateShape(&models.ResolvedTemplate{
			TemplateKey: "bill-generated",
			ContentSid:  "HX0123456789abcdef0123456789abcdef",
		})
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeParamOrderRequired))
	})

	t.Run("malformed content sid rejected", func(t *testing.T) {
		err := validateTemplateShape(&models.ResolvedTemplate{
			TemplateKey: "bill-generated",
			ContentSid:  "HX-not-hex",
			ParamOrder:  []string{"amount"},
		})
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeContentSidInvalid))
	})

	t.Run("well formed content sid with param order", func(t *testing.T) {
		require.NoError(t, validateTemplateShape(&models.ResolvedTemplate{
			TemplateKey: "bill-generated",
			ContentSid:  "HXABCDEF0123456789abcdef0123456789",
			ParamOrder:  []string{"amount"},
		}))
	})
}

func TestValidateContentSidFormat(t *testing.T) {
	hex := []byte("0123456789abcdefABCDEF")
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		sid := make([]byte, 32)
		for j := range sid {
			sid[j] = hex[r.Intn(len(hex))]
		}
		require.NoError(t, validateContentSid("HX"+string(sid)))
	}

	bad := []string{
		"",
		"HX",
		"HX0123456789abcdef0123456789abcde",    // 31 chars
		"HX0123456789abcdef0123456789abcdef0",  // 33 chars
		"hx0123456789abcdef0123456789abcdef",   // lowercase prefix
		"HX0123456789abcdef0123456789abcdeg",   // non-hex char
		"XX0123456789abcdef0123456789abcdef",   // wrong prefix
		" HX0123456789abcdef0123456789abcdef",  // leading space
		"HX0123456789abcdef0123456789abcdef ",  // trailing space
	}
	for _, sid := range bad {
		err := validateContentSid(sid)
		require.Error(t, err, fmt.Sprintf("expected rejection for %q", sid))
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeContentSidInvalid))
	}
}

func TestFindMissingRequiredVars(t *testing.T) {
	t.Run("union of required vars and param order", func(t *testing.T) {
		template := &models.ResolvedTemplate{
			ContentSid:   "HX0123456789abcdef0123456789abcdef",
			RequiredVars: []string{"a", "b"},
			ParamOrder:   []string{"a", "b", "c"},
		}
		missing := findMissingRequiredVars(template, document.Document{"a": 1})
		assert.Equal(t, []string{"b", "c"}, missing)
	})

	t.Run("param order ignored without content sid", func(t *testing.T) {
		template := &models.ResolvedTemplate{
			RequiredVars: []string{"a"},
			ParamOrder:   []string{"a", "b", "c"},
		}
		missing := findMissingRequiredVars(template, document.Document{"a": 1})
		assert.Empty(t, missing)
	})

	t.Run("nil data misses everything", func(t *testing.T) {
		template := &models.ResolvedTemplate{RequiredVars: []string{"a", "b"}}
		missing := findMissingRequiredVars(template, nil)
		assert.Equal(t, []string{"a", "b"}, missing)
	})

	t.Run("all present", func(t *testing.T) {
		template := &models.ResolvedTemplate{RequiredVars: []string{"amount", "dueDate"}}
		data := document.Document{"amount": "1200", "dueDate": "2026-09-30"}
		assert.Empty(t, findMissingRequiredVars(template, data))
	})
}

func TestBuildTemplateOverrides(t *testing.T) {
	t.Run("positional content variables in param order", func(t *testing.T) {
		template := &models.ResolvedTemplate{
			ContentSid: "HX0123456789abcdef0123456789abcdef",
			ParamOrder: []string{"name", "amount", "dueDate"},
		}
		data := document.Document{
			"name":    "Asha",
			"amount":  1250.50,
			"dueDate": "2026-09-30",
		}

		overrides, err := buildTemplateOverrides(template, data)
		require.NoError(t, err)

		providers, ok := overrides.Child("providers")
		require.True(t, ok)
		twilio, ok := providers.Child("twilio")
		require.True(t, ok)
		passthrough, ok := twilio.Child("_passthrough")
		require.True(t, ok)
		body, ok := passthrough.Child("body")
		require.True(t, ok)

		assert.Equal(t, "HX0123456789abcdef0123456789abcdef", body["contentSid"])
		assert.Equal(t, map[string]string{
			"1": "Asha",
			"2": "1250.5",
			"3": "2026-09-30",
		}, body["contentVariables"])
	})

	t.Run("no content sid produces no overrides", func(t *testing.T) {
		overrides, err := buildTemplateOverrides(&models.ResolvedTemplate{TemplateKey: "plain"}, nil)
		require.NoError(t, err)
		assert.Nil(t, overrides)
	})

	t.Run("content sid without param order rejected", func(t *testing.T) {
		_, err := buildTemplateOverrides(&models.ResolvedTemplate{
			ContentSid: "HX0123456789abcdef0123456789abcdef",
		}, nil)
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeParamOrderRequired))
	})
}

func TestBuildRawOverrides(t *testing.T) {
	t.Run("nil variables default to empty map", func(t *testing.T) {
		overrides, err := buildRawOverrides("HX0123456789abcdef0123456789abcdef", nil)
		require.NoError(t, err)
		providers, _ := overrides.Child("providers")
		twilio, _ := providers.Child("twilio")
		passthrough, _ := twilio.Child("_passthrough")
		body, _ := passthrough.Child("body")
		assert.Equal(t, map[string]string{}, body["contentVariables"])
	})

	t.Run("invalid content sid rejected", func(t *testing.T) {
		_, err := buildRawOverrides("HXzz", nil)
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeContentSidInvalid))
	})
}

func TestFormatWhatsAppPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"9876543210", "whatsapp:+9876543210"},
		{"+919876543210", "whatsapp:+919876543210"},
		{"whatsapp:+919876543210", "whatsapp:+919876543210"},
		{"  9876543210  ", "whatsapp:+9876543210"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatWhatsAppPhone(tt.in))
	}
}
