package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"sitewizard/config"
)

type contextKey string

const WizardSessionKey contextKey = "wizardSession"

const wizardCookieName = "wizard_session"

// GetWizardSessionKey extracts the wizard session key from the request context.
func GetWizardSessionKey(r *http.Request) string {
	if val, ok := r.Context().Value(WizardSessionKey).(string); ok {
		return val
	}
	return ""
}

// ensureWizardSession returns the visitor's wizard session key, issuing a new
// cookie when the request has none or carries a malformed one.
func ensureWizardSession(e *core.RequestEvent, settings config.Config) string {
	if key := GetWizardSessionKey(e.Request); key != "" {
		return key
	}
	if cookie, err := e.Request.Cookie(wizardCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}

	key := uuid.NewString()
	http.SetCookie(e.Response, &http.Cookie{
		Name:     wizardCookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   int(settings.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   settings.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

// clearWizardSession expires the session cookie so the next visit starts a
// fresh wizard.
func clearWizardSession(e *core.RequestEvent) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:   wizardCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// WizardSessionMiddleware makes sure every wizard request carries a session
// key and stores it in the request context for handlers.
func WizardSessionMiddleware(settings config.Config) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := ensureWizardSession(e, settings)
		ctx := context.WithValue(e.Request.Context(), WizardSessionKey, key)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}
