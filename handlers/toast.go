package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
)

// isHTMX reports whether the request came from an HTMX swap.
func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

// SetToast sets the HX-Trigger response header to show a toast notification
// on the client via HTMX. If an HX-Trigger header already exists, the toast
// payload is merged into the existing JSON object.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	payload := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &payload); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			payload = map[string]any{}
		}
	}
	payload["showToast"] = map[string]string{
		"message": message,
		"type":    toastType,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// ErrorToast reports a failure. HTMX clients get an error toast with
// HX-Reswap: none so the error text is not swapped into the DOM; API clients
// get a JSON body {"error": message}.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	if isHTMX(e) {
		SetToast(e, "error", message)
		e.Response.Header().Set("HX-Reswap", "none")
		return e.String(statusCode, message)
	}
	return e.JSON(statusCode, map[string]string{"error": message})
}

// FieldErrors reports per-field validation failures to API clients with
// 422 Unprocessable Entity.
func FieldErrors(e *core.RequestEvent, message string, fields map[string]string) error {
	if isHTMX(e) {
		SetToast(e, "warning", message)
		e.Response.Header().Set("HX-Reswap", "none")
	}
	return e.JSON(http.StatusUnprocessableEntity, map[string]any{
		"error":  message,
		"fields": fields,
	})
}
