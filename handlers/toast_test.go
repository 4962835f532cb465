package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"
)

// triggerEvents decodes the HX-Trigger header into its events.
func triggerEvents(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("no HX-Trigger header")
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger %q does not decode: %v", raw, err)
	}
	return events
}

type toastPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func shownToast(t *testing.T, rec *httptest.ResponseRecorder) toastPayload {
	t.Helper()
	var toast toastPayload
	if err := json.Unmarshal(triggerEvents(t, rec)["showToast"], &toast); err != nil {
		t.Fatalf("showToast does not decode: %v", err)
	}
	return toast
}

func TestSetToast_ExistingTrigger(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		keep     []string
		drop     []string
	}{
		{"no header", "", nil, nil},
		{"wizard event kept", `{"wizardStepChanged":{"step":2}}`, []string{"wizardStepChanged"}, nil},
		{"two events kept", `{"proposalUpdated":true,"refreshTotals":"now"}`, []string{"proposalUpdated", "refreshTotals"}, nil},
		{"old toast replaced", `{"showToast":{"message":"Draft saved","type":"info"}}`, nil, nil},
		{"plain event name discarded", "proposalUpdated", nil, []string{"proposalUpdated"}},
		{"JSON array discarded", `["a","b"]`, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent(true)
			if tt.existing != "" {
				rec.Header().Set("HX-Trigger", tt.existing)
			}

			SetToast(e, "success", "Line item added")

			events := triggerEvents(t, rec)
			if got := shownToast(t, rec); got != (toastPayload{"Line item added", "success"}) {
				t.Errorf("showToast = %+v", got)
			}
			for _, k := range tt.keep {
				if _, ok := events[k]; !ok {
					t.Errorf("event %q lost, header %s", k, rec.Header().Get("HX-Trigger"))
				}
			}
			for _, k := range tt.drop {
				if _, ok := events[k]; ok {
					t.Errorf("event %q should have been discarded", k)
				}
			}
			if want := 1 + len(tt.keep); len(events) != want {
				t.Errorf("expected %d events, got %d: %s", want, len(events), rec.Header().Get("HX-Trigger"))
			}
		})
	}
}

func TestSetToast_MergedEventUnchanged(t *testing.T) {
	e, rec := newToastEvent(true)
	rec.Header().Set("HX-Trigger", `{"wizardStepChanged":{"step":2,"title":"Add-ons"}}`)

	SetToast(e, "info", "Step saved")

	var step struct {
		Step  int    `json:"step"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(triggerEvents(t, rec)["wizardStepChanged"], &step); err != nil {
		t.Fatalf("wizardStepChanged does not decode: %v", err)
	}
	if step.Step != 2 || step.Title != "Add-ons" {
		t.Errorf("wizardStepChanged = %+v", step)
	}
}

func TestSetToast_LastCallWins(t *testing.T) {
	e, rec := newToastEvent(true)

	SetToast(e, "warning", "Please fix the errors below")
	SetToast(e, "error", "Proposal not found")

	if got := shownToast(t, rec); got != (toastPayload{"Proposal not found", "error"}) {
		t.Errorf("showToast = %+v", got)
	}
	if n := len(rec.Header().Values("HX-Trigger")); n != 1 {
		t.Errorf("expected a single HX-Trigger header, got %d", n)
	}
}

func TestSetToast_MessageEscaping(t *testing.T) {
	messages := map[string]string{
		"business name with quotes": `Saved "Sam's Bakery" & Co.`,
		"markup":                    `<b onclick="x()">Acme</b>`,
		"windows path":              `C:\exports\PRP-2026-001.pdf`,
		"multi-line":                "Price too large\nCheck quantity",
		"currency symbols":          "Total ₹1,20,000 / €1.200",
	}

	for name, msg := range messages {
		t.Run(name, func(t *testing.T) {
			e, rec := newToastEvent(true)

			SetToast(e, "info", msg)

			if got := shownToast(t, rec).Message; got != msg {
				t.Errorf("message = %q, want %q", got, msg)
			}
		})
	}
}

func TestSetToast_WritesThroughResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec

	SetToast(e, "success", "Proposal created")

	if got := shownToast(t, rec); got.Type != "success" {
		t.Errorf("showToast = %+v", got)
	}
}

func TestErrorToast_MergesWithExistingTrigger(t *testing.T) {
	e, rec := newToastEvent(true)
	rec.Header().Set("HX-Trigger", `{"proposalUpdated":true}`)

	ErrorToast(e, http.StatusConflict, "Please complete the earlier steps first")

	if _, ok := triggerEvents(t, rec)["proposalUpdated"]; !ok {
		t.Error("existing event dropped by ErrorToast")
	}
	if got := shownToast(t, rec); got.Type != "error" {
		t.Errorf("showToast = %+v", got)
	}
}

func newToastEvent(htmx bool) (*core.RequestEvent, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	return newTestRequestEvent(nil, req, rec), rec
}

func TestErrorToast_SetsHeaderAndReswap(t *testing.T) {
	e, rec := newToastEvent(true)

	err := ErrorToast(e, http.StatusNotFound, "Proposal not found")
	if err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}

	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("Expected HX-Trigger header to be set")
	}
	var parsed map[string]map[string]string
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("Failed to parse HX-Trigger JSON: %v", err)
	}
	toast, ok := parsed["showToast"]
	if !ok {
		t.Fatal("Expected showToast key in HX-Trigger")
	}
	if toast["type"] != "error" {
		t.Errorf("Expected type 'error', got %q", toast["type"])
	}
	if toast["message"] != "Proposal not found" {
		t.Errorf("Expected message 'Proposal not found', got %q", toast["message"])
	}

	if reswap := rec.Header().Get("HX-Reswap"); reswap != "none" {
		t.Errorf("Expected HX-Reswap 'none', got %q", reswap)
	}
	if rec.Body.String() != "Proposal not found" {
		t.Errorf("Expected body 'Proposal not found', got %q", rec.Body.String())
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestErrorToast_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		msg  string
	}{
		{"bad request", http.StatusBadRequest, "Invalid input"},
		{"not found", http.StatusNotFound, "Not found"},
		{"conflict", http.StatusConflict, "Resource conflict"},
		{"server error", http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent(true)

			ErrorToast(e, tt.code, tt.msg)

			if rec.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, rec.Code)
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("Expected HX-Reswap: none")
			}
		})
	}
}

func TestErrorToast_JSONForAPIClients(t *testing.T) {
	e, rec := newToastEvent(false)

	if err := ErrorToast(e, http.StatusConflict, "Already submitted"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("API clients should not get an HX-Trigger header")
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != "Already submitted" {
		t.Errorf("Expected error message, got %v", body)
	}
}

func TestFieldErrors(t *testing.T) {
	for _, htmx := range []bool{false, true} {
		e, rec := newToastEvent(htmx)

		err := FieldErrors(e, "Please fix the highlighted fields", map[string]string{"title": "Title is required"})
		if err != nil {
			t.Fatalf("FieldErrors returned error: %v", err)
		}
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("htmx=%v: expected 422, got %d", htmx, rec.Code)
		}

		var body struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		if body.Fields["title"] != "Title is required" {
			t.Errorf("htmx=%v: expected title error, got %v", htmx, body.Fields)
		}
		if got := rec.Header().Get("HX-Trigger") != ""; got != htmx {
			t.Errorf("htmx=%v: HX-Trigger set = %v", htmx, got)
		}
	}
}
