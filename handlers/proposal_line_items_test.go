package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sitewizard/testhelpers"
)

func TestParseLineItemForm(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantFields []string
	}{
		{"valid", url.Values{"description": {"Design"}, "unit_price": {"1250.50"}, "quantity": {"2"}, "estimated_hours": {"4.5"}}, nil},
		{"hours optional", url.Values{"description": {"Design"}, "unit_price": {"10"}, "quantity": {"1"}}, nil},
		{"missing description", url.Values{"unit_price": {"10"}, "quantity": {"1"}}, []string{"description"}},
		{"three decimals", url.Values{"description": {"d"}, "unit_price": {"10.005"}, "quantity": {"1"}}, []string{"unit_price"}},
		{"negative price", url.Values{"description": {"d"}, "unit_price": {"-1"}, "quantity": {"1"}}, []string{"unit_price"}},
		{"zero quantity", url.Values{"description": {"d"}, "unit_price": {"10"}, "quantity": {"0"}}, []string{"quantity"}},
		{"fractional quantity", url.Values{"description": {"d"}, "unit_price": {"10"}, "quantity": {"1.5"}}, []string{"quantity"}},
		{"negative hours", url.Values{"description": {"d"}, "unit_price": {"10"}, "quantity": {"1"}, "estimated_hours": {"-2"}}, []string{"estimated_hours"}},
		{"price beyond stored range", url.Values{"description": {"d"}, "unit_price": {"90071992547409.92"}, "quantity": {"1"}}, []string{"unit_price"}},
		{"overflowing total", url.Values{"description": {"d"}, "unit_price": {"90000000000000"}, "quantity": {"2000"}}, []string{"quantity"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newFormRequest(http.MethodPost, "/", tt.form)
			req.ParseForm()
			_, errs := parseLineItemForm(newTestRequestEvent(nil, req, httptest.NewRecorder()), "USD")
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("expected errors on %v, got %v", tt.wantFields, errs)
			}
			for _, f := range tt.wantFields {
				if _, ok := errs[f]; !ok {
					t.Errorf("expected error on %q, got %v", f, errs)
				}
			}
		})
	}
}

func TestHandleProposalAddLineItem(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Add", "0", "0")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Existing", 5000, 1, "")

	req := newFormRequest(http.MethodPost, "/proposals/"+p.Id+"/line-items", url.Values{
		"description":     {"Extra page"},
		"unit_price":      {"150.00"},
		"quantity":        {"3"},
		"estimated_hours": {"6"},
	})
	rec := serve(t, app, HandleProposalAddLineItem(app), req, map[string]string{"id": p.Id})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	item, err := app.FindFirstRecordByData("proposal_line_items", "description", "Extra page")
	if err != nil {
		t.Fatalf("line item not saved: %v", err)
	}
	if item.GetInt("unit_price_cents") != 15000 || item.GetInt("quantity") != 3 {
		t.Errorf("unexpected item price=%d qty=%d", item.GetInt("unit_price_cents"), item.GetInt("quantity"))
	}
	if item.GetInt("sort_order") != 2 {
		t.Errorf("sort_order = %d, want 2", item.GetInt("sort_order"))
	}

	saved, _ := app.FindRecordById("proposals", p.Id)
	if got := saved.GetInt("total_cents"); got != 5000+45000 {
		t.Errorf("total_cents = %d, want %d", got, 5000+45000)
	}
}

func TestHandleProposalAddLineItem_Invalid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Add", "0", "0")

	form := url.Values{"description": {""}, "unit_price": {"abc"}, "quantity": {"1"}}

	rec := serve(t, app, HandleProposalAddLineItem(app), newFormRequest(http.MethodPost, "/", form), map[string]string{"id": p.Id})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}

	req := newFormRequest(http.MethodPost, "/", form)
	req.Header.Set("HX-Request", "true")
	rec = serve(t, app, HandleProposalAddLineItem(app), req, map[string]string{"id": p.Id})
	if rec.Code != http.StatusOK {
		t.Errorf("HTMX: expected 200 re-render, got %d", rec.Code)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "Description is required")

	items, _ := app.FindAllRecords("proposal_line_items")
	if len(items) != 0 {
		t.Errorf("expected no line items saved, got %d", len(items))
	}
}

func TestHandleProposalAddLineItem_OverflowingTotal(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Huge", "0", "0")

	req := newFormRequest(http.MethodPost, "/", url.Values{
		"description": {"Everything"},
		"unit_price":  {"90000000000000"},
		"quantity":    {"2000"},
	})
	rec := serve(t, app, HandleProposalAddLineItem(app), req, map[string]string{"id": p.Id})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	fields, _ := decodeJSON(t, rec)["fields"].(map[string]any)
	if _, ok := fields["quantity"]; !ok {
		t.Errorf("expected a quantity error, got %v", fields)
	}

	items, _ := app.FindAllRecords("proposal_line_items")
	if len(items) != 0 {
		t.Errorf("expected no line items saved, got %d", len(items))
	}

	view := serve(t, app, HandleProposalView(app), httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": p.Id})
	if view.Code != http.StatusOK {
		t.Errorf("proposal view after rejected item: expected 200, got %d", view.Code)
	}
}

func TestHandleProposalAddLineItem_SumOverflowRollsBack(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Huge", "0", "0")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Big", 9_000_000_000_000_000, 1000, "")

	req := newFormRequest(http.MethodPost, "/", url.Values{
		"description": {"One more"},
		"unit_price":  {"90000000000000"},
		"quantity":    {"100"},
	})
	rec := serve(t, app, HandleProposalAddLineItem(app), req, map[string]string{"id": p.Id})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	items, _ := app.FindAllRecords("proposal_line_items")
	if len(items) != 1 {
		t.Errorf("expected the rejected item to be rolled back, got %d items", len(items))
	}
	if _, err := app.FindFirstRecordByData("proposal_line_items", "description", "One more"); err == nil {
		t.Error("rejected line item was persisted")
	}
}

func TestHandleProposalAddLineItem_UnknownProposal(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := newFormRequest(http.MethodPost, "/", url.Values{"description": {"x"}, "unit_price": {"1"}, "quantity": {"1"}})
	rec := serve(t, app, HandleProposalAddLineItem(app), req, map[string]string{"id": "missing"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleProposalUpdateLineItem(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Update", "0", "0")
	item := testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Design", 10000, 1, "")

	req := newFormRequest(http.MethodPatch, "/", url.Values{
		"description": {"Design (revised)"},
		"unit_price":  {"120"},
		"quantity":    {"2"},
	})
	rec := serve(t, app, HandleProposalUpdateLineItem(app), req, map[string]string{"id": p.Id, "itemId": item.Id})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated, _ := app.FindRecordById("proposal_line_items", item.Id)
	if updated.GetString("description") != "Design (revised)" || updated.GetInt("unit_price_cents") != 12000 {
		t.Errorf("unexpected update %q %d", updated.GetString("description"), updated.GetInt("unit_price_cents"))
	}
	saved, _ := app.FindRecordById("proposals", p.Id)
	if got := saved.GetInt("total_cents"); got != 24000 {
		t.Errorf("total_cents = %d, want 24000", got)
	}
}

func TestHandleProposalUpdateLineItem_OverflowingTotal(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Update", "0", "0")
	item := testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Design", 10000, 1, "")

	req := newFormRequest(http.MethodPatch, "/", url.Values{
		"description": {"Design"},
		"unit_price":  {"90000000000000"},
		"quantity":    {"2000"},
	})
	rec := serve(t, app, HandleProposalUpdateLineItem(app), req, map[string]string{"id": p.Id, "itemId": item.Id})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := app.FindRecordById("proposal_line_items", item.Id)
	if stored.GetInt("unit_price_cents") != 10000 || stored.GetInt("quantity") != 1 {
		t.Errorf("line item changed to price=%d qty=%d", stored.GetInt("unit_price_cents"), stored.GetInt("quantity"))
	}
}

func TestHandleProposalLineItem_WrongProposal(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p1 := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "One", "0", "0")
	p2 := testhelpers.CreateTestProposal(t, app, "PRP-2026-002", "Two", "0", "0")
	item := testhelpers.CreateTestLineItem(t, app, p1.Id, 1, "Design", 10000, 1, "")

	paths := map[string]string{"id": p2.Id, "itemId": item.Id}

	req := newFormRequest(http.MethodPatch, "/", url.Values{"description": {"x"}, "unit_price": {"1"}, "quantity": {"1"}})
	if rec := serve(t, app, HandleProposalUpdateLineItem(app), req, paths); rec.Code != http.StatusNotFound {
		t.Errorf("update: expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	if rec := serve(t, app, HandleProposalDeleteLineItem(app), req, paths); rec.Code != http.StatusNotFound {
		t.Errorf("delete: expected 404, got %d", rec.Code)
	}
	if _, err := app.FindRecordById("proposal_line_items", item.Id); err != nil {
		t.Error("line item of another proposal was deleted")
	}
}

func TestHandleProposalDeleteLineItem(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Delete", "0", "0")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Keep", 10000, 1, "")
	drop := testhelpers.CreateTestLineItem(t, app, p.Id, 2, "Drop", 5000, 1, "")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(t, app, HandleProposalDeleteLineItem(app), req, map[string]string{"id": p.Id, "itemId": drop.Id})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "Drop") || !strings.Contains(body, "Keep") {
		t.Errorf("expected only the kept item to render, got %s", body)
	}
	saved, _ := app.FindRecordById("proposals", p.Id)
	if got := saved.GetInt("total_cents"); got != 10000 {
		t.Errorf("total_cents = %d, want 10000", got)
	}
}

func TestHandleProposalRecalculate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Recalc", "0.05", "0")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Design", 10000, 1, "")

	rec := serve(t, app, HandleProposalRecalculate(app), httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"id": p.Id})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	saved, _ := app.FindRecordById("proposals", p.Id)
	if got := saved.GetInt("total_cents"); got != 10500 {
		t.Errorf("total_cents = %d, want 10500", got)
	}

	rec = serve(t, app, HandleProposalRecalculate(app), httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"id": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown proposal, got %d", rec.Code)
	}
}
