package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"expenza/internal/core"
	"expenza/internal/store"
)

func testClock() core.Clock {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestServer() (*Server, *store.Store) {
	st := store.New(&core.SequenceGenerator{}, testClock(), nil)
	srv := NewServer(":0", st, testClock())
	return srv, st
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer()

	rr := get(srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Expenza") {
		t.Fatal("index body missing app heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(srv, path); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer()

	rr := get(srv, "/")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rr.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestCreateExpense(t *testing.T) {
	srv, st := newTestServer()

	// Wrong method
	if rr := get(srv, "/expenses"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /expenses status = %d, want 405", rr.Code)
	}

	// Invalid amount coerces to 0 and fails validation
	rr := postForm(srv, "/expenses", url.Values{
		"description": {"x"}, "amount": {"abc"}, "category_id": {"food"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad amount status = %d, want 422", rr.Code)
	}

	// Unknown category
	rr = postForm(srv, "/expenses", url.Values{
		"description": {"x"}, "amount": {"5.00"}, "category_id": {"ghost"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown category status = %d, want 422", rr.Code)
	}

	// Success, with comma decimal separator
	rr = postForm(srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"12,50"}, "category_id": {"food"}, "date": {"2024-06-10"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d body=%s", rr.Code, rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "dataset:changed") {
		t.Errorf("HX-Trigger = %q, want dataset:changed", trigger)
	}

	snap := st.Snapshot()
	if len(snap.Expenses) != 1 || snap.Expenses[0].Amount != 12.50 {
		t.Errorf("stored expenses = %+v", snap.Expenses)
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	srv, st := newTestServer()

	rr := postForm(srv, "/expenses/update", url.Values{
		"id": {"missing"}, "description": {"x"}, "amount": {"5"}, "category_id": {"food"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("update missing status = %d, want 404", rr.Code)
	}

	postForm(srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"5"}, "category_id": {"food"},
	})
	id := st.Snapshot().Expenses[0].ID

	rr = postForm(srv, "/expenses/update", url.Values{
		"id": {id}, "description": {"Dinner"}, "amount": {"9.99"}, "category_id": {"food"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rr.Code, rr.Body.String())
	}
	if got := st.Snapshot().Expenses[0]; got.Description != "Dinner" || got.Amount != 9.99 {
		t.Errorf("updated expense = %+v", got)
	}

	rr = postForm(srv, "/expenses/delete", url.Values{"id": {id}})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if n := len(st.Snapshot().Expenses); n != 0 {
		t.Errorf("expense count after delete = %d", n)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	srv, st := newTestServer()

	rr := postForm(srv, "/categories", url.Values{"name": {"  "}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank name status = %d, want 422", rr.Code)
	}

	rr = postForm(srv, "/categories", url.Values{"name": {"Pets"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("create category status = %d", rr.Code)
	}

	var petsID string
	for _, c := range st.Snapshot().Categories {
		if c.Name == "Pets" {
			petsID = c.ID
		}
	}
	if petsID == "" {
		t.Fatal("new category not stored")
	}

	// In-use category is protected
	postForm(srv, "/expenses", url.Values{
		"description": {"Vet"}, "amount": {"40"}, "category_id": {petsID},
	})
	rr = postForm(srv, "/categories/delete", url.Values{"id": {petsID}})
	if rr.Code != http.StatusConflict {
		t.Fatalf("delete in-use status = %d, want 409", rr.Code)
	}

	postForm(srv, "/expenses/delete", url.Values{"id": {st.Snapshot().Expenses[0].ID}})
	rr = postForm(srv, "/categories/delete", url.Values{"id": {petsID}})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete empty category status = %d", rr.Code)
	}
}

func TestSaveBudgetsAndReport(t *testing.T) {
	srv, st := newTestServer()

	postForm(srv, "/expenses", url.Values{
		"description": {"Groceries"}, "amount": {"150"}, "category_id": {"food"}, "date": {"2024-06-10"},
	})
	rr := postForm(srv, "/budgets", url.Values{
		"overall": {"500"}, "budget_food": {"100"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("save budgets status = %d", rr.Code)
	}

	snap := st.Snapshot()
	if snap.OverallBudget != 500 || len(snap.Budgets) != 1 {
		t.Fatalf("stored budgets = overall %v, %+v", snap.OverallBudget, snap.Budgets)
	}

	rr = get(srv, "/ui/budgets")
	if rr.Code != http.StatusOK {
		t.Fatalf("budget report status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "150.0%") {
		t.Errorf("report missing unclamped utilization:\n%s", body)
	}
	if !strings.Contains(body, "exceeded") {
		t.Errorf("report missing exceeded level:\n%s", body)
	}
}

func TestExpenseListFilters(t *testing.T) {
	srv, _ := newTestServer()

	postForm(srv, "/expenses", url.Values{
		"description": {"Train ticket"}, "amount": {"45"}, "category_id": {"transport"},
	})
	postForm(srv, "/expenses", url.Values{
		"description": {"Groceries"}, "amount": {"30"}, "category_id": {"food"},
	})

	rr := get(srv, "/ui/expenses?q=train")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Train ticket") || strings.Contains(body, "Groceries") {
		t.Errorf("search filter not applied:\n%s", body)
	}

	rr = get(srv, "/ui/expenses?category=food")
	body = rr.Body.String()
	if strings.Contains(body, "Train ticket") || !strings.Contains(body, "Groceries") {
		t.Errorf("category filter not applied:\n%s", body)
	}
}

func TestDashboardPartials(t *testing.T) {
	srv, _ := newTestServer()

	postForm(srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"12.50"}, "category_id": {"food"}, "date": {"2024-06-10"},
	})

	for _, path := range []string{"/ui/summary", "/ui/category-totals", "/ui/monthly", "/ui/trend", "/ui/categories"} {
		rr := get(srv, path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}

	rr := get(srv, "/ui/summary")
	if !strings.Contains(rr.Body.String(), "$12.50") {
		t.Errorf("summary missing total:\n%s", rr.Body.String())
	}

	rr = get(srv, "/ui/monthly")
	if !strings.Contains(rr.Body.String(), "Jan 2024") || !strings.Contains(rr.Body.String(), "Jun 2024") {
		t.Errorf("monthly chart missing six-month labels:\n%s", rr.Body.String())
	}
}

func TestExportDownloads(t *testing.T) {
	srv, _ := newTestServer()

	postForm(srv, "/expenses", url.Values{
		"description": {"Lunch"}, "amount": {"12.50"}, "category_id": {"food"}, "date": {"2024-06-10"},
	})

	rr := get(srv, "/export/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("json export status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "expenses-2024-06-15.json") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.Contains(rr.Body.String(), `"overallBudget"`) {
		t.Error("json export missing overallBudget")
	}

	rr = get(srv, "/export/csv")
	if rr.Code != http.StatusOK {
		t.Fatalf("csv export status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("csv Content-Type = %q", got)
	}
	if !strings.HasPrefix(rr.Body.String(), "Date,Description,Category,Amount") {
		t.Errorf("csv missing header row:\n%s", rr.Body.String())
	}
}

func postImport(t *testing.T, srv *Server, payload string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "expenses.json")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write([]byte(payload)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestImport(t *testing.T) {
	srv, st := newTestServer()

	rr := postImport(t, srv, `{
		"expenses": [{"id":"e1","amount":5,"description":"x","categoryId":"food","date":"2024-03-14T00:00:00Z","createdAt":"2024-03-14T10:00:00Z"}],
		"categories": [{"id":"food","name":"Food","color":"#ef4444","icon":"f"}],
		"categoryBudgets": [],
		"overallBudget": 250
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d body=%s", rr.Code, rr.Body.String())
	}

	snap := st.Snapshot()
	if len(snap.Expenses) != 1 || len(snap.Categories) != 1 || snap.OverallBudget != 250 {
		t.Errorf("imported dataset = %+v", snap)
	}
}

func TestImport_Rejections(t *testing.T) {
	srv, st := newTestServer()
	before := st.Snapshot()

	if rr := postImport(t, srv, `not json at all`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed payload status = %d, want 422", rr.Code)
	}

	rr := postImport(t, srv, `{
		"expenses": [{"id":"e1","amount":5,"categoryId":"ghost","date":"2024-03-14T00:00:00Z"}],
		"categories": []
	}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("dangling reference status = %d, want 422", rr.Code)
	}

	after := st.Snapshot()
	if len(after.Expenses) != len(before.Expenses) || len(after.Categories) != len(before.Categories) {
		t.Error("rejected import mutated the store")
	}
}
