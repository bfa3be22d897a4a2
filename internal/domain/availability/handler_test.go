package availability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caresched/caresched/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo, *mockDirectory) {
	svc, _, dir, _ := testService()
	h := NewHandler(svc)
	e := echo.New()
	e.Validator = validate.New()
	return h, e, dir
}

func TestHandler_Declare(t *testing.T) {
	h, e, dir := newTestHandler()
	providerID := dir.addProvider("Dr. Osei")

	body := `{"provider_id":"` + providerID.String() + `",` +
		`"start_time":"2026-03-02T09:00:00Z","end_time":"2026-03-02T12:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Declare(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_Declare_MissingProvider(t *testing.T) {
	h, e, _ := newTestHandler()

	body := `{"start_time":"2026-03-02T09:00:00Z","end_time":"2026-03-02T12:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Declare(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_Declare_InvertedRange(t *testing.T) {
	h, e, dir := newTestHandler()
	providerID := dir.addProvider("Dr. Osei")

	body := `{"provider_id":"` + providerID.String() + `",` +
		`"start_time":"2026-03-02T12:00:00Z","end_time":"2026-03-02T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Declare(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_Declare_Conflict(t *testing.T) {
	h, e, dir := newTestHandler()
	providerID := dir.addProvider("Dr. Osei")

	first := window(providerID, 9, 12)
	if err := h.svc.Declare(nil, first); err != nil {
		t.Fatalf("seed Declare: %v", err)
	}

	body := `{"provider_id":"` + providerID.String() + `",` +
		`"start_time":"2026-03-02T11:00:00Z","end_time":"2026-03-02T13:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Declare(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.Get(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_BookThenRemove_Conflict(t *testing.T) {
	h, e, dir := newTestHandler()
	providerID := dir.addProvider("Dr. Osei")

	a := window(providerID, 9, 12)
	if err := h.svc.Declare(nil, a); err != nil {
		t.Fatalf("seed Declare: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	if err := h.Book(c); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	err := h.Remove(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 removing booked window, got %v", err)
	}
}

func TestHandler_List_ByProviderAndRange(t *testing.T) {
	h, e, dir := newTestHandler()
	providerID := dir.addProvider("Dr. Osei")

	if err := h.svc.Declare(nil, window(providerID, 9, 11)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.svc.Declare(nil, window(providerID, 13, 15)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	target := "/?provider_id=" + providerID.String() +
		"&from=2026-03-02T00:00:00Z&to=2026-03-02T12:00:00Z"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("expected 1 window in range, body: %s", rec.Body.String())
	}
}

func TestHandler_List_RequiresFilter(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.List(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without filters, got %v", err)
	}
}
