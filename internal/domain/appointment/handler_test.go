package appointment

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caresched/caresched/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo, *fixture) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	e.Validator = validate.New()
	return h, e, f
}

func createBody(patientID, providerID uuid.UUID, start string, minutes int) string {
	return `{"patient_id":"` + patientID.String() + `",` +
		`"provider_id":"` + providerID.String() + `",` +
		`"scheduled_start":"` + start + `",` +
		`"duration_minutes":` + strconv.Itoa(minutes) + `}`
}

func TestHandler_Create(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()

	body := createBody(patientID, providerID, "2026-03-02T10:00:00Z", 30)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_Create_MissingFields(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_Create_Conflict(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()

	seed := appt(patientID, providerID, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 30)
	if err := f.svc.Create(nil, seed); err != nil {
		t.Fatalf("seed Create: %v", err)
	}

	body := createBody(patientID, providerID, "2026-03-02T10:15:00Z", 30)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	// The body names the time already taken.
	if msg, ok := httpErr.Message.(string); !ok || !strings.Contains(msg, "already booked") {
		t.Errorf("expected conflict detail in message, got %v", httpErr.Message)
	}
}

func TestHandler_Create_DanglingAvailability(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()
	windowID := uuid.New()
	f.windows.missing[windowID] = true

	body := `{"patient_id":"` + patientID.String() + `",` +
		`"provider_id":"` + providerID.String() + `",` +
		`"scheduled_start":"2026-03-02T10:00:00Z",` +
		`"duration_minutes":30,` +
		`"availability_id":"` + windowID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown availability window, got %v", err)
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

func TestHandler_SetStatus(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()

	a := appt(patientID, providerID, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 30)
	if err := f.svc.Create(nil, a); err != nil {
		t.Fatalf("seed Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.SetStatus(c); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"confirmed"`) {
		t.Errorf("expected confirmed status in body: %s", rec.Body.String())
	}
}

func TestHandler_SetStatus_InvalidTransition(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()

	a := appt(patientID, providerID, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 30)
	if err := f.svc.Create(nil, a); err != nil {
		t.Fatalf("seed Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.SetStatus(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for illegal transition, got %v", err)
	}
}

func TestHandler_List_Views(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()

	today := appt(patientID, providerID, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), 30)
	nextWeek := appt(patientID, providerID, time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC), 30)
	if err := f.svc.Create(nil, today); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := f.svc.Create(nil, nextWeek); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?view=today", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.List(c); err != nil {
		t.Fatalf("List today: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("expected 1 today, body: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/?view=upcoming", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.List(c); err != nil {
		t.Fatalf("List upcoming: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("expected 2 upcoming, body: %s", rec.Body.String())
	}
}

func TestHandler_List_ByPatient(t *testing.T) {
	h, e, f := newTestHandler()
	patientID, providerID := f.dir.addPatient(), f.dir.addProvider()

	a := appt(patientID, providerID, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 30)
	if err := f.svc.Create(nil, a); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?patient_id="+patientID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"total":1`) {
		t.Errorf("expected 1 appointment, body: %s", body)
	}
	// Participant summaries ride along, full profiles do not.
	if !strings.Contains(body, `"patient"`) || !strings.Contains(body, `"provider"`) {
		t.Errorf("expected participant summaries, body: %s", body)
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
