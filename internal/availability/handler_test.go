package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirdeyevisualz/studio/internal/clock"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

func newTestRouter(t *testing.T) (http.Handler, *Sessions) {
	t.Helper()
	clk := clock.NewFake(march15)
	src := NewStaticSource([]string{"2024-03-20"}, map[string][]string{"2024-03-18": {"10:00-12:00"}})
	sessions := NewSessions(src, clk, time.Hour, logging.Discard())
	h := NewHandler(src, sessions, clk, logging.Discard())

	r := chi.NewRouter()
	r.Get("/availability/{year}/{month}", h.Month)
	r.Get("/availability/dates/{date}/slots", h.Slots)
	r.Post("/booking/sessions", h.OpenSession)
	r.Get("/booking/sessions/{id}", h.GetSession)
	r.Post("/booking/sessions/{id}/navigate", h.Navigate)
	r.Post("/booking/sessions/{id}/date", h.SelectDate)
	r.Post("/booking/sessions/{id}/slot", h.SelectSlot)
	r.Post("/booking/sessions/{id}/reset", h.Reset)
	r.Delete("/booking/sessions/{id}", h.CloseSession)
	return r, sessions
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Month(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/availability/2024/3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var grid MonthGrid
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
	assert.Equal(t, 2, grid.Month)
	assert.Len(t, grid.Days, 31)
	cell, _ := grid.Cell("2024-03-20")
	assert.Equal(t, StatusBooked, cell.Status)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/availability/2024/13", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/availability/abc/1", "").Code)
}

func TestHandler_Slots(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/availability/dates/2024-03-18/slots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Date  string `json:"date"`
		Slots []Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Slots, 10)
	assert.False(t, body.Slots[2].Bookable)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/availability/dates/18-03-2024/slots", "").Code)
}

func TestHandler_SessionFlow(t *testing.T) {
	h, sessions := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/booking/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var st State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.NotEmpty(t, st.ID)
	base := "/booking/sessions/" + st.ID

	var sel selectionResponse
	rec = do(t, h, http.MethodPost, base+"/date", `{"date":"2024-03-20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.False(t, sel.Accepted)
	assert.Empty(t, sel.State.SelectedDate)

	rec = do(t, h, http.MethodPost, base+"/date", `{"date":"2024-03-18"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.True(t, sel.Accepted)
	assert.Equal(t, "Monday, March 18, 2024", sel.State.Selection)

	rec = do(t, h, http.MethodPost, base+"/slot", `{"slot":"10:00-12:00"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.False(t, sel.Accepted)

	rec = do(t, h, http.MethodPost, base+"/slot", `{"slot":"12:00-14:00"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.True(t, sel.Accepted)
	assert.Equal(t, "12:00-14:00", sel.State.SelectedSlot)

	rec = do(t, h, http.MethodPost, base+"/navigate", `{"direction":"next"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.Grid.Month)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, base+"/navigate", `{"direction":"up"}`).Code)

	rec = do(t, h, http.MethodPost, base+"/reset", "")
	var reset State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reset))
	assert.Empty(t, reset.SelectedDate)
	assert.Empty(t, reset.SelectedSlot)
	assert.Equal(t, 3, reset.Grid.Month)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, base, "").Code)
	assert.Zero(t, sessions.Len())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base, "").Code)
}

func TestHandler_SourceFailure(t *testing.T) {
	clk := clock.NewFake(march15)
	src := failingSource{err: context.DeadlineExceeded}
	h := NewHandler(src, NewSessions(src, clk, time.Hour, logging.Discard()), clk, logging.Discard())

	r := chi.NewRouter()
	r.Get("/availability/{year}/{month}", h.Month)
	r.Post("/booking/sessions", h.OpenSession)

	assert.Equal(t, http.StatusBadGateway, do(t, r, http.MethodGet, "/availability/2024/3", "").Code)
	assert.Equal(t, http.StatusBadGateway, do(t, r, http.MethodPost, "/booking/sessions", "").Code)
}
