package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/reminder"
	"github.com/kalambet/emotrack/internal/stats"
	"github.com/kalambet/emotrack/internal/storage"
	"github.com/kalambet/emotrack/internal/tracker"
)

func newTestApp(t *testing.T) (http.Handler, AppDeps) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cal := calendar.New(time.UTC, calendar.ClockFunc(func() time.Time { return testNow }))
	reg := tracker.NewRegistry(store, cal)
	if _, err := reg.EnsureDefaults(); err != nil {
		t.Fatalf("seeding factors: %v", err)
	}
	deps := AppDeps{
		Registry:  reg,
		Journal:   tracker.NewJournal(store, cal),
		Reminders: reminder.NewService(reminder.NewSettingsManager(store), reminder.NewScheduler(store, cal)),
	}
	return NewAppHandler(deps), deps
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, code int, errType string) errorBody {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, code, rr.Body.String())
	}
	var body errorBody
	decodeBody(t, rr, &body)
	if body.Error.Type != errType {
		t.Errorf("error type = %q, want %q", body.Error.Type, errType)
	}
	return body
}

func TestHealth(t *testing.T) {
	h, _ := newTestApp(t)
	rr := doRequest(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]string
	decodeBody(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestFactors_CRUD(t *testing.T) {
	h, _ := newTestApp(t)

	rr := doRequest(t, h, http.MethodPost, "/factors", `{"name":"Sleep"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rr.Code, rr.Body.String())
	}
	var created tracker.Factor
	decodeBody(t, rr, &created)
	if !created.Custom || !created.Active || created.Order != 6 {
		t.Errorf("created = %+v", created)
	}

	rr = doRequest(t, h, http.MethodPatch, "/factors/"+created.ID, `{"name":"Sleep quality","active":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, body %s", rr.Code, rr.Body.String())
	}
	var patched tracker.Factor
	decodeBody(t, rr, &patched)
	if patched.Name != "Sleep quality" || patched.Active {
		t.Errorf("patched = %+v", patched)
	}

	rr = doRequest(t, h, http.MethodGet, "/factors?active=true", "")
	var active []tracker.Factor
	decodeBody(t, rr, &active)
	if len(active) != 6 {
		t.Errorf("active factors = %d, want 6", len(active))
	}

	rr = doRequest(t, h, http.MethodDelete, "/factors/"+created.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rr.Code)
	}
	expectError(t, doRequest(t, h, http.MethodGet, "/factors/"+created.ID, ""), http.StatusNotFound, "not_found")
}

func TestFactors_Validation(t *testing.T) {
	h, deps := newTestApp(t)

	body := expectError(t, doRequest(t, h, http.MethodPost, "/factors", `{}`), http.StatusBadRequest, "invalid_request_error")
	if !strings.Contains(body.Error.Message, "name is required") {
		t.Errorf("message = %q", body.Error.Message)
	}
	expectError(t, doRequest(t, h, http.MethodPost, "/factors", `{"name":"   "}`), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodPost, "/factors", `{"name":"`+strings.Repeat("x", 81)+`"}`), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodPost, "/factors", `not json`), http.StatusBadRequest, "invalid_request_error")

	all, _ := deps.Registry.ListAll()
	expectError(t, doRequest(t, h, http.MethodPatch, "/factors/"+all[0].ID, `{}`), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodDelete, "/factors/"+all[0].ID, ""), http.StatusConflict, "conflict")
}

func TestDays_ScoreFlow(t *testing.T) {
	h, deps := newTestApp(t)
	all, _ := deps.Registry.ListAll()

	rr := doRequest(t, h, http.MethodGet, "/days/today", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET today status = %d", rr.Code)
	}
	var today dayResponse
	decodeBody(t, rr, &today)
	if today.Day != "2026-10-18" || today.Complete {
		t.Errorf("today = %+v", today)
	}

	for i, f := range all {
		rr = doRequest(t, h, http.MethodPut, "/days/today/scores/"+f.ID, `{"score":`+[]string{"0", "4", "6", "8", "10", "15"}[i]+`}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("PUT score status = %d, body %s", rr.Code, rr.Body.String())
		}
	}
	var day dayResponse
	decodeBody(t, rr, &day)
	if !day.Complete {
		t.Error("all active factors scored, want complete")
	}
	if day.Scores[all[0].ID] != 1 || day.Scores[all[5].ID] != 10 {
		t.Errorf("scores not clamped: %v", day.Scores)
	}
	if want := (1.0 + 4 + 6 + 8 + 10 + 10) / 6; day.AverageScore != want {
		t.Errorf("average = %v, want %v", day.AverageScore, want)
	}

	rr = doRequest(t, h, http.MethodDelete, "/days/2026-10-18/scores/"+all[0].ID, "")
	decodeBody(t, rr, &day)
	if day.Complete {
		t.Error("cleared a score, want incomplete")
	}

	rr = doRequest(t, h, http.MethodPut, "/days/2026-10-18/notes", `{"notes":"tired"}`)
	decodeBody(t, rr, &day)
	if day.Notes != "tired" {
		t.Errorf("notes = %q", day.Notes)
	}
}

func TestDays_Errors(t *testing.T) {
	h, deps := newTestApp(t)
	all, _ := deps.Registry.ListAll()
	if _, err := deps.Registry.SetActive(all[1].ID, false); err != nil {
		t.Fatal(err)
	}

	expectError(t, doRequest(t, h, http.MethodGet, "/days/2026-01-01", ""), http.StatusNotFound, "not_found")
	expectError(t, doRequest(t, h, http.MethodGet, "/days/yesterday", ""), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodPut, "/days/today/scores/"+all[0].ID, `{}`), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodPut, "/days/today/scores/nope", `{"score":3}`), http.StatusNotFound, "not_found")
	expectError(t, doRequest(t, h, http.MethodPut, "/days/today/scores/"+all[1].ID, `{"score":3}`), http.StatusConflict, "conflict")
}

func TestRecords_ListRangeAndDelete(t *testing.T) {
	h, deps := newTestApp(t)
	all, _ := deps.Registry.ListAll()
	for d := 10; d <= 18; d++ {
		if _, err := deps.Journal.SetScore(time.Date(2026, 10, d, 9, 0, 0, 0, time.UTC), all[0].ID, 5); err != nil {
			t.Fatal(err)
		}
	}

	rr := doRequest(t, h, http.MethodGet, "/records?from=2026-10-12&to=2026-10-15", "")
	var days []dayResponse
	decodeBody(t, rr, &days)
	if len(days) != 4 || days[0].Day != "2026-10-15" || days[3].Day != "2026-10-12" {
		t.Fatalf("range = %v", dayKeys(days))
	}

	rr = doRequest(t, h, http.MethodGet, "/records?limit=2", "")
	decodeBody(t, rr, &days)
	if len(days) != 2 || days[0].Day != "2026-10-18" {
		t.Fatalf("limited = %v", dayKeys(days))
	}

	rr = doRequest(t, h, http.MethodDelete, "/records/"+days[0].ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rr.Code)
	}
	expectError(t, doRequest(t, h, http.MethodGet, "/days/2026-10-18", ""), http.StatusNotFound, "not_found")

	expectError(t, doRequest(t, h, http.MethodGet, "/records?from=last-week", ""), http.StatusBadRequest, "invalid_request_error")
}

func dayKeys(days []dayResponse) []string {
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.Day
	}
	return keys
}

func TestStats(t *testing.T) {
	h, deps := newTestApp(t)
	all, _ := deps.Registry.ListAll()
	for i, score := range []int{2, 8, 5} {
		if _, err := deps.Journal.SetScore(testNow.AddDate(0, 0, -i), all[0].ID, score); err != nil {
			t.Fatal(err)
		}
	}

	rr := doRequest(t, h, http.MethodGet, "/stats", "")
	var sum stats.Summary
	decodeBody(t, rr, &sum)
	if sum.OverallAverage != 5 || len(sum.Factors) != 6 {
		t.Errorf("summary = %+v", sum)
	}

	rr = doRequest(t, h, http.MethodGet, "/stats/factors/"+all[0].ID, "")
	var fs stats.FactorSummary
	decodeBody(t, rr, &fs)
	if fs.Statistics.ThirtyDayAverage != 5 || fs.DataPoints != 3 {
		t.Errorf("factor summary = %+v", fs)
	}

	expectError(t, doRequest(t, h, http.MethodGet, "/stats/factors/nope", ""), http.StatusNotFound, "not_found")
}

func TestReminderSettings(t *testing.T) {
	h, _ := newTestApp(t)

	rr := doRequest(t, h, http.MethodGet, "/settings/reminder", "")
	var got reminderResponse
	decodeBody(t, rr, &got)
	if !got.Enabled || got.DisplayTime != "20:00" || len(got.DaysOfWeek) != 7 {
		t.Errorf("defaults = %+v", got)
	}

	rr = doRequest(t, h, http.MethodPut, "/settings/reminder", `{"enabled":true,"hour":7,"minute":30,"days_of_week":[1,3,5]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &got)
	if got.DisplayTime != "07:30" || got.NextFire == nil {
		t.Fatalf("updated = %+v", got)
	}
	// Sunday 19:00, so the next allowed day is Monday.
	if want := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC); !got.NextFire.Equal(want) {
		t.Errorf("next fire = %v, want %v", got.NextFire, want)
	}

	rr = doRequest(t, h, http.MethodPut, "/settings/reminder", `{"enabled":false,"hour":7,"minute":30}`)
	decodeBody(t, rr, &got)
	if got.Enabled || got.NextFire != nil {
		t.Errorf("disabled = %+v", got)
	}

	expectError(t, doRequest(t, h, http.MethodPut, "/settings/reminder", `{"enabled":true,"hour":24,"minute":0}`), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodPut, "/settings/reminder", `{"enabled":true,"hour":8,"minute":0,"days_of_week":[7]}`), http.StatusBadRequest, "invalid_request_error")
	expectError(t, doRequest(t, h, http.MethodPut, "/settings/reminder", `{"hour":8,"minute":0}`), http.StatusBadRequest, "invalid_request_error")
}
