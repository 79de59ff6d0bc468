package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/reminder"
	"github.com/osr-alliance/backend-lib-leadflow/service"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/osr-alliance/backend-lib-leadflow/store/storetest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubReminders struct {
	status reminder.Status
	calls  int
}

func (s *stubReminders) Run(ctx context.Context) reminder.Summary {
	s.calls++
	return reminder.Summary{Status: s.status}
}

type fixture struct {
	srv       *httptest.Server
	st        *storetest.Mem
	reminders *stubReminders
}

func newFixture(t *testing.T) *fixture {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	assignee := "ana@example.com"
	day := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	st := storetest.New(store.Lead{ID: 1, LeadName: "Acme", Assignee: &assignee, Status: store.StatusNew, Priority: store.PriorityLow, NextFollowUpDate: &day})
	st.Users = []store.User{
		{ID: 1, Email: "ana@example.com", Role: store.RoleEmployee, Status: store.UserActive, PasswordHash: string(hash)},
		{ID: 2, Email: "boss@example.com", Role: store.RoleAdmin, Status: store.UserActive, PasswordHash: string(hash)},
	}

	mr := miniredis.RunT(t)
	sessions := auth.NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "leadflow", time.Hour)

	reg := prometheus.NewRegistry()
	rem := &stubReminders{status: reminder.StatusSuccess}
	router := NewRouter(&Config{
		Service:   service.New(st, followup.DefaultPolicy()),
		Sessions:  auth.NewAuthenticator(st, sessions),
		Reminders: rem,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, st: st, reminders: rem}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) login(t *testing.T, email string) string {
	resp := f.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": "hunter22"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := LoginResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Token
}

func readError(t *testing.T, resp *http.Response) string {
	body := errorBody{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestLoginAndAuth(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := f.login(t, "ana@example.com")
	resp = f.do(t, http.MethodGet, "/leads", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	leads := []store.Lead{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leads))
	assert.Len(t, leads, 1)

	resp = f.do(t, http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/leads", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateLead(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "ana@example.com")

	resp := f.do(t, http.MethodPatch, "/leads/1", token, map[string]string{"status": "Qualified", "next_follow_up_date": "2025-02-01"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	l := store.Lead{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Equal(t, store.StatusQualified, l.Status)
	assert.Equal(t, []int32{1}, f.st.ClearedLeads())

	resp = f.do(t, http.MethodPatch, "/leads/1", token, map[string]string{"status": "Maybe"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, readError(t, resp), "Maybe")

	resp = f.do(t, http.MethodPatch, "/leads/1", token, map[string]string{"assignee": "bob@example.com"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/leads/1", token, map[string]string{"colour": "red"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/leads/9", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/leads/1/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := []store.FollowUpHistory{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "Status changed from New to Qualified; Follow-up date set to 2025-02-01", history[0].Description)
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "ana@example.com")

	resp := f.do(t, http.MethodPost, "/leads", token, map[string]string{"lead_name": "Initech", "next_follow_up_date": "2025-02-01"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	l := store.Lead{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.NotZero(t, l.ID)
	assert.Equal(t, "ana@example.com", l.AssigneeOrEmpty())
	want := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, store.SameDate(&want, l.NextFollowUpDate))

	resp = f.do(t, http.MethodPost, "/leads", token, map[string]string{"lead_name": "Initech", "next_follow_up_date": "01/02/2025"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	msg := readError(t, resp)
	assert.Contains(t, msg, "YYYY-MM-DD")
	assert.NotContains(t, msg, "parsing time")

	// reminder flags & ids are not the client's to set
	resp = f.do(t, http.MethodPost, "/leads", token, map[string]interface{}{"lead_name": "Initech", "overdue_reminder_sent": true})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListLeadsByUsername(t *testing.T) {
	f := newFixture(t)
	username := "ana"
	f.st.Leads[9] = store.Lead{ID: 9, LeadName: "Hooli", Assignee: &username, Status: store.StatusNew, Priority: store.PriorityLow}
	token := f.login(t, "ana@example.com")

	resp := f.do(t, http.MethodGet, "/leads/9", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/leads", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	leads := []store.Lead{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leads))
	ids := []int32{}
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int32{1, 9}, ids)
}

func TestNotesAndCalls(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "ana@example.com")

	resp := f.do(t, http.MethodPost, "/notes", token, map[string]interface{}{"content": "Call back", "reminder_at": "2025-01-11T09:00:00Z", "lead_id": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	n := store.StickyNote{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&n))
	assert.Equal(t, int32(1), n.UserID)

	resp = f.do(t, http.MethodPost, "/notes", token, map[string]interface{}{"content": "No time"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/notes/"+strconv.Itoa(int(n.ID)), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/leads/1/calls", token, map[string]interface{}{"description": "Left a voicemail", "duration_minutes": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/leads/1/calls", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	calls := []store.CallLog{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&calls))
	assert.Len(t, calls, 1)

	resp = f.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := service.Dashboard{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	assert.Equal(t, 1, d.TotalLeads)
}

func TestRunReminders(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/reminders/run", f.login(t, "ana@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, f.reminders.calls)

	admin := f.login(t, "boss@example.com")
	for status, code := range map[reminder.Status]int{
		reminder.StatusSuccess: http.StatusOK,
		reminder.StatusPartial: http.StatusMultiStatus,
		reminder.StatusFailed:  http.StatusInternalServerError,
	} {
		f.reminders.status = status
		resp := f.do(t, http.MethodPost, "/reminders/run", admin, nil)
		assert.Equal(t, code, resp.StatusCode, status)

		sum := reminder.Summary{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
		assert.Equal(t, status, sum.Status)
	}
}

func TestMetricsAndSelectOptions(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token := f.login(t, "boss@example.com")
	resp = f.do(t, http.MethodGet, "/leads?limit=-1", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/leads?limit=10&offset=0&desc=true", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
