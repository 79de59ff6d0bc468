package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/reminder"
	"github.com/osr-alliance/backend-lib-leadflow/service"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string        `json:"token"`
	Session *auth.Session `json:"session"`
}

func (a *api) Login(w http.ResponseWriter, r *http.Request) {
	req := loginRequest{}
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	sess, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, LoginResponse{Token: sess.Token, Session: sess})
}

func (a *api) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Logout(r.Context(), session(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectOptions reads ?limit, ?offset, ?order_by & ?desc
func selectOptions(r *http.Request) (*storage.SelectOptions, error) {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil, nil
	}

	opts := &storage.SelectOptions{
		OrderBy:    q.Get("order_by"),
		Descending: q.Get("desc") == "true",
	}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, apierr.Validation("%s must be a non-negative number", name)
		}
		*dst = n
	}
	return opts, nil
}

func (a *api) ListLeads(w http.ResponseWriter, r *http.Request) {
	opts, err := selectOptions(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	leads, err := a.svc.ListLeads(r.Context(), session(r), opts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, leads)
}

func (a *api) CreateLead(w http.ResponseWriter, r *http.Request) {
	in := store.NewLead{}
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	l, err := in.Lead()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.CreateLead(r.Context(), session(r), l); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, l)
}

func (a *api) GetLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	l, err := a.svc.GetLead(r.Context(), session(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, l)
}

func (a *api) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	changes := store.LeadChanges{}
	if err := decode(r, &changes); err != nil {
		a.writeError(w, r, err)
		return
	}

	l, err := a.svc.UpdateLead(r.Context(), session(r), id, changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, l)
}

func (a *api) ListHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	h, err := a.svc.ListFollowUpHistory(r.Context(), session(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, h)
}

func (a *api) ListCalls(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	calls, err := a.svc.ListCallLogs(r.Context(), session(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, calls)
}

func (a *api) AddCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c := &store.CallLog{}
	if err := decode(r, c); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.AddCallLog(r.Context(), session(r), id, c); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, c)
}

func (a *api) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.Dashboard(r.Context(), session(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, d)
}

func (a *api) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := a.svc.ListStickyNotes(r.Context(), session(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, notes)
}

func (a *api) CreateNote(w http.ResponseWriter, r *http.Request) {
	in := service.NoteInput{}
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	n, err := a.svc.CreateStickyNote(r.Context(), session(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, n)
}

func (a *api) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.DeleteStickyNote(r.Context(), session(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunReminders answers 200 when every reminder went out, 207 on a partial run & 500 when the run failed
func (a *api) RunReminders(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(session(r)); err != nil {
		a.writeError(w, r, err)
		return
	}

	// the run outlives a client that hangs up
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), a.timeout)
	defer cancel()
	sum := a.reminders.Run(ctx)

	status := http.StatusOK
	switch sum.Status {
	case reminder.StatusPartial:
		status = http.StatusMultiStatus
	case reminder.StatusFailed:
		status = http.StatusInternalServerError
	}
	a.writeJSON(w, status, sum)
}
