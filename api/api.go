// Package api is the json http api over the service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/reminder"
	"github.com/osr-alliance/backend-lib-leadflow/service"
	"github.com/sirupsen/logrus"
)

// Reminders is what POST /reminders/run triggers
type Reminders interface {
	Run(ctx context.Context) reminder.Summary
}

type Sessions interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Session(ctx context.Context, token string) (*auth.Session, error)
	Logout(ctx context.Context, sess *auth.Session) error
}

type Config struct {
	Service   *service.Service
	Sessions  Sessions
	Reminders Reminders
	// Metrics is served on /metrics without authentication when set
	Metrics http.Handler
	// ReminderTimeout bounds a triggered reminder run; 0 means 5 minutes
	ReminderTimeout time.Duration
}

type api struct {
	svc       *service.Service
	sessions  Sessions
	reminders Reminders
	timeout   time.Duration
	log       *logrus.Entry
}

func NewRouter(conf *Config) *mux.Router {
	a := &api{
		svc:       conf.Service,
		sessions:  conf.Sessions,
		reminders: conf.Reminders,
		timeout:   conf.ReminderTimeout,
		log:       logrus.WithField("component", "api"),
	}
	if a.timeout <= 0 {
		a.timeout = 5 * time.Minute
	}

	router := mux.NewRouter()
	router.HandleFunc("/login", a.Login).Methods(http.MethodPost)
	if conf.Metrics != nil {
		router.Handle("/metrics", conf.Metrics).Methods(http.MethodGet)
	}

	r := router.NewRoute().Subrouter()
	r.Use(a.authenticate)

	r.HandleFunc("/logout", a.Logout).Methods(http.MethodPost)

	r.HandleFunc("/leads", a.ListLeads).Methods(http.MethodGet)
	r.HandleFunc("/leads", a.CreateLead).Methods(http.MethodPost)
	r.HandleFunc("/leads/{id:[0-9]+}", a.GetLead).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id:[0-9]+}", a.UpdateLead).Methods(http.MethodPatch)
	r.HandleFunc("/leads/{id:[0-9]+}/history", a.ListHistory).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id:[0-9]+}/calls", a.ListCalls).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id:[0-9]+}/calls", a.AddCall).Methods(http.MethodPost)

	r.HandleFunc("/dashboard", a.Dashboard).Methods(http.MethodGet)

	r.HandleFunc("/notes", a.ListNotes).Methods(http.MethodGet)
	r.HandleFunc("/notes", a.CreateNote).Methods(http.MethodPost)
	r.HandleFunc("/notes/{id:[0-9]+}", a.DeleteNote).Methods(http.MethodDelete)

	if conf.Reminders != nil {
		r.HandleFunc("/reminders/run", a.RunReminders).Methods(http.MethodPost)
	}

	return router
}

type sessionKey struct{}

// authenticate resolves the bearer token into the request's session
func (a *api) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			a.writeError(w, r, apierr.ErrSessionExpired)
			return
		}

		sess, err := a.sessions.Session(r.Context(), strings.TrimSpace(token))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func session(r *http.Request) *auth.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*auth.Session)
	return sess
}

func pathID(r *http.Request) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, apierr.Validation("id must be a number")
	}
	return int32(id), nil
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierr.Validation("malformed request body: %v", err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (a *api) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.WithError(err).Warn("failed to write response")
	}
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.Status(err)
	if status == http.StatusInternalServerError {
		a.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	a.writeJSON(w, status, errorBody{Error: apierr.Message(err)})
}
