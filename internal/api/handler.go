package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"cuecast/internal/jobs"
	"cuecast/internal/logging"
	"cuecast/internal/pipeline"
	"cuecast/internal/services"
)

const maxRequestBytes = 8 << 20

// Submitter accepts render requests.
type Submitter interface {
	Submit(ctx context.Context, req pipeline.Request) (jobs.Snapshot, error)
}

// JobReader reads live jobs.
type JobReader interface {
	Get(id string) (jobs.Snapshot, bool)
	List() []jobs.Snapshot
}

// History reads persisted jobs that may have left the live registry.
type History interface {
	Get(ctx context.Context, id string) (jobs.Snapshot, bool, error)
}

// StatusFunc reports the service status for GET /api/status.
type StatusFunc func(ctx context.Context) StatusResponse

// Handler serves the job routes.
type Handler struct {
	submitter Submitter
	jobs      JobReader
	history   History
	status    StatusFunc
	token     string
	logger    *slog.Logger
	mux       *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithHistory enables fallback lookups for jobs no longer in memory.
func WithHistory(h History) Option {
	return func(hd *Handler) { hd.history = h }
}

// WithStatus installs the status reporter.
func WithStatus(fn StatusFunc) Option {
	return func(hd *Handler) { hd.status = fn }
}

// WithToken requires a bearer token on every route.
func WithToken(token string) Option {
	return func(hd *Handler) { hd.token = strings.TrimSpace(token) }
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(hd *Handler) { hd.logger = logging.NewComponentLogger(logger, "api") }
}

// NewHandler builds the HTTP surface.
func NewHandler(submitter Submitter, reader JobReader, opts ...Option) *Handler {
	h := &Handler{
		submitter: submitter,
		jobs:      reader,
		logger:    logging.NewNop(),
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("POST /api/jobs", h.handleSubmit)
	h.mux.HandleFunc("GET /api/jobs", h.handleList)
	h.mux.HandleFunc("GET /api/jobs/{id}", h.handleGet)
	h.mux.HandleFunc("GET /api/jobs/{id}/file", h.handleFile)
	h.mux.HandleFunc("GET /api/status", h.handleStatus)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	r = r.WithContext(services.WithRequestID(r.Context(), requestID))
	h.requireBearer(h.mux).ServeHTTP(w, r)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(body) > maxRequestBytes {
		h.writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	req, err := pipeline.DecodeRequest(body)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if services.IsValidation(err) {
			status = http.StatusBadRequest
		}
		h.writeError(w, r, status, err.Error())
		return
	}
	logging.WithContext(services.WithJobID(r.Context(), snap.ID), h.logger).Info("job submitted")
	h.writeJSON(w, http.StatusAccepted, FromSnapshot(snap))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var filter map[jobs.Status]bool
	for _, value := range r.URL.Query()["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		st, err := jobs.ParseStatus(value)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if filter == nil {
			filter = map[jobs.Status]bool{}
		}
		filter[st] = true
	}
	resp := JobListResponse{Jobs: []JobResponse{}}
	for _, snap := range h.jobs.List() {
		if filter != nil && !filter[snap.Status] {
			continue
		}
		resp.Jobs = append(resp.Jobs, FromSnapshot(snap))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) lookup(ctx context.Context, id string) (jobs.Snapshot, bool, error) {
	if snap, ok := h.jobs.Get(id); ok {
		return snap, true, nil
	}
	if h.history == nil {
		return jobs.Snapshot{}, false, nil
	}
	return h.history.Get(ctx, id)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := h.lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "job not found")
		return
	}
	h.writeJSON(w, http.StatusOK, FromSnapshot(snap))
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, ok, err := h.lookup(r.Context(), id)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "job not found")
		return
	}
	if snap.Status != jobs.StatusSucceeded || snap.Output == "" {
		h.writeError(w, r, http.StatusConflict, "job not finished")
		return
	}
	f, err := os.Open(snap.Output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.writeError(w, r, http.StatusGone, "artifact no longer available")
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "cuecast-"+id+".mp4"))
	http.ServeContent(w, r, "", info.ModTime(), f)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		h.writeJSON(w, http.StatusOK, StatusResponse{Running: true, PID: os.Getpid(), Jobs: CountByStatus(h.jobs.List())})
		return
	}
	h.writeJSON(w, http.StatusOK, h.status(r.Context()))
}

// CountByStatus tallies jobs per status.
func CountByStatus(snaps []jobs.Snapshot) map[string]int {
	out := map[string]int{}
	for _, s := range snaps {
		out[string(s.Status)]++
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), h.logger).Error("request failed",
			logging.Int("status", status),
			logging.String("error", message),
		)
	}
	h.writeJSON(w, status, ErrorResponse{Error: message, RequestID: requestID})
}
