// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package httpapi exposes the channel directory and the slowmode
// registry over HTTP: channel registration, message events and the
// monitor commands.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/host"
	"github.com/go-core-stack/slowmode/monitor"
)

const (
	// bounds on the window capacity accepted from operators
	MinCacheSize = 5
	MaxCacheSize = 50

	// largest request body accepted
	maxBodyBytes = 1 << 16
)

// Releaser hands back the edit budget held for a channel
type Releaser = monitor.Releaser

// Handler serves the HTTP surface
type Handler struct {
	registry *monitor.Registry
	dir      *host.Directory
	releaser Releaser
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *mux.Router
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger, defaults to a no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithReleaser releases the edit budget of channels that stop being
// monitored or are forgotten
func WithReleaser(r Releaser) Option {
	return func(h *Handler) { h.releaser = r }
}

// WithGatherer serves /metrics from g
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// NewHandler builds the router over registry and dir
func NewHandler(registry *monitor.Registry, dir *host.Directory, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		dir:      dir,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := mux.NewRouter()
	r.Path("/v1/channels/{id}").Methods("PUT").HandlerFunc(h.registerChannel)
	r.Path("/v1/channels/{id}").Methods("DELETE").HandlerFunc(h.forgetChannel)
	r.Path("/v1/channels/{id}/events").Methods("POST").HandlerFunc(h.processEvent)
	r.Path("/v1/channels/{id}/monitor").Methods("POST").HandlerFunc(h.startMonitoring)
	r.Path("/v1/channels/{id}/monitor").Methods("DELETE").HandlerFunc(h.stopMonitoring)
	r.Path("/v1/channels/{id}/settings").Methods("GET").HandlerFunc(h.getSettings)
	r.Path("/v1/channels/{id}/settings").Methods("PATCH").HandlerFunc(h.updateSettings)
	r.Path("/v1/groups/{gid}/monitors").Methods("GET").HandlerFunc(h.listGroup)
	if h.gatherer != nil {
		r.Path("/metrics").Methods("GET").Handler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Settings is the wire form of a channel configuration
type Settings struct {
	ChannelID   string  `json:"channelId"`
	GroupID     string  `json:"groupId"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	CacheSize   int     `json:"cacheSize"`
	Sensitivity float64 `json:"sensitivity"`
	Monitoring  bool    `json:"monitoring"`
}

func newSettings(cfg *monitor.EntityConfig) *Settings {
	return &Settings{
		ChannelID:   cfg.EntityID,
		GroupID:     cfg.GroupID,
		Min:         cfg.PaceMin,
		Max:         cfg.PaceMax,
		CacheSize:   cfg.WindowCapacity,
		Sensitivity: cfg.Sensitivity,
		Monitoring:  cfg.Monitoring,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch errors.GetErrCode(err) {
	case errors.NotFound:
		return http.StatusNotFound
	case errors.AlreadyMonitoring, errors.NotMonitoring:
		return http.StatusConflict
	case errors.InvalidArgument:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, &errorResponse{Error: err.Error()})
}

// decode reads an optional JSON body into v
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.WithCause(errors.InvalidArgument, err, "invalid request body")
	}
	return nil
}

// entity resolves a channel reachable through the directory
func (h *Handler) entity(id string) (monitor.Entity, error) {
	ch, ok := h.dir.Lookup(id)
	if !ok {
		return monitor.Entity{}, errors.Wrapf(errors.NotFound, "channel %s not found", id)
	}
	return monitor.Entity{ID: ch.ID, GroupID: ch.GroupID}, nil
}

type registerRequest struct {
	GroupID string `json:"groupId"`
	Pace    int    `json:"pace"`
}

func (h *Handler) registerChannel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	req := &registerRequest{}
	if err := decode(w, r, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.dir.Register(id, req.GroupID, req.Pace); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) forgetChannel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.dir.Forget(id) {
		h.writeError(w, r, errors.Wrapf(errors.NotFound, "channel %s not found", id))
		return
	}
	if h.releaser != nil {
		h.releaser.Release(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

type eventRequest struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (h *Handler) processEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	req := &eventRequest{}
	if err := decode(w, r, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	if err := h.registry.ProcessEvent(r.Context(), id, ts); err != nil {
		// the request was valid, whatever failed is on our side
		h.writeError(w, r, errors.WithCause(errors.Unknown, err, "failed to process event of channel "+id))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) startMonitoring(w http.ResponseWriter, r *http.Request) {
	e, err := h.entity(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cfg, err := h.registry.StartMonitoring(r.Context(), e)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettings(cfg))
}

func (h *Handler) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e := monitor.Entity{ID: id}
	if ch, ok := h.dir.Lookup(id); ok {
		e.GroupID = ch.GroupID
	}
	if err := h.registry.StopMonitoring(r.Context(), e); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.releaser != nil {
		h.releaser.Release(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cfg, err := h.registry.GetConfig(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cfg == nil {
		h.writeError(w, r, errors.Wrapf(errors.NotFound, "no settings for channel %s", id))
		return
	}
	writeJSON(w, http.StatusOK, newSettings(cfg))
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	e, err := h.entity(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req := &SettingsPatch{}
	if err := decode(w, r, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := req.Patch()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cfg, err := h.registry.UpdateConfig(r.Context(), e, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettings(cfg))
}

type groupResponse struct {
	GroupID  string   `json:"groupId"`
	Channels []string `json:"channels"`
}

// listGroup returns the monitored reachable channels of a group, and
// restarts any of them this process is not monitoring
func (h *Handler) listGroup(w http.ResponseWriter, r *http.Request) {
	gid := mux.Vars(r)["gid"]
	ids, err := h.registry.ListGroup(r.Context(), gid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := &groupResponse{GroupID: gid, Channels: []string{}}
	for _, id := range ids {
		if !h.dir.IsReachable(r.Context(), id) {
			continue
		}
		_, err := h.registry.StartMonitoring(r.Context(), monitor.Entity{ID: id, GroupID: gid})
		if err != nil && !errors.IsAlreadyMonitoring(err) {
			h.logger.Warn("failed to restart monitoring",
				zap.String("entity", id),
				zap.String("group", gid),
				zap.Error(err))
		}
		resp.Channels = append(resp.Channels, id)
	}
	writeJSON(w, http.StatusOK, resp)
}
