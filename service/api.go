package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"hadoop_monitor/store"
	"hadoop_monitor/types"
	"hadoop_monitor/watcher"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const defaultRecordsLimit = 100

// APIHandler serves live collections, health checks and stored records.
// Live routes always answer 200; a degraded kind shows up as its
// error-shaped value. Per-kind routes also report the capture time.
type APIHandler struct {
	monitor  Monitor
	store    store.Store
	gatherer prometheus.Gatherer
}

func NewAPIHandler(monitor Monitor, st store.Store, gatherer prometheus.Gatherer) *APIHandler {
	return &APIHandler{monitor: monitor, store: st, gatherer: gatherer}
}

func (h *APIHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	m := r.PathPrefix("/monitoring").Subrouter()
	m.HandleFunc("/cluster_health", h.handleClusterHealth).Methods(http.MethodGet)
	m.HandleFunc("/metrics", h.handleMetrics).Methods(http.MethodGet)
	m.HandleFunc("/records", h.handleRecords).Methods(http.MethodGet)
	m.HandleFunc("/{kind}", h.handleKind).Methods(http.MethodGet)
	return r
}

func (h *APIHandler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) handleClusterHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.CheckClusterHealth(r.Context()))
}

func (h *APIHandler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.CollectMetrics(r.Context()))
}

func (h *APIHandler) handleKind(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["kind"]
	kind, err := types.ParseMetricKind(slug)
	if err != nil || kind == types.ClusterHealth {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown metric %q", slug))
		return
	}

	report, err := h.monitor.Collect(r.Context(), kind)
	if errors.Is(err, watcher.ErrUnknownKind) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report.Snapshot())
}

func (h *APIHandler) handleRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var kind types.MetricKind
	if s := query.Get("kind"); s != "" {
		parsed, err := types.ParseMetricKind(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = parsed
	}

	limit := defaultRecordsLimit
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.store.ListRecent(r.Context(), kind, limit)
	if err != nil {
		log.Errorf("Failed to list records: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*types.MetricRecord{}
	}
	writeJSON(w, http.StatusOK, &RecordsResponse{Count: len(records), Records: records})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Errorf("Failed to marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, &ErrorResponse{Error: message})
}
