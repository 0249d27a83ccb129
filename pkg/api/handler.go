// Package api exposes the analysis service over HTTP and MCP. Both transports
// dispatch to the same kit.Endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/touchstone-factors/pkg/analysis"
	"github.com/hazyhaar/touchstone-factors/pkg/kit"
	"github.com/hazyhaar/touchstone-factors/pkg/report"
)

// MaxBodyBytes bounds analyze request bodies.
const MaxBodyBytes = 4 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NewRouter returns an http.Handler with all API routes, recording into a
// fresh Metrics.
func NewRouter(svc *analysis.Service, logger *slog.Logger) http.Handler {
	return NewRouterWithMetrics(svc, NewMetrics(svc), logger)
}

// NewRouterWithMetrics is NewRouter recording into metrics, so that other
// transports can share the same collectors.
func NewRouterWithMetrics(svc *analysis.Service, metrics *Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mw := func(name string) kit.Middleware {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, name), metrics.instrument())
	}

	h := &handler{
		analyze:      mw("analyze")(analyzeEndpoint(svc)),
		export:       mw("export")(exportEndpoint(svc)),
		taxonomyInfo: kit.Chain(kit.RequestID(), kit.Logging(logger, "taxonomy_info"))(taxonomyInfoEndpoint(svc)),
		svc:          svc,
		started:      time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyze", h.handleAnalyze)
	mux.HandleFunc("POST /v1/analyze/export", h.handleExport)
	mux.HandleFunc("GET /v1/taxonomy", h.handleTaxonomy)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return cors(requestID(mux))
}

type handler struct {
	analyze      kit.Endpoint
	export       kit.Endpoint
	taxonomyInfo kit.Endpoint
	svc          *analysis.Service
	started      time.Time
}

// --- analyze ---

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyze(w, r)
	if !ok {
		return
	}
	resp, err := h.analyze(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- export ---

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyze(w, r)
	if !ok {
		return
	}
	resp, err := h.export(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	out := resp.(*exportResponse)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportSheet+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// --- taxonomy ---

func (h *handler) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	resp, err := h.taxonomyInfo(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
	Uptime  string `json:"uptime"`
}

// handleHealth reports "degraded" with a 503 until a taxonomy is loaded.
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Entries: h.svc.EntryCount(),
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}
	code := http.StatusOK
	if h.svc.Table() == nil {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// --- helpers ---

func decodeAnalyze(w http.ResponseWriter, r *http.Request) (*analyzeReq, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var req analyzeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return &req, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// requestID propagates the caller's X-Request-ID, or mints one, and echoes it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
