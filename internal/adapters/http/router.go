package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/config"
	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/portion"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/metrics"
)

const (
	maxBodyBytes     = 10 << 20
	backpressureWait = 250 * time.Millisecond
)

// ProviderGate is the admin view of a health-gated provider.
type ProviderGate interface {
	Name() string
	State() resilience.HealthState
	SafeMode() bool
	SetSafeMode(enabled bool)
	Override(healthy bool)
}

type Dependencies struct {
	Images    ports.ImageAnalyzer
	Labels    ports.LabelAnalyzer
	Barcodes  ports.BarcodeAnalyzer
	Foods     ports.FoodSearcher
	Reports   ports.ReportReader
	Estimator *portion.Estimator
	Gates     []ProviderGate
	Metrics   *metrics.HTTPServerMetrics
	Logger    *slog.Logger
}

type Router struct {
	deps Dependencies
	cfg  config.Config
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	if deps.Estimator == nil {
		deps.Estimator = portion.NewEstimator(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Router{deps: deps, cfg: cfg}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/detect", rt.detect)
	mux.HandleFunc("POST /v1/portions", rt.estimatePortions)
	mux.HandleFunc("POST /v1/labels/analyze", rt.analyzeLabel)
	mux.HandleFunc("POST /v1/flags/evaluate", rt.evaluateFlags)
	mux.HandleFunc("GET /v1/products/{barcode}", rt.lookupProduct)
	mux.HandleFunc("GET /v1/foods/search", rt.searchFoods)
	mux.HandleFunc("GET /v1/reports/{id}", rt.getReport)
	mux.HandleFunc("GET /v1/providers", rt.listProviders)
	mux.HandleFunc("PUT /v1/providers/safe-mode", rt.setSafeMode)
	mux.HandleFunc("PUT /v1/providers/{name}/state", rt.overrideProvider)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait, rt.rejected("backpressure"))
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limit"))

	root := http.NewServeMux()
	if rt.deps.Metrics != nil {
		root.Handle("GET /metrics", rt.deps.Metrics.Handler())
		handler = rt.deps.Metrics.Middleware("api", handler)
	}
	root.Handle("/", handler)

	return requestIDMiddleware(accessLogMiddleware(rt.deps.Logger, root))
}

func (rt *Router) rejected(reason string) func() {
	return func() {
		if rt.deps.Metrics != nil {
			rt.deps.Metrics.RecordRejected("api", reason)
		}
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeReport honours ?format=legacy for older consumers.
func writeReport(w http.ResponseWriter, r *http.Request, status int, report *domain.Report) {
	if r.URL.Query().Get("format") == "legacy" {
		writeJSON(w, status, domain.ToLegacy(*report))
		return
	}
	writeJSON(w, status, report)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.deps.Logger.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}
