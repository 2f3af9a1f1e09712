package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/portion"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
)

// rejectedLabels are detections that are never food on their own.
var rejectedLabels = map[string]struct{}{
	"plate": {}, "dish": {}, "bowl": {}, "table": {}, "cutlery": {},
	"fork": {}, "knife": {}, "spoon": {}, "cup": {}, "glass": {},
	"syrup": {}, "curd": {}, "ketchup": {}, "bar": {}, "cookie": {},
	"snack": {}, "container": {}, "wrapper": {}, "package": {},
	"logo": {}, "brand": {}, "label": {}, "text": {}, "font": {},
	"person": {}, "hand": {},
}

// IsFoodish reports whether a detected label can stand for a food item.
func IsFoodish(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return false
	}
	_, rejected := rejectedLabels[key]
	return !rejected
}

// FilterFoodish keeps food labels in input order.
func FilterFoodish(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if IsFoodish(name) {
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}

// DetectionRouter dispatches detection to the backend chosen by the mode
// fixed at construction.
type DetectionRouter struct {
	mode      domain.DetectionMode
	gpt       ports.DetectionBackend
	vision    ports.DetectionBackend
	estimator *portion.Estimator
	observer  ports.PipelineObserver
	logger    *slog.Logger
}

func NewDetectionRouter(
	mode domain.DetectionMode,
	gpt ports.DetectionBackend,
	vision ports.DetectionBackend,
	estimator *portion.Estimator,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *DetectionRouter {
	if estimator == nil {
		estimator = portion.NewEstimator(nil)
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionRouter{
		mode:      mode,
		gpt:       gpt,
		vision:    vision,
		estimator: estimator,
		observer:  observer,
		logger:    logger,
	}
}

func (r *DetectionRouter) Mode() domain.DetectionMode {
	return r.mode
}

// Route never fails because of a backend: a failing or empty backend yields
// an empty list. The only error is cancellation of ctx.
func (r *DetectionRouter) Route(ctx context.Context, in domain.DetectionInput) ([]domain.DetectedItem, error) {
	if in.IsEmpty() {
		return []domain.DetectedItem{}, nil
	}

	switch r.mode {
	case domain.ModeGPTOnly:
		return r.run(ctx, r.gpt, in)
	case domain.ModeVisionOnly:
		return r.run(ctx, r.vision, in)
	default:
		items, err := r.run(ctx, r.gpt, in)
		if err != nil || len(items) > 0 {
			return items, err
		}
		return r.run(ctx, r.vision, in)
	}
}

func (r *DetectionRouter) run(ctx context.Context, backend ports.DetectionBackend, in domain.DetectionInput) ([]domain.DetectedItem, error) {
	if backend == nil {
		return []domain.DetectedItem{}, nil
	}

	raw, err := backend.Detect(ctx, in)
	if err != nil {
		if isCanceled(ctx, err) {
			return nil, asCanceled("route detection", err)
		}
		r.logger.Warn("detection_backend_failed",
			"backend", backend.Source(),
			"mode", r.mode,
			"error", err,
		)
		return []domain.DetectedItem{}, nil
	}

	items := r.normalize(backend.Source(), raw)
	r.observer.ObserveDetections(backend.Source(), len(items), len(raw)-len(items))
	if len(items) == 0 {
		r.logger.Info("detection_backend_empty", "backend", backend.Source(), "raw_count", len(raw))
	}
	return items, nil
}

func (r *DetectionRouter) normalize(source domain.DetectionSource, raw []domain.RawDetection) []domain.DetectedItem {
	out := make([]domain.DetectedItem, 0, len(raw))
	for _, det := range raw {
		if !IsFoodish(det.Name) {
			continue
		}
		name := strings.TrimSpace(det.Name)

		var grams float64
		if det.PortionEstimate != nil && *det.PortionEstimate > 0 && !math.IsInf(*det.PortionEstimate, 0) {
			grams = portion.ClampGrams(math.Round(*det.PortionEstimate))
		} else {
			grams = r.estimator.Estimate(name, nil, domain.ImageSize{}, nil).Grams
		}

		out = append(out, domain.DetectedItem{
			Name:       name,
			Grams:      grams,
			Confidence: clampUnit(det.Confidence),
			Source:     source,
		})
	}
	return out
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || domain.IsKind(err, domain.ErrCanceled)
}

func asCanceled(operation string, err error) error {
	if domain.IsKind(err, domain.ErrCanceled) {
		return err
	}
	return domain.WrapError(domain.ErrCanceled, operation, err)
}
