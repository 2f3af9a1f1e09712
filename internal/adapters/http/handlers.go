package httpadapter

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/flags"
)

type detectRequest struct {
	ImageB64 string `json:"image_b64"`
	Mime     string `json:"mime"`
	Text     string `json:"text"`
}

func (rt *Router) detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := domain.DetectionInput{Text: req.Text, MimeType: req.Mime}
	if req.ImageB64 != "" {
		image, err := base64.StdEncoding.DecodeString(req.ImageB64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image_b64 is not valid base64"})
			return
		}
		in.Image = image
	}

	report, err := rt.deps.Images.AnalyzeImage(r.Context(), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeReport(w, r, http.StatusOK, report)
}

// portionsRequest may declare a volume per food. A declared volume wins
// over the box-based guess.
type portionsRequest struct {
	Foods     []string                `json:"foods"`
	Boxes     map[string][]domain.Box `json:"boxes"`
	Image     domain.ImageSize        `json:"image"`
	Plate     *domain.Box             `json:"plate"`
	VolumesML map[string]float64      `json:"volumes_ml"`
}

func (rt *Router) estimatePortions(w http.ResponseWriter, r *http.Request) {
	var req portionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Foods) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "foods is required"})
		return
	}

	estimates := rt.deps.Estimator.EstimatePortions(req.Foods, req.Boxes, req.Image, req.Plate)
	for i, name := range req.Foods {
		if ml, ok := req.VolumesML[name]; ok && ml > 0 {
			est := rt.deps.Estimator.FromVolume(name, ml)
			estimates[i].Grams = est.Grams
			estimates[i].Confidence = est.Confidence
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"portions": estimates})
}

func (rt *Router) analyzeLabel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OCRText string `json:"ocr_text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := rt.deps.Labels.AnalyzeLabel(r.Context(), req.OCRText)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeReport(w, r, http.StatusOK, report)
}

type evaluateRequest struct {
	IngredientsText string             `json:"ingredients_text"`
	Per100          domain.NutrientSet `json:"per100"`
	Goal            flags.Goal         `json:"goal"`
	Count           int                `json:"count"`
	Grams           float64            `json:"grams"`
}

type explainedFlag struct {
	domain.Flag
	Explanation string `json:"explanation"`
}

func (rt *Router) evaluateFlags(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	found := flags.Evaluate(domain.ParsedNutritionFacts{
		Per100:          req.Per100,
		IngredientsText: req.IngredientsText,
	})
	ec := flags.ExplainContext{Count: req.Count, Grams: req.Grams, Goal: req.Goal}
	out := make([]explainedFlag, 0, len(found))
	for _, flag := range found {
		out = append(out, explainedFlag{Flag: flag, Explanation: flags.Explain(flag, ec)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": out})
}

func (rt *Router) lookupProduct(w http.ResponseWriter, r *http.Request) {
	report, err := rt.deps.Barcodes.LookupBarcode(r.Context(), r.PathValue("barcode"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeReport(w, r, http.StatusOK, report)
}

func (rt *Router) searchFoods(w http.ResponseWriter, r *http.Request) {
	found, err := rt.deps.Foods.SearchFoods(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": found})
}

func (rt *Router) getReport(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	report, err := rt.deps.Reports.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeReport(w, r, http.StatusOK, report)
}

type providerStatus struct {
	Name          string `json:"name"`
	Down          bool   `json:"down"`
	SafeMode      bool   `json:"safe_mode"`
	LastCheckedAt string `json:"last_checked_at,omitempty"`
}

func (rt *Router) listProviders(w http.ResponseWriter, _ *http.Request) {
	out := make([]providerStatus, 0, len(rt.deps.Gates))
	for _, gate := range rt.deps.Gates {
		st := gate.State()
		status := providerStatus{Name: gate.Name(), Down: st.IsDown, SafeMode: gate.SafeMode()}
		if !st.LastCheckedAt.IsZero() {
			status.LastCheckedAt = st.LastCheckedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, status)
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out})
}

func (rt *Router) setSafeMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
		return
	}
	for _, gate := range rt.deps.Gates {
		gate.SetSafeMode(*req.Enabled)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"safe_mode": *req.Enabled})
}

// overrideProvider forces a gate healthy or down until its next probe.
func (rt *Router) overrideProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Healthy *bool `json:"healthy"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Healthy == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "healthy is required"})
		return
	}

	name := r.PathValue("name")
	for _, gate := range rt.deps.Gates {
		if gate.Name() != name {
			continue
		}
		gate.Override(*req.Healthy)
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "down": !*req.Healthy})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown provider " + name})
}
