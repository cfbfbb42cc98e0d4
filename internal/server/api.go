package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gkobilansky/abkit/internal/narrative"
	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// maxSimulationDays bounds the series a single request can ask for.
	maxSimulationDays = 3650

	// Curve sweeps are bounded per axis, matching the config's mde_steps limit.
	maxCurveMDEs   = 10000
	maxCurveSplits = 100
)

// SaveOptions asks for the result to be kept in the analyses history.
type SaveOptions struct {
	Save  bool   `json:"save,omitempty"`
	Name  string `json:"name,omitempty"`
	Owner string `json:"owner,omitempty"`
}

type SignificanceRequest struct {
	// Variants lists every arm. Without an explicit control role, the
	// first variant is the control.
	Variants []stats.Variant `json:"variants"`
	Alpha    float64         `json:"alpha"`
	Context  string          `json:"context,omitempty"`
	Narrate  bool            `json:"narrate,omitempty"`
	SaveOptions
}

type SignificanceResponse struct {
	Report         *stats.SignificanceReport `json:"report"`
	Verdict        string                    `json:"verdict"`
	Interpretation string                    `json:"interpretation,omitempty"`
	AnalysisID     string                    `json:"analysis_id,omitempty"`
}

func (s *Server) handleSignificance(w http.ResponseWriter, r *http.Request) {
	req := SignificanceRequest{Alpha: s.cfg.Defaults.Alpha}
	if err := decode(r, &req); err != nil {
		s.engineError(w, r, err)
		return
	}
	if !s.saveAllowed(w, r, req.SaveOptions) {
		return
	}

	set, err := variantSet(req.Variants)
	var rep *stats.SignificanceReport
	if err == nil {
		rep, err = stats.ComputeSignificance(set, req.Alpha)
	}
	s.metrics.observe(string(store.KindSignificance), err)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	resp := SignificanceResponse{Report: rep, Verdict: rep.Verdict()}

	if req.Narrate {
		if s.narrator == nil {
			writeError(w, http.StatusServiceUnavailable, "NarratorUnavailable", "interpretation is not configured on this server")
			return
		}
		text, err := narrative.Interpret(r.Context(), s.narrator, rep, req.Context)
		if err != nil {
			s.logger.Error("interpretation failed", "error", err)
			writeError(w, http.StatusBadGateway, "NarratorFailed", "interpretation request failed")
			return
		}
		resp.Interpretation = text
	}

	if resp.AnalysisID, err = s.save(r.Context(), req.SaveOptions, store.KindSignificance, req, rep); err != nil {
		s.internalError(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		s.download(w, r, contentTypeCSV, "significance_report.csv", func(out io.Writer) error {
			return report.WriteSignificanceCSV(out, rep)
		})
	case "xlsx":
		s.download(w, r, contentTypeXLSX, "significance_report.xlsx", func(out io.Writer) error {
			return report.WriteSignificanceXLSX(out, rep)
		})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

type SampleSizeRequest struct {
	BaselineRate float64 `json:"baseline_rate"`
	MDE          float64 `json:"mde"`
	Alpha        float64 `json:"alpha"`
	Power        float64 `json:"power"`
}

type SampleSizeResponse struct {
	SampleSize      int     `json:"sample_size"`
	TotalSampleSize int     `json:"total_sample_size"`
	TreatmentRate   float64 `json:"treatment_rate"`
}

func (s *Server) handleSampleSize(w http.ResponseWriter, r *http.Request) {
	d := s.cfg.Defaults
	req := SampleSizeRequest{BaselineRate: d.BaselineRate, MDE: d.MDE, Alpha: d.Alpha, Power: d.Power}
	if err := decode(r, &req); err != nil {
		s.engineError(w, r, err)
		return
	}

	n, err := stats.SampleSize(req.BaselineRate, req.MDE, req.Alpha, req.Power)
	s.metrics.observe("sample_size", err)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SampleSizeResponse{
		SampleSize:      n,
		TotalSampleSize: 2 * n,
		TreatmentRate:   req.BaselineRate * (1 + req.MDE),
	})
}

type DurationRequest struct {
	SampleSize    int     `json:"sample_size"`
	DailyVisitors int     `json:"daily_visitors"`
	TrafficSplit  float64 `json:"traffic_split"`
}

type DurationResponse struct {
	DurationDays int    `json:"duration_days"`
	Display      string `json:"display"`
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	req := DurationRequest{DailyVisitors: s.cfg.Defaults.DailyVisitors, TrafficSplit: s.cfg.Defaults.TrafficSplit}
	if err := decode(r, &req); err != nil {
		s.engineError(w, r, err)
		return
	}

	days, err := stats.EstimateDuration(req.SampleSize, req.DailyVisitors, req.TrafficSplit)
	s.metrics.observe("duration", err)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DurationResponse{
		DurationDays: days,
		Display:      report.FormatDays(days, s.cfg.Display.MaxDurationDays),
	})
}

type DurationCurveRequest struct {
	stats.ExperimentConfig
	// MDEs overrides the evenly spaced sweep from MDEMin to MDEMax.
	MDEs          []float64 `json:"mdes,omitempty"`
	MDEMin        float64   `json:"mde_min"`
	MDEMax        float64   `json:"mde_max"`
	MDESteps      int       `json:"mde_steps"`
	TrafficSplits []float64 `json:"traffic_splits"`
	SaveOptions
}

type DurationCurveResponse struct {
	Points          stats.DurationCurve `json:"points"`
	Annotations     []report.Annotation `json:"annotations"`
	MaxDurationDays int                 `json:"max_duration_days"`
	AnalysisID      string              `json:"analysis_id,omitempty"`
}

func (s *Server) handleDurationCurve(w http.ResponseWriter, r *http.Request) {
	req := DurationCurveRequest{
		ExperimentConfig: s.cfg.ExperimentConfig(),
		MDEMin:           s.cfg.Curve.MDEMin,
		MDEMax:           s.cfg.Curve.MDEMax,
		MDESteps:         s.cfg.Curve.MDESteps,
		TrafficSplits:    s.cfg.Curve.TrafficSplits,
	}
	if err := decode(r, &req); err != nil {
		s.engineError(w, r, err)
		return
	}
	if !s.saveAllowed(w, r, req.SaveOptions) {
		return
	}

	var curve stats.DurationCurve
	err := checkCurveSize(req)
	if err == nil {
		mdes := req.MDEs
		if len(mdes) == 0 {
			mdes = stats.Linspace(req.MDEMin, req.MDEMax, req.MDESteps)
		}
		curve, err = stats.GenerateDurationCurve(req.ExperimentConfig, mdes, req.TrafficSplits)
	}
	s.metrics.observe(string(store.KindCurve), err)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	maxDays := s.cfg.Display.MaxDurationDays
	resp := DurationCurveResponse{
		Points:          curve,
		Annotations:     report.Annotations(curve, s.cfg.Display.AnnotationMDEs, maxDays),
		MaxDurationDays: maxDays,
	}
	if resp.Annotations == nil {
		resp.Annotations = []report.Annotation{}
	}

	if resp.AnalysisID, err = s.save(r.Context(), req.SaveOptions, store.KindCurve, req, curve); err != nil {
		s.internalError(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		s.download(w, r, contentTypeCSV, report.DurationCurveFilename+".csv", func(out io.Writer) error {
			return report.WriteDurationCurveCSV(out, curve)
		})
	case "xlsx":
		s.download(w, r, contentTypeXLSX, report.DurationCurveFilename+".xlsx", func(out io.Writer) error {
			return report.WriteDurationCurveXLSX(out, curve)
		})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func checkCurveSize(req DurationCurveRequest) error {
	if len(req.MDEs) > maxCurveMDEs || (len(req.MDEs) == 0 && req.MDESteps > maxCurveMDEs) {
		return fmt.Errorf("%w: a curve can sweep at most %d mde values", stats.ErrInvalidInput, maxCurveMDEs)
	}
	if len(req.TrafficSplits) > maxCurveSplits {
		return fmt.Errorf("%w: a curve can sweep at most %d traffic splits", stats.ErrInvalidInput, maxCurveSplits)
	}
	return nil
}

type ScenariosRequest struct {
	stats.ExperimentConfig
	// Days defaults to the planned duration.
	Days int     `json:"days"`
	Seed *uint64 `json:"seed,omitempty"`
	SaveOptions
}

type ScenariosResponse struct {
	Days       int                     `json:"days"`
	Seed       uint64                  `json:"seed"`
	Series     stats.ScenarioSeries    `json:"series"`
	Summary    []stats.ScenarioSummary `json:"summary"`
	AnalysisID string                  `json:"analysis_id,omitempty"`
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	req := ScenariosRequest{ExperimentConfig: s.cfg.ExperimentConfig()}
	if err := decode(r, &req); err != nil {
		s.engineError(w, r, err)
		return
	}
	if !s.saveAllowed(w, r, req.SaveOptions) {
		return
	}
	seed := s.seed(req.Seed)

	series, days, err := s.simulate(req.ExperimentConfig, req.Days, seed)
	var summary []stats.ScenarioSummary
	if err == nil {
		summary, err = stats.SummarizeScenarios(series)
	}
	s.metrics.observe(string(store.KindScenarios), err)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	resp := ScenariosResponse{Days: days, Seed: seed, Series: series, Summary: summary}
	if resp.AnalysisID, err = s.save(r.Context(), req.SaveOptions, store.KindScenarios, req, resp); err != nil {
		s.internalError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		s.download(w, r, contentTypeCSV, "ab_test_scenarios.csv", func(out io.Writer) error {
			return report.WriteScenarioCSV(out, series)
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// simulate resolves a zero day count to the planned duration before
// running the scenarios.
func (s *Server) simulate(cfg stats.ExperimentConfig, days int, seed uint64) (stats.ScenarioSeries, int, error) {
	if days == 0 {
		plan, err := stats.PlanExperiment(cfg, stats.PlanOptions{})
		if err != nil {
			return nil, 0, err
		}
		days = plan.DurationDays
	}
	if days > maxSimulationDays {
		return nil, 0, fmt.Errorf("%w: cannot simulate %d days, the limit is %d", stats.ErrInvalidInput, days, maxSimulationDays)
	}
	series, err := stats.SimulateScenariosSeed(cfg, days, seed)
	return series, days, err
}

type PlanRequest struct {
	stats.ExperimentConfig
	Simulate bool    `json:"simulate"`
	Days     int     `json:"days"`
	Seed     *uint64 `json:"seed,omitempty"`
	SaveOptions
}

type PlanResponse struct {
	*stats.Plan
	Display    string `json:"display"`
	AnalysisID string `json:"analysis_id,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	req := PlanRequest{ExperimentConfig: s.cfg.ExperimentConfig()}
	if err := decode(r, &req); err != nil {
		s.engineError(w, r, err)
		return
	}
	if !s.saveAllowed(w, r, req.SaveOptions) {
		return
	}

	plan, err := stats.PlanExperiment(req.ExperimentConfig, stats.PlanOptions{})
	if err == nil && req.Simulate {
		plan.Scenarios, _, err = s.simulate(req.ExperimentConfig, req.Days, s.seed(req.Seed))
	}
	s.metrics.observe(string(store.KindPlan), err)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	resp := PlanResponse{Plan: plan, Display: report.FormatDays(plan.DurationDays, s.cfg.Display.MaxDurationDays)}
	if resp.AnalysisID, err = s.save(r.Context(), req.SaveOptions, store.KindPlan, req, plan); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) seed(requested *uint64) uint64 {
	if requested != nil {
		return *requested
	}
	return s.cfg.Defaults.Seed
}

// save stores the analysis when opts asks for it and returns its ID.
func (s *Server) save(ctx context.Context, opts SaveOptions, kind store.Kind, input, result any) (string, error) {
	if !opts.Save {
		return "", nil
	}
	a, err := s.store.SaveAnalysis(ctx, opts.Owner, kind, opts.Name, input, result)
	if err != nil {
		return "", err
	}
	s.logger.Info("analysis saved", "id", a.ID, "kind", kind, "owner", a.Owner)
	return a.ID, nil
}

func variantSet(variants []stats.Variant) (stats.VariantSet, error) {
	if len(variants) == 0 {
		return stats.VariantSet{}, fmt.Errorf("%w: no variants given", stats.ErrInvalidInput)
	}
	for _, v := range variants {
		if v.Role == stats.RoleControl {
			return stats.VariantSetFromVariants(variants)
		}
	}
	return stats.NewVariantSet(variants[0], variants[1:]...)
}
