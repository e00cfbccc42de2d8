// ABOUTME: syncview HTTP server exposing the dashboard engine as a JSON API behind a chi router.
// ABOUTME: Drives zoom, pan, reset and roll period on the shared engine and serves heatmaps as PNG images.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389-research/syncview/chart"
	"github.com/2389-research/syncview/dashboard"
	"github.com/2389-research/syncview/metrics"
	"github.com/2389-research/syncview/raster"
	"github.com/2389-research/syncview/zoom"
)

// maxBodyBytes caps request bodies; every body here is a tiny JSON object.
const maxBodyBytes = 1 << 16

// Server is the syncview HTTP server.
type Server struct {
	dash    *dashboard.Dashboard
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  chi.Router
	addr    string

	chartWidth  int
	chartHeight int
}

// ServerConfig holds the configuration for the web server.
type ServerConfig struct {
	Addr      string // listen address (default: "127.0.0.1:2389")
	Dashboard *dashboard.Dashboard
	Metrics   *metrics.Metrics // served at /metrics when set
	Logger    *slog.Logger

	// Size of chart images (default: 415x150)
	ChartWidth  int
	ChartHeight int
}

// NewServer creates a Server over cfg.Dashboard and sets up routing.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dashboard == nil {
		return nil, errors.New("web: Dashboard must not be nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:2389"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ChartWidth <= 0 || cfg.ChartHeight <= 0 {
		cfg.ChartWidth, cfg.ChartHeight = 415, 150
	}
	s := &Server{
		dash:        cfg.Dashboard,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		addr:        cfg.Addr,
		chartWidth:  cfg.ChartWidth,
		chartHeight: cfg.ChartHeight,
	}
	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/layout", s.handleLayout)
		r.Post("/rollperiod", s.handleRollPeriod)

		r.Route("/partitions/{partition}", func(r chi.Router) {
			r.Get("/range", s.handlePartitionRange)
			r.Post("/reset", s.handlePartitionReset)
		})

		r.Route("/panels/{panel}", func(r chi.Router) {
			r.Get("/range", s.handlePanelWindow)
			r.Post("/range", s.handlePanelRange)
			r.Post("/zoom", s.handlePanelZoom)
			r.Post("/pan", s.handlePanelPan)
			r.Post("/reset", s.handlePanelReset)
			r.Get("/chart.png", s.handleChartPNG)
		})

		r.Get("/heatmaps/{heatmap}.png", s.handleHeatmapPNG)
	})

	return r
}

// handleHealth returns a JSON health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type panelSummary struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	BlockID   string `json:"blockId"`
	Title     string `json:"title,omitempty"`
	Partition int    `json:"partition"`
}

type catalogSummary struct {
	ID         string         `json:"id"`
	Partitions []int          `json:"partitions"`
	Panels     []panelSummary `json:"panels"`
	RollPeriod int            `json:"rollPeriod"`
}

// handleCatalog lists the partitions and panels of the loaded catalog.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.dash.Catalog()
	out := catalogSummary{
		ID:         cat.ID,
		Partitions: cat.Partitions(),
		Panels:     []panelSummary{},
		RollPeriod: s.dash.RollPeriod(),
	}
	for _, ser := range cat.Series {
		out.Panels = append(out.Panels, panelSummary{ID: ser.ID, Kind: "chart", BlockID: ser.BlockID, Title: ser.Title, Partition: ser.Partition})
	}
	for _, h := range cat.Heatmaps {
		out.Panels = append(out.Panels, panelSummary{ID: h.ID, Kind: "heatmap", BlockID: h.BlockID, Title: h.Title, Partition: h.Partition})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLayout returns the layout settings handed to the layout widget.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Layout())
}

func (s *Server) handleRollPeriod(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Period *int `json:"period"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.Period == nil {
		writeError(w, http.StatusBadRequest, "period is required")
		return
	}
	if err := s.dash.SetRollPeriod(*body.Period); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"period": s.dash.RollPeriod()})
}

func (s *Server) handlePartitionRange(w http.ResponseWriter, r *http.Request) {
	partition, ok := partitionParam(w, r)
	if !ok {
		return
	}
	st, err := s.dash.Range(partition)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePartitionReset(w http.ResponseWriter, r *http.Request) {
	partition, ok := partitionParam(w, r)
	if !ok {
		return
	}
	if err := s.dash.ResetPartition(partition); err != nil {
		s.fail(w, err)
		return
	}
	s.handlePartitionRange(w, r)
}

type panelWindow struct {
	Panel  string         `json:"panel"`
	Window zoom.ViewRange `json:"window"`
}

func (s *Server) handlePanelWindow(w http.ResponseWriter, r *http.Request) {
	panel := chi.URLParam(r, "panel")
	win, err := s.dash.Window(panel)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, panelWindow{Panel: panel, Window: win})
}

func (s *Server) handlePanelRange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From *float64 `json:"from"`
		To   *float64 `json:"to"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.From == nil || body.To == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	s.panelAction(w, r, func(panel string) error {
		return s.dash.SetRange(panel, zoom.ViewRange{From: *body.From, To: *body.To})
	})
}

func (s *Server) handlePanelZoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Factor *float64 `json:"factor"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.Factor == nil {
		writeError(w, http.StatusBadRequest, "factor is required")
		return
	}
	s.panelAction(w, r, func(panel string) error {
		return s.dash.Zoom(panel, *body.Factor)
	})
}

func (s *Server) handlePanelPan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fraction *float64 `json:"fraction"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.Fraction == nil {
		writeError(w, http.StatusBadRequest, "fraction is required")
		return
	}
	s.panelAction(w, r, func(panel string) error {
		return s.dash.Pan(panel, *body.Fraction)
	})
}

func (s *Server) handlePanelReset(w http.ResponseWriter, r *http.Request) {
	s.panelAction(w, r, s.dash.ResetZoom)
}

// panelAction runs fn on the panel named in the URL and answers with the
// panel's window afterwards.
func (s *Server) panelAction(w http.ResponseWriter, r *http.Request, fn func(panel string) error) {
	panel := chi.URLParam(r, "panel")
	if err := fn(panel); err != nil {
		s.fail(w, err)
		return
	}
	s.handlePanelWindow(w, r)
}

// handleHeatmapPNG renders a heatmap at ?from=&to=, or at its partition's
// current range when both are absent.
func (s *Server) handleHeatmapPNG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "heatmap")
	vr, err := s.heatmapRange(r, id)
	if err != nil {
		s.fail(w, err)
		return
	}

	etag := fmt.Sprintf(`"%s:%s:%g:%g"`, s.dash.Catalog().ID, id, vr.From, vr.To)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.dash.HeatmapPNG(r.Context(), id, &vr)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleChartPNG plots a chart at its current window with the partition's
// simplification markers.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	panel := chi.URLParam(r, "panel")
	img := raster.NewImage(s.chartWidth, s.chartHeight)
	if err := s.dash.PlotChart(panel, img); err != nil {
		s.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) heatmapRange(r *http.Request, id string) (zoom.ViewRange, error) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		h, ok := s.dash.Catalog().HeatmapByID(id)
		if !ok {
			return zoom.ViewRange{}, fmt.Errorf("%w: %q", dashboard.ErrUnknownHeatmap, id)
		}
		st, err := s.dash.Range(h.Partition)
		if err != nil {
			return zoom.ViewRange{}, err
		}
		if st.Current == nil {
			return zoom.ViewRange{}, fmt.Errorf("%w: %d", zoom.ErrNoExtent, h.Partition)
		}
		return *st.Current, nil
	}
	f, errF := strconv.ParseFloat(from, 64)
	t, errT := strconv.ParseFloat(to, 64)
	if errF != nil || errT != nil {
		return zoom.ViewRange{}, fmt.Errorf("%w: from=%q to=%q", zoom.ErrInvalidRange, from, to)
	}
	vr := zoom.ViewRange{From: f, To: t}
	return vr, vr.Validate()
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// fail maps engine errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("web request failed", "error", err)
	}
	writeError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, zoom.ErrInvalidRange),
		errors.Is(err, zoom.ErrInvalidRollPeriod),
		errors.Is(err, chart.ErrInvalidGesture):
		return http.StatusBadRequest
	case errors.Is(err, zoom.ErrUnknownPanel),
		errors.Is(err, zoom.ErrUnknownPartition),
		errors.Is(err, dashboard.ErrUnknownHeatmap):
		return http.StatusNotFound
	case errors.Is(err, zoom.ErrNoExtent):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func partitionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "partition")
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid partition %q", raw))
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
