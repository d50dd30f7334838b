package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"optionflow/config"
	"optionflow/internal/chain"
	"optionflow/internal/fetch"
	"optionflow/internal/metrics"
	"optionflow/logger"
	"optionflow/models"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

const (
	defaultHistoryLimit = 200
	shutdownTimeout     = 5 * time.Second
)

// Server hosts the Gin-powered option chain dashboard. Every GET
// endpoint is a pure read of the live snapshot; the only mutating entry
// point is the refresh trigger, which runs the fetch orchestrator.
type Server struct {
	cfg           config.DashboardConfig
	log           *logger.Log
	store         *fetch.Store
	fetcher       *fetch.Fetcher
	candles       *fetch.CandleLoader
	metricStore   *metricStore
	logStore      *logStore
	metricHandler metrics.MetricHandlerID
	httpServer    *http.Server
	refreshing    atomic.Bool
}

// NewServer constructs a dashboard server when the dashboard feature is
// enabled. When the dashboard is disabled the returned server will be nil.
func NewServer(cfg config.DashboardConfig, log *logger.Log, store *fetch.Store, fetcher *fetch.Fetcher, candles *fetch.CandleLoader) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	metricStore := newMetricStore(defaultHistoryLimit)
	handlerID := metrics.RegisterMetricHandler(metricStore.handle)

	logStore := newLogStore(defaultHistoryLimit)
	log.AddHook(logStore)

	return &Server{
		cfg:           cfg,
		log:           log,
		store:         store,
		fetcher:       fetcher,
		candles:       candles,
		metricStore:   metricStore,
		logStore:      logStore,
		metricHandler: handlerID,
	}, nil
}

// Run starts the dashboard HTTP server and blocks until the provided context
// is cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context, appName string) error {
	if s == nil {
		return nil
	}

	defer s.cleanup()

	router, err := s.buildRouter(appName)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.WithComponent("dashboard").WithFields(logger.Fields{"address": s.cfg.Address}).Info("dashboard listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) cleanup() {
	metrics.UnregisterMetricHandler(s.metricHandler)
	if s.logStore != nil {
		s.logStore.close()
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter(appName string) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	tmpl := template.Must(template.New("dashboard").ParseFS(embeddedFS, "templates/index.tmpl"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.tmpl", gin.H{"AppName": appName})
	})

	api := router.Group("/api")
	api.POST("/refresh", s.handleRefresh)
	api.GET("/assets", s.handleAssets)
	api.GET("/chain/:asset", s.handleChain)
	api.GET("/expiries/:asset", s.handleExpiries)
	api.GET("/window/:asset", s.handleWindow)
	api.GET("/series/strike/:asset", s.handleStrikeSeries)
	api.GET("/series/candles/:symbol", s.handleCandleSeries)
	api.GET("/candle/:symbol", s.handleCandleOnDemand)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/logs", s.handleLogs)

	return router, nil
}

// handleRefresh runs one fetch-all pass. Overlapping refreshes are
// rejected rather than queued; the store only ever sees whole runs.
func (s *Server) handleRefresh(c *gin.Context) {
	if s.fetcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fetching is not configured"})
		return
	}
	if !s.refreshing.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "a fetch is already in progress"})
		return
	}
	defer s.refreshing.Store(false)

	summary, err := s.fetcher.FetchAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleAssets(c *gin.Context) {
	session, fetchedAt := s.store.Session()
	payload := gin.H{
		"assets":  s.store.Assets(),
		"session": session,
		"errors":  s.store.Errors(),
	}
	if !fetchedAt.IsZero() {
		payload["fetched_at"] = fetchedAt.Format(time.RFC3339Nano)
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleChain(c *gin.Context) {
	snap, ok := s.snapshotFor(c)
	if !ok {
		return
	}

	payload := gin.H{
		"asset":   snap.Asset,
		"records": snap.Records,
		"errors":  s.store.Errors(),
	}
	if spot, ok := chain.SpotPrice(snap.Records); ok {
		payload["spot_price"] = spot
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleExpiries(c *gin.Context) {
	snap, ok := s.snapshotFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset":    snap.Asset,
		"expiries": chain.GroupByExpiry(snap.Records),
	})
}

// handleWindow serves the displayable strike window: nearest expiry,
// at most 41 strikes centered on ATM.
func (s *Server) handleWindow(c *gin.Context) {
	snap, ok := s.snapshotFor(c)
	if !ok {
		return
	}
	optionType, ok := optionTypeParam(c)
	if !ok {
		return
	}

	spot, _ := chain.SpotPrice(snap.Records)
	window := chain.SelectWindow(snap.Records, optionType, spot)

	payload := gin.H{
		"asset":       snap.Asset,
		"option_type": optionType,
		"spot_price":  spot,
		"records":     window,
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleStrikeSeries(c *gin.Context) {
	snap, ok := s.snapshotFor(c)
	if !ok {
		return
	}

	metric := c.DefaultQuery("metric", "mark_price")
	if !chain.ValidMetric(metric) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric " + metric})
		return
	}

	rows := snap.Records
	if c.Query("window") == "true" {
		optionType, ok := optionTypeParam(c)
		if !ok {
			return
		}
		spot, _ := chain.SpotPrice(snap.Records)
		rows = chain.SelectWindow(snap.Records, optionType, spot)
	}

	c.JSON(http.StatusOK, gin.H{
		"asset":  snap.Asset,
		"metric": metric,
		"series": chain.BuildStrikeSeries(rows, metric),
	})
}

// handleCandleSeries serves a series prefetched during the last fetch
// run. A null series is the explicit no-data state for the instrument.
func (s *Server) handleCandleSeries(c *gin.Context) {
	symbol := c.Param("symbol")
	for _, asset := range s.store.Assets() {
		snap, ok := s.store.Snapshot(asset)
		if !ok {
			continue
		}
		for _, candle := range snap.Candles {
			if candle.Symbol != symbol {
				continue
			}
			c.JSON(http.StatusOK, gin.H{
				"symbol":      candle.Symbol,
				"option_type": candle.OptionType,
				"series":      chain.BuildCandlestickSeries(candle.Chart),
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no prefetched candles for " + symbol})
}

// handleCandleOnDemand fetches candle history for one instrument right
// now. A result superseded by a newer request is discarded and reported
// as a conflict.
func (s *Server) handleCandleOnDemand(c *gin.Context) {
	if s.candles == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "candle fetching is not configured"})
		return
	}

	symbol := c.Param("symbol")
	optionType := models.OptionTypeCall
	if t := c.Query("type"); t != "" {
		parsed, ok := parseOptionType(t)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be call or put"})
			return
		}
		optionType = parsed
	}

	result, ok := s.candles.Load(c.Request.Context(), symbol, optionType)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":      result.Symbol,
		"option_type": result.OptionType,
		"series":      chain.BuildCandlestickSeries(result.Chart),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	metricsSnapshot := s.metricStore.snapshot()
	payload := make([]gin.H, 0, len(metricsSnapshot))
	for _, m := range metricsSnapshot {
		payload = append(payload, gin.H{
			"timestamp": m.Timestamp.Format(time.RFC3339Nano),
			"component": m.Component,
			"name":      m.Name,
			"value":     m.Value,
			"type":      m.Type,
			"fields":    m.Fields,
		})
	}
	c.JSON(http.StatusOK, gin.H{"metrics": payload})
}

func (s *Server) handleLogs(c *gin.Context) {
	logsSnapshot := s.logStore.snapshot()
	payload := make([]gin.H, 0, len(logsSnapshot))
	for _, l := range logsSnapshot {
		payload = append(payload, gin.H{
			"timestamp": l.Timestamp.Format(time.RFC3339Nano),
			"level":     l.Level,
			"component": l.Component,
			"message":   l.Message,
			"fields":    l.Fields,
		})
	}
	c.JSON(http.StatusOK, gin.H{"logs": payload})
}

// snapshotFor resolves the :asset path parameter against the live
// snapshot, answering 404 when the asset has no data.
func (s *Server) snapshotFor(c *gin.Context) (*models.AssetSnapshot, bool) {
	asset := c.Param("asset")
	snap, ok := s.store.Snapshot(asset)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for asset " + asset})
		return nil, false
	}
	return snap, true
}

func optionTypeParam(c *gin.Context) (models.OptionType, bool) {
	optionType, ok := parseOptionType(c.DefaultQuery("type", "call"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be call or put"})
		return "", false
	}
	return optionType, true
}

func parseOptionType(value string) (models.OptionType, bool) {
	switch strings.ToLower(value) {
	case "call":
		return models.OptionTypeCall, true
	case "put":
		return models.OptionTypePut, true
	default:
		return "", false
	}
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8080"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8080"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}

	return addr
}
