package geolib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/panjf2000/ants/v2"
)

const (
	DefaultWorkerPoolSize = 64

	workerPoolExpireTime = time.Minute
	requestTimeout       = time.Minute
)

// HTTPHandler serves geolocation results over HTTP. Each request gets
// its own GeoResolver so client address is taken from request headers.
// Backends are shared between all requests.
type HTTPHandler struct {
	router     chi.Router
	conf       Config
	logger     Logger
	backends   []Backend
	stats      []*UsageStats
	workerPool *ants.PoolWithFunc
	closeOnce  sync.Once
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

// Shutdown releases a worker pool. Backends are not closed, it is
// responsibility of the owner.
func (h *HTTPHandler) Shutdown() {
	h.closeOnce.Do(func() {
		h.workerPool.Release()
	})
}

func (h *HTTPHandler) newResolver(req *http.Request) (*GeoResolver, error) {
	return NewGeoResolver(h.conf, EnvironmentFromRequest(req), h.backends)
}

func (h *HTTPHandler) encodeJSON(w http.ResponseWriter, data interface{}) {
	encoder := json.NewEncoder(w)

	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h *HTTPHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	e := &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	}

	w.WriteHeader(e.StatusCode())
	h.encodeJSON(w, e)
}

func (h *HTTPHandler) sendResolveError(w http.ResponseWriter, ip string, err error) {
	h.logger.ResolveError(ip, err)

	if errors.Is(err, ErrUnsupportedService) {
		h.sendError(w, err, "Geolocation service is not configured", http.StatusNotImplemented)

		return
	}

	h.sendError(w, err, "Cannot resolve IP address", http.StatusBadGateway)
}

// NewHTTPHandler builds a handler with the following endpoints:
//
//	GET  /       - location of the client
//	GET  /{ip}   - location of the given address
//	POST /       - locations of {"ips": [...]}
//	GET  /stats  - usage statistics of backends
func NewHTTPHandler(conf Config, backends []Backend, logger Logger, workerPoolSize int) (*HTTPHandler, error) {
	if _, err := MergeDefaultLocation(conf.DefaultLocation); err != nil {
		return nil, fmt.Errorf("incorrect configuration: %w", err)
	}

	rv := &HTTPHandler{
		conf:     conf,
		logger:   logger,
		backends: make([]Backend, 0, len(backends)),
		stats:    make([]*UsageStats, 0, len(backends)),
	}

	for _, v := range backends {
		stats := &UsageStats{Name: v.Name()}

		rv.stats = append(rv.stats, stats)
		rv.backends = append(rv.backends, NewStatsBackend(v, stats))
	}

	poolSize := workerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, rv.resolveTask,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool

	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.SetHeader("Content-Type", "application/json"))

	router.Get("/", rv.handleGetSelf)
	router.Get("/stats", rv.handleGetStats)
	router.Get("/{ip}", rv.handleGetIP)
	router.Post("/", rv.handlePost)

	rv.router = router

	return rv, nil
}
