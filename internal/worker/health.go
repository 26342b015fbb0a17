package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Check is a named dependency probe run by the health endpoints
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// RedisCheck pings redis
func RedisCheck(client *redis.Client) Check {
	return Check{
		Name: "redis",
		Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// TemplateDirCheck verifies the template directory is still readable
func TemplateDirCheck(dir string) Check {
	return Check{
		Name: "templates",
		Probe: func(context.Context) error {
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return nil
		},
	}
}

// HealthServer provides HTTP health check endpoints
type HealthServer struct {
	port   int
	checks []Check
	logger *zap.Logger
	server *http.Server
}

// NewHealthServer creates a new health server
func NewHealthServer(port int, logger *zap.Logger, checks ...Check) *HealthServer {
	return &HealthServer{
		port:   port,
		checks: checks,
		logger: logger,
	}
}

// Handler returns the mux serving /health and /ready
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop() error {
	if hs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// probe runs every check, reporting each result and whether all passed
func (hs *HealthServer) probe(ctx context.Context) (map[string]string, bool) {
	results := make(map[string]string, len(hs.checks))
	ok := true
	for _, c := range hs.checks {
		if err := c.Probe(ctx); err != nil {
			results[c.Name] = fmt.Sprintf("unhealthy: %v", err)
			ok = false
			continue
		}
		results[c.Name] = "healthy"
	}
	return results, ok
}

// handleHealth handles the /health endpoint
func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks, ok := hs.probe(ctx)
	if !ok {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: checks,
	})
}

// handleReady handles the /ready endpoint
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, ok := hs.probe(ctx); !ok {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
		})
		return
	}

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
	})
}

// respondJSON writes a JSON response
func (hs *HealthServer) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		hs.logger.Error("failed to encode response", zap.Error(err))
	}
}
