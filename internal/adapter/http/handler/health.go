package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"schnl-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 3 * time.Second

type depStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthCheck handles GET /health. Dependencies are pinged concurrently;
// any failure reports the service as degraded.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		var (
			mu   sync.Mutex
			deps = make(map[string]depStatus, len(checkers))
		)
		var g errgroup.Group
		for _, checker := range checkers {
			g.Go(func() error {
				st := depStatus{Status: "healthy"}
				err := checker.Ping(ctx)
				if err != nil {
					st = depStatus{Status: "unhealthy", Error: err.Error()}
				}
				mu.Lock()
				deps[checker.Name()] = st
				mu.Unlock()
				return err
			})
		}

		status := "healthy"
		httpCode := http.StatusOK
		if err := g.Wait(); err != nil {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
