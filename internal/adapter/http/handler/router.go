package handler

import (
	"net/http"
	"time"

	"schnl-ledger/internal/adapter/http/middleware"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger         ports.LedgerService
	Records        ports.RecordRepository // nil = record listings disabled
	TokenSvc       ports.TokenService
	NonceStore     ports.NonceStore // nil = replay protection disabled
	NonceTTL       time.Duration
	Limiter        middleware.Limiter // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	AuditSvc       ports.AuditService // nil = audit logging disabled
	RateCache      RateCache          // nil = rate reads are not cached
	HealthCheckers []ports.HealthChecker
	Gatherer       prometheus.Gatherer // nil = /metrics not served
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// DefaultRateLimitRules allows reads four times the write budget.
func DefaultRateLimitRules(writes int64, window time.Duration) map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"reads":  {Limit: writes * 4, Window: window},
		"writes": {Limit: writes, Window: window},
	}
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(middleware.MaxBodySize(maxBody))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Helper: return rate limiter middleware if a limiter is configured, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.Limiter == nil {
			return noop
		}
		rule, ok := deps.RateLimitRules[group]
		if !ok {
			return noop
		}
		return middleware.RateLimiter(deps.Limiter, group, rule, deps.Logger)
	}

	nonce := noop
	if deps.NonceStore != nil {
		nonce = middleware.NonceGuard(deps.NonceStore, deps.NonceTTL, deps.Logger)
	}

	ledgerHandler := NewLedgerHandler(deps.Ledger, deps.Records, deps.RateCache, deps.Logger)
	adminHandler := NewAdminHandler(deps.Ledger)

	v1 := r.Group("/api/v1")

	// --- Public reads ---
	reads := v1.Group("", rl("reads"))
	{
		reads.GET("/accounts/:address", ledgerHandler.GetAccount)
		reads.GET("/supply", ledgerHandler.GetSupply)
		reads.GET("/roles", ledgerHandler.GetRoles)
		reads.GET("/minters/:address", ledgerHandler.GetMinter)
		reads.GET("/oracle", ledgerHandler.GetOracle)
		reads.GET("/oracle/rate", ledgerHandler.GetRate)
		reads.GET("/quote", ledgerHandler.Quote)
		reads.GET("/records/mint/:key", ledgerHandler.GetMintRecord)
		reads.GET("/records/burn/:key", ledgerHandler.GetBurnRecord)
		reads.GET("/records/mints", ledgerHandler.ListMints)
		reads.GET("/records/burns", ledgerHandler.ListBurns)
		reads.GET("/compliance/actions", ledgerHandler.ListComplianceActions)
	}

	// --- Authenticated writes ---
	writes := v1.Group("", middleware.JWTAuth(deps.TokenSvc), rl("writes"), nonce)
	{
		writes.POST("/mint", ledgerHandler.Mint)
		writes.POST("/burn", ledgerHandler.Burn)
		writes.POST("/transfer", ledgerHandler.Transfer)
	}

	admin := writes.Group("/admin")
	{
		admin.PUT("/roles/admin", adminHandler.TransferAdmin)
		admin.PUT("/roles/operator", adminHandler.TransferOperator)
		admin.PUT("/minters", adminHandler.ConfigureMinter)
		admin.DELETE("/minters/:address", adminHandler.RemoveMinter)
		admin.PUT("/blacklist", adminHandler.SetBlacklist)
		admin.POST("/freeze", adminHandler.Freeze)
		admin.POST("/unfreeze", adminHandler.Unfreeze)
		admin.POST("/wipe", adminHandler.Wipe)
		admin.POST("/pause", adminHandler.Pause)
		admin.POST("/unpause", adminHandler.Unpause)
		admin.PUT("/oracle/source", adminHandler.SetOracleSource)
		admin.PUT("/oracle/tolerance", adminHandler.SetTolerance)
		admin.PUT("/oracle/staleness", adminHandler.SetStaleness)
		admin.PUT("/supply-cap", adminHandler.SetSupplyCap)
		admin.PUT("/rate-bounds", adminHandler.SetRateBounds)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error_code": apperror.CodeNotFound, "message": "Route not found"})
	})

	return r
}

func noop(c *gin.Context) { c.Next() }
