package middleware

import (
	"net/http"
	"strings"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/apperror"
	"schnl-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderNonce     = "X-Nonce"
	HeaderRequestID = "X-Request-ID"

	maxNonceLength = 128

	// Context keys
	CtxCaller    = "caller"
	CtxRequestID = "request_id"
)

// Caller returns the authenticated caller address set by JWTAuth.
func Caller(c *gin.Context) (domain.Address, bool) {
	v, ok := c.Get(CtxCaller)
	if !ok {
		return "", false
	}
	addr, ok := v.(domain.Address)
	return addr, ok && !addr.IsZero()
}

// RequestID propagates an inbound X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// JWTAuth validates the bearer token and sets the caller address. The
// caller of every ledger operation is taken from the token, never from the
// request body.
func JWTAuth(tokenSvc ports.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenStr == "" {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxCaller, claims.Caller)
		c.Next()
	}
}

// NonceGuard rejects a mutating request whose X-Nonce the caller has used
// before, so a captured request cannot be replayed. Must run after JWTAuth.
// A nonce store outage lets the request through.
func NonceGuard(store ports.NonceStore, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := c.GetHeader(HeaderNonce)
		if nonce == "" || len(nonce) > maxNonceLength {
			response.Error(c, apperror.Validation("X-Nonce header is required (max 128 characters)"))
			c.Abort()
			return
		}
		caller, ok := Caller(c)
		if !ok {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		isNew, err := store.CheckAndSet(c.Request.Context(), caller.String(), nonce, ttl)
		if err != nil {
			log.Warn().Err(err).Str("caller", caller.String()).Msg("nonce store error, allowing request")
		} else if !isNew {
			response.Error(c, apperror.ErrNonceUsed())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		if caller, ok := Caller(c); ok {
			event = event.Str("caller", caller.String())
		}
		event.
			Str("request_id", c.GetString(CtxRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": apperror.CodeInternal,
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize limits the request body. Reads past the limit fail and the
// request is rejected by the handler's binding step.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
