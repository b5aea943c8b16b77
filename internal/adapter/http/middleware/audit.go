package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful write requests. Compliance routes are
// skipped: the ledger audits those itself with the committed entry.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath())
		if action == "" {
			return
		}

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("address"),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		}
		if caller, ok := Caller(c); ok {
			entry.Actor = &caller
		}
		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(CtxRequestID),
		})
		entry.Details = string(details)

		auditSvc.Log(c.Request.Context(), entry)
	}
}

func mapRouteToAction(route string) (domain.AuditAction, string) {
	const v1 = "/api/v1"
	switch route {
	case v1 + "/mint":
		return domain.AuditActionMint, "mint_record"
	case v1 + "/burn":
		return domain.AuditActionBurn, "burn_record"
	case v1 + "/transfer":
		return domain.AuditActionTransfer, "account"
	case v1 + "/admin/roles/admin":
		return domain.AuditActionRoles, "admin"
	case v1 + "/admin/roles/operator":
		return domain.AuditActionRoles, "operator"
	case v1 + "/admin/minters", v1 + "/admin/minters/:address":
		return domain.AuditActionMinters, "minter"
	case v1 + "/admin/supply-cap":
		return domain.AuditActionSupply, "supply_cap"
	case v1 + "/admin/rate-bounds":
		return domain.AuditActionOracle, "rate_bounds"
	}
	if strings.HasPrefix(route, v1+"/admin/oracle/") {
		return domain.AuditActionOracle, strings.TrimPrefix(route, v1+"/admin/oracle/")
	}
	return "", ""
}
