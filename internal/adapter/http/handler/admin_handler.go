package handler

import (
	"schnl-ledger/internal/adapter/http/dto"
	"schnl-ledger/internal/adapter/http/middleware"
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/apperror"
	"schnl-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves role, minter, compliance and oracle administration.
// Authorization is enforced by the ledger against the token's caller.
type AdminHandler struct {
	ledger ports.LedgerService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledger ports.LedgerService) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

// bindCaller resolves the caller and binds the JSON body into req.
func bindCaller(c *gin.Context, req interface{}) (domain.Address, bool) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return "", false
	}
	if req != nil {
		if err := c.ShouldBindJSON(req); err != nil {
			response.Error(c, apperror.Validation(err.Error()))
			return "", false
		}
		dto.SanitizeStruct(req)
	}
	return caller, true
}

// TransferAdmin handles PUT /api/v1/admin/roles/admin.
func (h *AdminHandler) TransferAdmin(c *gin.Context) {
	var req dto.AddressRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.TransferAdmin(c.Request.Context(), caller, dto.MustAddress(req.Address)); err != nil {
		response.Error(c, err)
		return
	}
	h.roles(c)
}

// TransferOperator handles PUT /api/v1/admin/roles/operator.
func (h *AdminHandler) TransferOperator(c *gin.Context) {
	var req dto.AddressRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.TransferOperator(c.Request.Context(), caller, dto.MustAddress(req.Address)); err != nil {
		response.Error(c, err)
		return
	}
	h.roles(c)
}

func (h *AdminHandler) roles(c *gin.Context) {
	roles := h.ledger.Roles()
	response.OK(c, gin.H{
		"admin":    roles.Admin.String(),
		"operator": roles.Operator.String(),
	})
}

// ConfigureMinter handles PUT /api/v1/admin/minters.
func (h *AdminHandler) ConfigureMinter(c *gin.Context) {
	var req dto.ConfigureMinterRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	minter := dto.MustAddress(req.Minter)
	if err := h.ledger.ConfigureMinter(c.Request.Context(), caller, minter, parseAmount(req.Allowance), req.CanBurn); err != nil {
		response.Error(c, err)
		return
	}
	cfg, _ := h.ledger.Minter(minter)
	response.OK(c, dto.NewMinterResponse(minter, cfg, h.ledger.HasBurnPermission(minter)))
}

// RemoveMinter handles DELETE /api/v1/admin/minters/:address.
func (h *AdminHandler) RemoveMinter(c *gin.Context) {
	caller, ok := bindCaller(c, nil)
	if !ok {
		return
	}
	minter, ok := addressParam(c)
	if !ok {
		return
	}
	if err := h.ledger.RemoveMinter(c.Request.Context(), caller, minter); err != nil {
		response.Error(c, err)
		return
	}
	cfg, _ := h.ledger.Minter(minter)
	response.OK(c, dto.NewMinterResponse(minter, cfg, h.ledger.HasBurnPermission(minter)))
}

// SetBlacklist handles PUT /api/v1/admin/blacklist.
func (h *AdminHandler) SetBlacklist(c *gin.Context) {
	var req dto.BlacklistRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	account := dto.MustAddress(req.Account)
	if err := h.ledger.SetBlacklist(c.Request.Context(), caller, account, *req.Blacklisted); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(h.ledger.Account(account)))
}

// Freeze handles POST /api/v1/admin/freeze.
func (h *AdminHandler) Freeze(c *gin.Context) {
	var req dto.FreezeRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	account := dto.MustAddress(req.Account)
	if err := h.ledger.SetFreeze(c.Request.Context(), caller, account, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(h.ledger.Account(account)))
}

// Unfreeze handles POST /api/v1/admin/unfreeze.
func (h *AdminHandler) Unfreeze(c *gin.Context) {
	var req dto.FreezeRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	account := dto.MustAddress(req.Account)
	if err := h.ledger.ClearFreeze(c.Request.Context(), caller, account, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(h.ledger.Account(account)))
}

// Wipe handles POST /api/v1/admin/wipe.
func (h *AdminHandler) Wipe(c *gin.Context) {
	var req dto.WipeRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	account := dto.MustAddress(req.Account)
	wiped, err := h.ledger.WipeFrozen(c.Request.Context(), caller, account, req.CaseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.WipeResponse{Account: account.String(), Wiped: dto.NewAmount(wiped)})
}

// Pause handles POST /api/v1/admin/pause.
func (h *AdminHandler) Pause(c *gin.Context) {
	var req dto.ReasonRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.Pause(c.Request.Context(), caller, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"paused": true})
}

// Unpause handles POST /api/v1/admin/unpause.
func (h *AdminHandler) Unpause(c *gin.Context) {
	var req dto.ReasonRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.Unpause(c.Request.Context(), caller, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"paused": false})
}

// SetOracleSource handles PUT /api/v1/admin/oracle/source.
func (h *AdminHandler) SetOracleSource(c *gin.Context) {
	var req dto.AddressRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.SetOracleSource(c.Request.Context(), caller, dto.MustAddress(req.Address)); err != nil {
		response.Error(c, err)
		return
	}
	h.oracle(c)
}

// SetTolerance handles PUT /api/v1/admin/oracle/tolerance.
func (h *AdminHandler) SetTolerance(c *gin.Context) {
	var req dto.ToleranceRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.SetToleranceBps(c.Request.Context(), caller, *req.Bps); err != nil {
		response.Error(c, err)
		return
	}
	h.oracle(c)
}

// SetStaleness handles PUT /api/v1/admin/oracle/staleness.
func (h *AdminHandler) SetStaleness(c *gin.Context) {
	var req dto.StalenessRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.SetMaxStaleness(c.Request.Context(), caller, *req.Seconds); err != nil {
		response.Error(c, err)
		return
	}
	h.oracle(c)
}

// SetRateBounds handles PUT /api/v1/admin/rate-bounds.
func (h *AdminHandler) SetRateBounds(c *gin.Context) {
	var req dto.RateBoundsRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.SetRateBounds(c.Request.Context(), caller, parseAmount(req.MinRate), parseAmount(req.MaxRate)); err != nil {
		response.Error(c, err)
		return
	}
	h.oracle(c)
}

func (h *AdminHandler) oracle(c *gin.Context) {
	response.OK(c, dto.NewOracleResponse(h.ledger.OracleState(), h.ledger.RateBounds()))
}

// SetSupplyCap handles PUT /api/v1/admin/supply-cap.
func (h *AdminHandler) SetSupplyCap(c *gin.Context) {
	var req dto.SupplyCapRequest
	caller, ok := bindCaller(c, &req)
	if !ok {
		return
	}
	if err := h.ledger.SetSupplyCap(c.Request.Context(), caller, parseAmount(req.Cap)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSupplyResponse(h.ledger.Supply(), h.ledger.Paused()))
}
