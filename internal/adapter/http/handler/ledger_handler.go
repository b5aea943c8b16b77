package handler

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"schnl-ledger/internal/adapter/http/dto"
	"schnl-ledger/internal/adapter/http/middleware"
	redisStore "schnl-ledger/internal/adapter/storage/redis"
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/apperror"
	"schnl-ledger/pkg/response"
	"schnl-ledger/pkg/units"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateCache caches the last peeked oracle rate for public readers.
type RateCache interface {
	Get(ctx context.Context) (*redisStore.RateSnapshot, error)
	Set(ctx context.Context, snap redisStore.RateSnapshot) error
}

const (
	defaultComplianceLimit = 50
	maxComplianceLimit     = 500
)

// LedgerHandler serves balance operations and public reads.
type LedgerHandler struct {
	ledger  ports.LedgerService
	records ports.RecordRepository // nil = listings disabled
	cache   RateCache              // nil = rate reads go straight to the feed
	log     zerolog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger ports.LedgerService, records ports.RecordRepository, cache RateCache, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, records: records, cache: cache, log: log}
}

// Mint handles POST /api/v1/mint.
func (h *LedgerHandler) Mint(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	rec, err := h.ledger.Mint(c.Request.Context(), ports.MintRequest{
		Caller:       caller,
		Recipient:    dto.MustAddress(req.Recipient),
		Amount:       parseAmount(req.Amount),
		USDAmount:    parseAmount(req.USDAmount),
		ProvidedRate: parseAmount(req.ProvidedRate),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewMintRecordResponse(rec))
}

// Burn handles POST /api/v1/burn.
func (h *LedgerHandler) Burn(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	rec, err := h.ledger.Burn(c.Request.Context(), ports.BurnRequest{
		Caller:     caller,
		Account:    dto.MustAddress(req.Account),
		Amount:     parseAmount(req.Amount),
		MerchantID: req.MerchantID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewBurnRecordResponse(rec))
}

// Transfer handles POST /api/v1/transfer. The caller is always the source.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	to := dto.MustAddress(req.To)
	if err := h.ledger.Transfer(c.Request.Context(), ports.TransferRequest{
		Caller: caller,
		To:     to,
		Amount: parseAmount(req.Amount),
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"from": dto.NewAccountResponse(h.ledger.Account(caller)),
		"to":   dto.NewAccountResponse(h.ledger.Account(to)),
	})
}

// GetAccount handles GET /api/v1/accounts/:address.
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	response.OK(c, dto.NewAccountResponse(h.ledger.Account(addr)))
}

// GetSupply handles GET /api/v1/supply.
func (h *LedgerHandler) GetSupply(c *gin.Context) {
	response.OK(c, dto.NewSupplyResponse(h.ledger.Supply(), h.ledger.Paused()))
}

// GetRoles handles GET /api/v1/roles.
func (h *LedgerHandler) GetRoles(c *gin.Context) {
	roles := h.ledger.Roles()
	response.OK(c, gin.H{
		"admin":    roles.Admin.String(),
		"operator": roles.Operator.String(),
	})
}

// GetMinter handles GET /api/v1/minters/:address.
func (h *LedgerHandler) GetMinter(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	cfg, found := h.ledger.Minter(addr)
	if !found {
		response.Error(c, apperror.ErrNotFound("Minter"))
		return
	}
	response.OK(c, dto.NewMinterResponse(addr, cfg, h.ledger.HasBurnPermission(addr)))
}

// GetOracle handles GET /api/v1/oracle.
func (h *LedgerHandler) GetOracle(c *gin.Context) {
	response.OK(c, dto.NewOracleResponse(h.ledger.OracleState(), h.ledger.RateBounds()))
}

// GetRate handles GET /api/v1/oracle/rate. The rate is validated against
// the feed's staleness window but never becomes the ledger's accepted rate.
func (h *LedgerHandler) GetRate(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		snap, err := h.cache.Get(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("rate cache read failed")
		} else if snap != nil {
			response.OK(c, dto.RateResponse{Rate: dto.NewAmount(snap.Rate), UpdatedAt: snap.UpdatedAt, Cached: true})
			return
		}
	}

	rate, updatedAt, err := h.ledger.PeekRate(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, redisStore.RateSnapshot{Rate: rate, UpdatedAt: updatedAt}); err != nil {
			h.log.Warn().Err(err).Msg("rate cache write failed")
		}
	}

	response.OK(c, dto.RateResponse{Rate: dto.NewAmount(rate), UpdatedAt: updatedAt})
}

// Quote handles GET /api/v1/quote. It converts one side at the current
// feed rate without committing anything.
func (h *LedgerHandler) Quote(c *gin.Context) {
	var q dto.QuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	rate, updatedAt, err := h.ledger.PeekRate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var usd, local *big.Int
	if q.USDAmount != "" {
		usd = parseAmount(q.USDAmount)
		local, err = h.ledger.UsdToLocal(usd, rate)
	} else {
		local = parseAmount(q.LocalAmount)
		usd, err = h.ledger.LocalToUsd(local, rate)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.QuoteResponse{
		USDAmount:   dto.NewAmount(usd),
		LocalAmount: dto.NewAmount(local),
		Rate:        dto.NewAmount(rate),
		UpdatedAt:   updatedAt,
	})
}

// GetMintRecord handles GET /api/v1/records/mint/:key.
func (h *LedgerHandler) GetMintRecord(c *gin.Context) {
	rec, found := h.ledger.MintRecord(domain.RecordKey(c.Param("key")))
	if !found {
		response.Error(c, apperror.ErrNotFound("Mint record"))
		return
	}
	response.OK(c, dto.NewMintRecordResponse(rec))
}

// GetBurnRecord handles GET /api/v1/records/burn/:key.
func (h *LedgerHandler) GetBurnRecord(c *gin.Context) {
	rec, found := h.ledger.BurnRecord(domain.RecordKey(c.Param("key")))
	if !found {
		response.Error(c, apperror.ErrNotFound("Burn record"))
		return
	}
	response.OK(c, dto.NewBurnRecordResponse(rec))
}

// ListMints handles GET /api/v1/records/mints.
func (h *LedgerHandler) ListMints(c *gin.Context) {
	if h.records == nil {
		response.Error(c, apperror.ErrUnavailable("Record listing"))
		return
	}
	params, q, ok := bindRecordQuery(c)
	if !ok {
		return
	}

	recs, total, err := h.records.ListMints(c.Request.Context(), params)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	items := make([]dto.MintRecordResponse, 0, len(recs))
	for i := range recs {
		items = append(items, dto.NewMintRecordResponse(&recs[i]))
	}
	response.OK(c, dto.ListResponse{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// ListBurns handles GET /api/v1/records/burns.
func (h *LedgerHandler) ListBurns(c *gin.Context) {
	if h.records == nil {
		response.Error(c, apperror.ErrUnavailable("Record listing"))
		return
	}
	params, q, ok := bindRecordQuery(c)
	if !ok {
		return
	}

	recs, total, err := h.records.ListBurns(c.Request.Context(), params)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	items := make([]dto.BurnRecordResponse, 0, len(recs))
	for i := range recs {
		items = append(items, dto.NewBurnRecordResponse(&recs[i]))
	}
	response.OK(c, dto.ListResponse{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// ListComplianceActions handles GET /api/v1/compliance/actions, newest
// first.
func (h *LedgerHandler) ListComplianceActions(c *gin.Context) {
	limit := defaultComplianceLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxComplianceLimit {
			response.Error(c, apperror.Validation("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	actions := h.ledger.ComplianceActions(limit)
	items := make([]dto.ComplianceActionResponse, 0, len(actions))
	for _, a := range actions {
		items = append(items, dto.NewComplianceActionResponse(a))
	}
	response.OK(c, items)
}

func bindRecordQuery(c *gin.Context) (ports.RecordListParams, dto.RecordListQuery, bool) {
	var q dto.RecordListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return ports.RecordListParams{}, q, false
	}

	params := ports.RecordListParams{Page: q.Page, PageSize: q.PageSize}
	if q.Account != "" {
		addr := dto.MustAddress(q.Account)
		params.Account = &addr
	}
	if q.From > 0 {
		from := time.Unix(q.From, 0).UTC()
		params.From = &from
	}
	if q.To > 0 {
		to := time.Unix(q.To, 0).UTC()
		params.To = &to
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		response.Error(c, apperror.Validation("to must not be before from"))
		return params, q, false
	}
	return params, q, true
}

func addressParam(c *gin.Context) (domain.Address, bool) {
	addr, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidAddress("address"))
		return "", false
	}
	return addr, true
}

// parseAmount converts a field that already passed the uint_str validator.
func parseAmount(s string) *big.Int {
	v, err := units.ParseBase(s)
	if err != nil {
		return nil
	}
	return v
}
