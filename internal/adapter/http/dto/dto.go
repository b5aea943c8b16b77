// Package dto defines the JSON shapes of the HTTP API. Amounts and rates
// travel as base-unit decimal strings (18 fractional digits implied).
package dto

import (
	"math/big"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/pkg/units"
)

// --- Requests ---

// MintRequest is the request body for POST /mint.
type MintRequest struct {
	Recipient    string `json:"recipient" binding:"required,address"`
	Amount       string `json:"amount" binding:"required,uint_str"`
	USDAmount    string `json:"usd_amount" binding:"required,uint_str"`
	ProvidedRate string `json:"rate" binding:"required,uint_str"`
}

// BurnRequest is the request body for POST /burn. MerchantID is hashed into
// the record key, so it is trimmed but never escaped.
type BurnRequest struct {
	Account    string `json:"account" binding:"required,address"`
	Amount     string `json:"amount" binding:"required,uint_str"`
	MerchantID string `json:"merchant_id" binding:"max=128"`
}

// TransferRequest is the request body for POST /transfer.
type TransferRequest struct {
	To     string `json:"to" binding:"required,address"`
	Amount string `json:"amount" binding:"required,uint_str"`
}

// AddressRequest carries a single address (role holder, oracle source).
type AddressRequest struct {
	Address string `json:"address" binding:"required,address"`
}

// ConfigureMinterRequest is the request body for PUT /admin/minters.
type ConfigureMinterRequest struct {
	Minter    string `json:"minter" binding:"required,address"`
	Allowance string `json:"allowance" binding:"required,uint_str"`
	CanBurn   bool   `json:"can_burn"`
}

// BlacklistRequest is the request body for PUT /admin/blacklist.
type BlacklistRequest struct {
	Account     string `json:"account" binding:"required,address"`
	Blacklisted *bool  `json:"blacklisted" binding:"required"`
}

// FreezeRequest freezes or unfreezes an account. An empty reason is
// rejected by the ledger with its own error code.
type FreezeRequest struct {
	Account string `json:"account" binding:"required,address"`
	Reason  string `json:"reason" binding:"max=256"`
}

// WipeRequest is the request body for POST /admin/wipe.
type WipeRequest struct {
	Account string `json:"account" binding:"required,address"`
	CaseID  string `json:"case_id" binding:"max=128"`
}

// ReasonRequest is the request body for pause and unpause.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=256"`
}

type ToleranceRequest struct {
	Bps *uint64 `json:"bps" binding:"required"`
}

type StalenessRequest struct {
	Seconds *uint64 `json:"seconds" binding:"required"`
}

// SupplyCapRequest sets the cap; "0" removes it.
type SupplyCapRequest struct {
	Cap string `json:"cap" binding:"required,uint_str"`
}

type RateBoundsRequest struct {
	MinRate string `json:"min_rate" binding:"required,uint_str"`
	MaxRate string `json:"max_rate" binding:"required,uint_str"`
}

// RecordListQuery binds GET /records/mints and /records/burns.
type RecordListQuery struct {
	Account  string `form:"account" binding:"omitempty,address"`
	From     int64  `form:"from" binding:"omitempty,min=0"` // Unix seconds
	To       int64  `form:"to" binding:"omitempty,min=0"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// QuoteQuery binds GET /quote. Exactly one amount must be set.
type QuoteQuery struct {
	USDAmount   string `form:"usd_amount" binding:"required_without=LocalAmount,excluded_with=LocalAmount,omitempty,uint_str"`
	LocalAmount string `form:"local_amount" binding:"required_without=USDAmount,omitempty,uint_str"`
}

// --- Responses ---

// Amount pairs a base-unit value with its 18-decimal display form.
type Amount struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// NewAmount renders v; nil renders as zero.
func NewAmount(v *big.Int) Amount {
	if v == nil {
		v = new(big.Int)
	}
	return Amount{Value: v.String(), Display: units.Format(v)}
}

type AccountResponse struct {
	Address     string `json:"address"`
	Balance     Amount `json:"balance"`
	Blacklisted bool   `json:"blacklisted"`
	Frozen      bool   `json:"frozen"`
}

func NewAccountResponse(v ports.AccountView) AccountResponse {
	return AccountResponse{
		Address:     v.Address.String(),
		Balance:     NewAmount(v.Balance),
		Blacklisted: v.Blacklisted,
		Frozen:      v.Frozen,
	}
}

type SupplyResponse struct {
	TotalSupply       Amount `json:"total_supply"`
	SupplyCap         Amount `json:"supply_cap"`
	Capped            bool   `json:"capped"`
	TotalUSDConverted Amount `json:"total_usd_converted"`
	TotalBurned       Amount `json:"total_burned"`
	TotalFrozenWiped  Amount `json:"total_frozen_wiped"`
	Paused            bool   `json:"paused"`
}

func NewSupplyResponse(s ports.SupplyStats, paused bool) SupplyResponse {
	return SupplyResponse{
		TotalSupply:       NewAmount(s.TotalSupply),
		SupplyCap:         NewAmount(s.SupplyCap),
		Capped:            s.SupplyCap != nil && s.SupplyCap.Sign() > 0,
		TotalUSDConverted: NewAmount(s.TotalUSDConverted),
		TotalBurned:       NewAmount(s.TotalBurned),
		TotalFrozenWiped:  NewAmount(s.TotalFrozenWiped),
		Paused:            paused,
	}
}

type MinterResponse struct {
	Minter            string `json:"minter"`
	Active            bool   `json:"active"`
	Allowance         Amount `json:"allowance"`
	Unlimited         bool   `json:"unlimited"`
	CanBurn           bool   `json:"can_burn"`
	HasBurnPermission bool   `json:"has_burn_permission"`
}

func NewMinterResponse(minter domain.Address, cfg domain.MinterConfig, burnPermission bool) MinterResponse {
	return MinterResponse{
		Minter:            minter.String(),
		Active:            cfg.Active,
		Allowance:         NewAmount(cfg.Allowance),
		Unlimited:         cfg.IsUnlimited(),
		CanBurn:           cfg.CanBurn,
		HasBurnPermission: burnPermission,
	}
}

type OracleResponse struct {
	Source                string  `json:"source"`
	SourceDecimals        uint8   `json:"source_decimals"`
	LastAcceptedRate      Amount  `json:"last_accepted_rate"`
	LastAcceptedTimestamp int64   `json:"last_accepted_timestamp"`
	ToleranceBps          uint64  `json:"tolerance_bps"`
	MaxStalenessSeconds   uint64  `json:"max_staleness_seconds"`
	MinRate               *Amount `json:"min_rate,omitempty"`
	MaxRate               *Amount `json:"max_rate,omitempty"`
}

func NewOracleResponse(st domain.OracleState, bounds domain.RateBounds) OracleResponse {
	resp := OracleResponse{
		Source:                st.Source.String(),
		SourceDecimals:        st.SourceDecimals,
		LastAcceptedRate:      NewAmount(st.LastAcceptedRate),
		LastAcceptedTimestamp: st.LastAcceptedTimestamp,
		ToleranceBps:          st.ToleranceBps,
		MaxStalenessSeconds:   uint64(st.MaxStaleness / time.Second),
	}
	if bounds.Min != nil {
		a := NewAmount(bounds.Min)
		resp.MinRate = &a
	}
	if bounds.Max != nil {
		a := NewAmount(bounds.Max)
		resp.MaxRate = &a
	}
	return resp
}

type RateResponse struct {
	Rate      Amount `json:"rate"`
	UpdatedAt int64  `json:"updated_at"`
	Cached    bool   `json:"cached"`
}

type QuoteResponse struct {
	USDAmount   Amount `json:"usd_amount"`
	LocalAmount Amount `json:"local_amount"`
	Rate        Amount `json:"rate"`
	UpdatedAt   int64  `json:"updated_at"`
}

type MintRecordResponse struct {
	Key        string `json:"key"`
	Recipient  string `json:"recipient"`
	Amount     Amount `json:"amount"`
	USDAmount  Amount `json:"usd_amount"`
	Rate       Amount `json:"rate"`
	OracleRate Amount `json:"oracle_rate"`
	Minter     string `json:"minter"`
	Timestamp  string `json:"timestamp"`
}

func NewMintRecordResponse(r *domain.MintRecord) MintRecordResponse {
	return MintRecordResponse{
		Key:        string(r.Key),
		Recipient:  r.Recipient.String(),
		Amount:     NewAmount(r.Amount),
		USDAmount:  NewAmount(r.USDAmount),
		Rate:       NewAmount(r.Rate),
		OracleRate: NewAmount(r.OracleRate),
		Minter:     r.Minter.String(),
		Timestamp:  r.Timestamp.UTC().Format(time.RFC3339),
	}
}

type BurnRecordResponse struct {
	Key        string `json:"key"`
	Account    string `json:"account"`
	Amount     Amount `json:"amount"`
	MerchantID string `json:"merchant_id"`
	Burner     string `json:"burner"`
	Timestamp  string `json:"timestamp"`
}

func NewBurnRecordResponse(r *domain.BurnRecord) BurnRecordResponse {
	return BurnRecordResponse{
		Key:        string(r.Key),
		Account:    r.Account.String(),
		Amount:     NewAmount(r.Amount),
		MerchantID: r.MerchantID,
		Burner:     r.Burner.String(),
		Timestamp:  r.Timestamp.UTC().Format(time.RFC3339),
	}
}

type WipeResponse struct {
	Account string `json:"account"`
	Wiped   Amount `json:"wiped"`
}

type ComplianceActionResponse struct {
	Type    string `json:"type"`
	Actor   string `json:"actor"`
	Account string `json:"account,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Amount  string `json:"amount,omitempty"`
	At      string `json:"at"`
}

func NewComplianceActionResponse(a domain.ComplianceAction) ComplianceActionResponse {
	resp := ComplianceActionResponse{
		Type:   string(a.Type),
		Actor:  a.Actor.String(),
		Reason: a.Reason,
		Amount: a.Amount,
		At:     a.At.UTC().Format(time.RFC3339),
	}
	if !a.Account.IsZero() {
		resp.Account = a.Account.String()
	}
	return resp
}

// ListResponse is the paginated envelope for record listings.
type ListResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// TokenResponse is returned by the token CLI.
type TokenResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}
