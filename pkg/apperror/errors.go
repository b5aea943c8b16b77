package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string            `json:"error_code"`
	Message    string            `json:"message"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"` // Numeric context, e.g. cap and attempted supply
	Err        error             `json:"-"`                 // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s %v", msg, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// With attaches a detail key/value and returns the same error.
func (e *AppError) With(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Error codes.
const (
	CodeInvalidAddress         = "VAL_001"
	CodeInvalidAmount          = "VAL_002"
	CodeIncidentReasonRequired = "VAL_003"
	CodeInvalidRate            = "VAL_004"
	CodeInvalidTolerance       = "VAL_005"
	CodeInvalidRequest         = "VAL_006"

	CodeNotAdmin            = "AUTH_001"
	CodeNotAuthorizedMinter = "AUTH_002"
	CodeInvalidToken        = "AUTH_003"

	CodePaused               = "CMP_001"
	CodeNotPaused            = "CMP_002"
	CodeAccountBlacklisted   = "CMP_003"
	CodeAccountFrozen        = "CMP_004"
	CodeAccountAlreadyFrozen = "CMP_005"
	CodeAccountNotFrozen     = "CMP_006"

	CodeMintAllowanceExceeded = "ECO_001"
	CodeSupplyCapExceeded     = "ECO_002"
	CodeInsufficientBalance   = "ECO_003"
	CodeAmountMismatch        = "ECO_004"
	CodeDuplicateRecord       = "ECO_005"

	CodeOracleNotConfigured   = "ORC_001"
	CodeOracleRateInvalid     = "ORC_002"
	CodeOracleStale           = "ORC_003"
	CodeRateToleranceExceeded = "ORC_004"

	CodeNonceUsed         = "SEC_001"
	CodeRateLimitExceeded = "RATE_001"
	CodeInternal          = "SYS_001"
	CodeUnavailable       = "SYS_002"
	CodeNotFound          = "SYS_003"
)

// ---- Input Validation (VAL) ----

func ErrInvalidAddress(field string) *AppError {
	return New(CodeInvalidAddress, "Invalid address", http.StatusBadRequest).With("field", field)
}

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Invalid amount", http.StatusBadRequest)
}

func ErrIncidentReasonRequired() *AppError {
	return New(CodeIncidentReasonRequired, "Incident reason is required", http.StatusBadRequest)
}

func ErrInvalidRate(rate string) *AppError {
	return New(CodeInvalidRate, "Rate outside configured bounds", http.StatusBadRequest).With("rate", rate)
}

func ErrInvalidTolerance(bps uint64) *AppError {
	return New(CodeInvalidTolerance, "Tolerance must be between 0 and 10000 bps", http.StatusBadRequest).
		With("tolerance_bps", fmt.Sprint(bps))
}

// Validation returns a VAL_006 request validation error.
func Validation(message string) *AppError {
	return New(CodeInvalidRequest, message, http.StatusBadRequest)
}

// ---- Authorization (AUTH) ----

func ErrNotAdmin() *AppError {
	return New(CodeNotAdmin, "Caller is not the admin", http.StatusForbidden)
}

func ErrNotAuthorizedMinter() *AppError {
	return New(CodeNotAuthorizedMinter, "Caller is not an authorized minter", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Compliance (CMP) ----

func ErrPaused() *AppError {
	return New(CodePaused, "Ledger is paused", http.StatusLocked)
}

func ErrNotPaused() *AppError {
	return New(CodeNotPaused, "Ledger is not paused", http.StatusConflict)
}

func ErrAccountBlacklisted(account string) *AppError {
	return New(CodeAccountBlacklisted, "Account is blacklisted", http.StatusForbidden).With("account", account)
}

func ErrAccountFrozen(account string) *AppError {
	return New(CodeAccountFrozen, "Account is frozen", http.StatusForbidden).With("account", account)
}

func ErrAccountAlreadyFrozen(account string) *AppError {
	return New(CodeAccountAlreadyFrozen, "Account is already frozen", http.StatusConflict).With("account", account)
}

func ErrAccountNotFrozen(account string) *AppError {
	return New(CodeAccountNotFrozen, "Account is not frozen", http.StatusConflict).With("account", account)
}

// ---- Economic Invariants (ECO) ----

func ErrMintAllowanceExceeded(allowance, requested string) *AppError {
	return New(CodeMintAllowanceExceeded, "Mint allowance exceeded", http.StatusUnprocessableEntity).
		With("allowance", allowance).
		With("requested", requested)
}

func ErrSupplyCapExceeded(supplyCap, attempted string) *AppError {
	return New(CodeSupplyCapExceeded, "Supply cap exceeded", http.StatusUnprocessableEntity).
		With("cap", supplyCap).
		With("attempted", attempted)
}

func ErrInsufficientBalance(balance, requested string) *AppError {
	return New(CodeInsufficientBalance, "Insufficient balance", http.StatusUnprocessableEntity).
		With("balance", balance).
		With("requested", requested)
}

func ErrAmountMismatch(expected, provided string) *AppError {
	return New(CodeAmountMismatch, "Amount does not match oracle conversion", http.StatusUnprocessableEntity).
		With("expected", expected).
		With("provided", provided)
}

// ErrDuplicateRecord reports a record key collision. Record timestamps have
// one-second resolution, so identical requests within the same second collide.
func ErrDuplicateRecord(key string) *AppError {
	return New(CodeDuplicateRecord,
		"Audit record already exists; identical requests within the same second share a record key",
		http.StatusConflict).
		With("record_key", key).
		With("timestamp_resolution", "1s")
}

// ---- Oracle (ORC) ----

func ErrOracleNotConfigured() *AppError {
	return New(CodeOracleNotConfigured, "Oracle source not configured", http.StatusServiceUnavailable)
}

func ErrOracleRateInvalid(reason string) *AppError {
	return New(CodeOracleRateInvalid, "Oracle rate invalid", http.StatusServiceUnavailable).With("reason", reason)
}

// OracleRateInvalid wraps a source failure (transport error, timeout) as ORC_002.
func OracleRateInvalid(reason string, err error) *AppError {
	return Wrap(CodeOracleRateInvalid, "Oracle rate invalid", http.StatusServiceUnavailable, err).With("reason", reason)
}

func ErrOracleStale(updatedAt, now int64) *AppError {
	return New(CodeOracleStale, "Oracle rate is stale", http.StatusServiceUnavailable).
		With("updated_at", fmt.Sprint(updatedAt)).
		With("now", fmt.Sprint(now))
}

func ErrRateToleranceExceeded(oracleRate, providedRate string) *AppError {
	return New(CodeRateToleranceExceeded, "Provided rate outside oracle tolerance", http.StatusUnprocessableEntity).
		With("oracle_rate", oracleRate).
		With("provided_rate", providedRate)
}

// ---- Transport (SEC / RATE) ----

func ErrNonceUsed() *AppError {
	return New(CodeNonceUsed, "Nonce has already been used", http.StatusForbidden)
}

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// ErrUnavailable reports a feature whose backing store is not configured.
func ErrUnavailable(feature string) *AppError {
	return New(CodeUnavailable, fmt.Sprintf("%s is not available", feature), http.StatusServiceUnavailable)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}
