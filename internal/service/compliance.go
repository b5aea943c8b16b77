package service

import (
	"strings"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/pkg/apperror"
)

// maxComplianceActions bounds the in-memory action log. The persistent
// copy goes through the audit service.
const maxComplianceActions = 10000

// ComplianceRegistry holds the blacklist and freeze sets and the global
// pause flag.
type ComplianceRegistry struct {
	roles       *RoleRegistry
	blacklisted map[domain.Address]bool
	frozen      map[domain.Address]string // account -> freeze reason
	paused      bool
	actions     []domain.ComplianceAction
}

// NewComplianceRegistry creates an unpaused registry with no flags set.
func NewComplianceRegistry(roles *RoleRegistry) *ComplianceRegistry {
	return &ComplianceRegistry{
		roles:       roles,
		blacklisted: make(map[domain.Address]bool),
		frozen:      make(map[domain.Address]string),
	}
}

// SetBlacklist sets or clears the blacklist flag. Setting the current
// value is a silent success with no events.
func (c *ComplianceRegistry) SetBlacklist(caller, account domain.Address, flag bool) ([]domain.Event, error) {
	if err := c.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if account.IsZero() {
		return nil, apperror.ErrInvalidAddress("account")
	}
	if c.blacklisted[account] == flag {
		return nil, nil
	}
	return []domain.Event{domain.BlacklistUpdated{Account: account, Blacklisted: flag}}, nil
}

// SetFreeze freezes account under an incident reason.
func (c *ComplianceRegistry) SetFreeze(caller, account domain.Address, reason string) ([]domain.Event, error) {
	if err := c.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if account.IsZero() {
		return nil, apperror.ErrInvalidAddress("account")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.ErrIncidentReasonRequired()
	}
	if c.IsFrozen(account) {
		return nil, apperror.ErrAccountAlreadyFrozen(account.String())
	}
	return []domain.Event{domain.AccountFrozen{Account: account, Reason: reason}}, nil
}

// ClearFreeze unfreezes account under an incident reason.
func (c *ComplianceRegistry) ClearFreeze(caller, account domain.Address, reason string) ([]domain.Event, error) {
	if err := c.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if account.IsZero() {
		return nil, apperror.ErrInvalidAddress("account")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.ErrIncidentReasonRequired()
	}
	if !c.IsFrozen(account) {
		return nil, apperror.ErrAccountNotFrozen(account.String())
	}
	return []domain.Event{domain.AccountUnfrozen{Account: account, Reason: reason}}, nil
}

// Pause sets the global pause flag.
func (c *ComplianceRegistry) Pause(caller domain.Address, reason string) ([]domain.Event, error) {
	if err := c.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.ErrIncidentReasonRequired()
	}
	if c.paused {
		return nil, apperror.ErrPaused()
	}
	return []domain.Event{domain.Paused{Reason: reason}}, nil
}

// Unpause clears the global pause flag.
func (c *ComplianceRegistry) Unpause(caller domain.Address, reason string) ([]domain.Event, error) {
	if err := c.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.ErrIncidentReasonRequired()
	}
	if !c.paused {
		return nil, apperror.ErrNotPaused()
	}
	return []domain.Event{domain.Unpaused{Reason: reason}}, nil
}

// RequireNotPaused fails with Paused while the pause flag is set.
func (c *ComplianceRegistry) RequireNotPaused() error {
	if c.paused {
		return apperror.ErrPaused()
	}
	return nil
}

// CheckAccount applies the per-address guard: blacklist, then freeze.
func (c *ComplianceRegistry) CheckAccount(account domain.Address) error {
	if c.blacklisted[account] {
		return apperror.ErrAccountBlacklisted(account.String())
	}
	if c.IsFrozen(account) {
		return apperror.ErrAccountFrozen(account.String())
	}
	return nil
}

// CheckTransfer applies the full guard precedence for a balance move:
// pause, then the source, then the destination. A zero source (mint) or
// destination (burn) skips that side.
func (c *ComplianceRegistry) CheckTransfer(from, to domain.Address) error {
	if err := c.RequireNotPaused(); err != nil {
		return err
	}
	if !from.IsZero() {
		if err := c.CheckAccount(from); err != nil {
			return err
		}
	}
	if !to.IsZero() {
		if err := c.CheckAccount(to); err != nil {
			return err
		}
	}
	return nil
}

func (c *ComplianceRegistry) IsBlacklisted(account domain.Address) bool {
	return c.blacklisted[account]
}
func (c *ComplianceRegistry) Paused() bool { return c.paused }

// IsFrozen reports whether account is frozen.
func (c *ComplianceRegistry) IsFrozen(account domain.Address) bool {
	_, ok := c.frozen[account]
	return ok
}

// FreezeReason returns the reason account was frozen under.
func (c *ComplianceRegistry) FreezeReason(account domain.Address) (string, bool) {
	r, ok := c.frozen[account]
	return r, ok
}

// Actions returns up to limit of the most recent compliance actions,
// newest first. limit <= 0 returns all retained actions.
func (c *ComplianceRegistry) Actions(limit int) []domain.ComplianceAction {
	n := len(c.actions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.ComplianceAction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, c.actions[i])
	}
	return out
}

// Apply mutates compliance state for a committed event.
func (c *ComplianceRegistry) Apply(ev domain.Event, meta domain.EventMeta) {
	switch e := ev.(type) {
	case domain.BlacklistUpdated:
		if e.Blacklisted {
			c.blacklisted[e.Account] = true
		} else {
			delete(c.blacklisted, e.Account)
		}
	case domain.AccountFrozen:
		c.frozen[e.Account] = e.Reason
	case domain.AccountUnfrozen:
		delete(c.frozen, e.Account)
	case domain.Paused:
		c.paused = true
	case domain.Unpaused:
		c.paused = false
	}

	if action, ok := complianceAction(ev, meta); ok {
		c.actions = append(c.actions, action)
		if len(c.actions) > maxComplianceActions {
			c.actions = c.actions[len(c.actions)-maxComplianceActions:]
		}
	}
}

// complianceAction maps an event to its action log entry, if it has one.
func complianceAction(ev domain.Event, meta domain.EventMeta) (domain.ComplianceAction, bool) {
	a := domain.ComplianceAction{Actor: meta.Actor, At: meta.At}
	switch e := ev.(type) {
	case domain.BlacklistUpdated:
		a.Type = domain.ComplianceActionUnblacklist
		if e.Blacklisted {
			a.Type = domain.ComplianceActionBlacklist
		}
		a.Account = e.Account
	case domain.AccountFrozen:
		a.Type, a.Account, a.Reason = domain.ComplianceActionFreeze, e.Account, e.Reason
	case domain.AccountUnfrozen:
		a.Type, a.Account, a.Reason = domain.ComplianceActionUnfreeze, e.Account, e.Reason
	case domain.FrozenFundsWiped:
		a.Type, a.Account, a.Reason = domain.ComplianceActionWipe, e.Account, e.CaseID
		a.Amount = e.Amount.String()
	case domain.Paused:
		a.Type, a.Reason = domain.ComplianceActionPause, e.Reason
	case domain.Unpaused:
		a.Type, a.Reason = domain.ComplianceActionUnpause, e.Reason
	default:
		return domain.ComplianceAction{}, false
	}
	return a, true
}
