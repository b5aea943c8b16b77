package service

import (
	"math/big"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/pkg/apperror"
)

// MinterRegistry holds per-minter allowances and burn rights.
// Only active configs are stored; removal deletes the entry.
type MinterRegistry struct {
	roles   *RoleRegistry
	minters map[domain.Address]domain.MinterConfig
}

// NewMinterRegistry creates an empty MinterRegistry.
func NewMinterRegistry(roles *RoleRegistry) *MinterRegistry {
	return &MinterRegistry{
		roles:   roles,
		minters: make(map[domain.Address]domain.MinterConfig),
	}
}

// ConfigureMinter upserts a minter config. The minter need not exist.
func (m *MinterRegistry) ConfigureMinter(caller, minter domain.Address, allowance *big.Int, canBurn bool) ([]domain.Event, error) {
	if err := m.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if minter.IsZero() {
		return nil, apperror.ErrInvalidAddress("minter")
	}
	if !domain.InRange(allowance) {
		return nil, apperror.ErrInvalidAmount()
	}
	return []domain.Event{domain.MinterConfigured{
		Minter:    minter,
		Allowance: domain.Copy(allowance),
		CanBurn:   canBurn,
	}}, nil
}

// RemoveMinter deactivates a minter. Removing an inactive minter is a
// silent no-op and yields no events.
func (m *MinterRegistry) RemoveMinter(caller, minter domain.Address) ([]domain.Event, error) {
	if err := m.roles.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if !m.IsActive(minter) {
		return nil, nil
	}
	return []domain.Event{domain.MinterRemoved{Minter: minter}}, nil
}

// ConsumeAllowance checks a mint of amount against the minter's allowance
// and returns the event recording the decrement. Unlimited allowances
// produce no event.
func (m *MinterRegistry) ConsumeAllowance(minter domain.Address, amount *big.Int) ([]domain.Event, error) {
	cfg, ok := m.minters[minter]
	if !ok || !cfg.Active {
		return nil, apperror.ErrNotAuthorizedMinter()
	}
	if cfg.IsUnlimited() {
		return nil, nil
	}
	if cfg.Allowance.Cmp(amount) < 0 {
		return nil, apperror.ErrMintAllowanceExceeded(cfg.Allowance.String(), amount.String())
	}
	return []domain.Event{domain.AllowanceConsumed{
		Minter:    minter,
		Amount:    domain.Copy(amount),
		Remaining: new(big.Int).Sub(cfg.Allowance, amount),
	}}, nil
}

// IsActive reports whether minter holds an active config.
func (m *MinterRegistry) IsActive(minter domain.Address) bool {
	cfg, ok := m.minters[minter]
	return ok && cfg.Active
}

// HasBurnPermission is true for the Operator, or for an active minter
// with canBurn. It is the only burn authorization check.
func (m *MinterRegistry) HasBurnPermission(account domain.Address) bool {
	if m.roles.IsOperator(account) {
		return true
	}
	cfg, ok := m.minters[account]
	return ok && cfg.Active && cfg.CanBurn
}

// Get returns a copy of the minter's config.
func (m *MinterRegistry) Get(minter domain.Address) (domain.MinterConfig, bool) {
	cfg, ok := m.minters[minter]
	if !ok {
		return domain.MinterConfig{Allowance: new(big.Int)}, false
	}
	return cfg.Clone(), true
}

// Apply mutates minter state for a committed event.
func (m *MinterRegistry) Apply(ev domain.Event, _ domain.EventMeta) {
	switch e := ev.(type) {
	case domain.LedgerInitialized:
		m.minters[e.Operator] = domain.MinterConfig{
			Allowance: domain.Copy(domain.UnlimitedAllowance),
			CanBurn:   true,
			Active:    true,
		}
	case domain.MinterConfigured:
		m.minters[e.Minter] = domain.MinterConfig{
			Allowance: domain.Copy(e.Allowance),
			CanBurn:   e.CanBurn,
			Active:    true,
		}
	case domain.MinterRemoved:
		delete(m.minters, e.Minter)
	case domain.AllowanceConsumed:
		if cfg, ok := m.minters[e.Minter]; ok {
			cfg.Allowance = domain.Copy(e.Remaining)
			m.minters[e.Minter] = cfg
		}
	}
}
