package service

import (
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/pkg/apperror"
)

// RoleRegistry holds the Admin and Operator slots.
//
// Command methods validate and return the events a change would produce;
// they never mutate. Apply performs the mutation once the events are
// journaled. The Ledger serializes both.
type RoleRegistry struct {
	roles domain.Roles
}

// NewRoleRegistry creates an empty RoleRegistry.
func NewRoleRegistry() *RoleRegistry {
	return &RoleRegistry{}
}

func (r *RoleRegistry) Admin() domain.Address    { return r.roles.Admin }
func (r *RoleRegistry) Operator() domain.Address { return r.roles.Operator }
func (r *RoleRegistry) Roles() domain.Roles      { return r.roles }

// IsAdmin reports whether account holds the Admin slot.
func (r *RoleRegistry) IsAdmin(account domain.Address) bool {
	return !account.IsZero() && account == r.roles.Admin
}

// IsOperator reports whether account holds the Operator slot.
func (r *RoleRegistry) IsOperator(account domain.Address) bool {
	return !account.IsZero() && account == r.roles.Operator
}

// RequireAdmin fails with NotAdmin unless caller is the Admin.
func (r *RoleRegistry) RequireAdmin(caller domain.Address) error {
	if !r.IsAdmin(caller) {
		return apperror.ErrNotAdmin()
	}
	return nil
}

// TransferAdmin moves the Admin slot to newAdmin.
func (r *RoleRegistry) TransferAdmin(caller, newAdmin domain.Address) ([]domain.Event, error) {
	if err := r.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if newAdmin.IsZero() {
		return nil, apperror.ErrInvalidAddress("new_admin")
	}
	return []domain.Event{domain.AdminTransferred{Previous: r.roles.Admin, New: newAdmin}}, nil
}

// TransferOperator moves the Operator slot to newOperator. Minter
// configuration is unaffected.
func (r *RoleRegistry) TransferOperator(caller, newOperator domain.Address) ([]domain.Event, error) {
	if err := r.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if newOperator.IsZero() {
		return nil, apperror.ErrInvalidAddress("new_operator")
	}
	return []domain.Event{domain.OperatorTransferred{Previous: r.roles.Operator, New: newOperator}}, nil
}

// Apply mutates role state for a committed event.
func (r *RoleRegistry) Apply(ev domain.Event, _ domain.EventMeta) {
	switch e := ev.(type) {
	case domain.LedgerInitialized:
		r.roles = domain.Roles{Admin: e.Admin, Operator: e.Operator}
	case domain.AdminTransferred:
		r.roles.Admin = e.New
	case domain.OperatorTransferred:
		r.roles.Operator = e.New
	}
}
