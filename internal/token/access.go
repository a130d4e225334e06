package token

import (
	"github.com/volcanocoin/backend/internal/models"
)

// AccessControl answers authorization queries against the fixed role
// set decided at construction: one owner, one admin. There is no
// grant/revoke path; the role set is immutable for the ledger's
// lifetime.
type AccessControl struct {
	owner models.Address
	admin models.Address
}

func NewAccessControl(owner, admin models.Address) *AccessControl {
	return &AccessControl{owner: owner, admin: admin}
}

// IsOwner reports whether account constructed the ledger. The owner is
// not automatically an admin.
func (ac *AccessControl) IsOwner(account models.Address) bool {
	return account == ac.owner
}

// IsAdmin reports whether account holds the admin role.
func (ac *AccessControl) IsAdmin(account models.Address) bool {
	return account == ac.admin
}

func (ac *AccessControl) Owner() models.Address { return ac.owner }

func (ac *AccessControl) Admin() models.Address { return ac.admin }
