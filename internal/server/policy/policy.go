// Package policy decides whether an authenticated caller may perform an
// operation on a user record.
//
// Any authenticated caller may read, list, update and activate any record.
// The only hard rules are that a caller cannot delete or deactivate their
// own account, and can change only their own password. There is no admin
// role.
package policy

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Operation string

const (
	OpList           Operation = "list"
	OpRead           Operation = "read"
	OpCreate         Operation = "create"
	OpUpdate         Operation = "update"
	OpDelete         Operation = "delete"
	OpDeactivate     Operation = "deactivate"
	OpActivate       Operation = "activate"
	OpChangePassword Operation = "change_password"
)

var (
	ErrSelfDelete       = fmt.Errorf("%w: you cannot delete your own account", common.ErrForbiddenAction)
	ErrSelfDeactivate   = fmt.Errorf("%w: you cannot deactivate your own account", common.ErrForbiddenAction)
	ErrForeignPassword  = fmt.Errorf("%w: you can only change your own password", common.ErrForbiddenAction)
	ErrUnknownOperation = fmt.Errorf("%w: unknown operation", common.ErrForbiddenAction)
)

// CanAct reports whether actor may perform op on the record targetID.
func CanAct(actor models.Identity, targetID int64, op Operation) bool {
	return Authorize(actor, targetID, op) == nil
}

// Authorize is CanAct with the denial reason. Every denial wraps
// common.ErrForbiddenAction.
func Authorize(actor models.Identity, targetID int64, op Operation) error {
	self := actor.ID == targetID

	switch op {
	case OpList, OpRead, OpCreate, OpUpdate, OpActivate:
		return nil
	case OpDelete:
		if self {
			return ErrSelfDelete
		}
		return nil
	case OpDeactivate:
		if self {
			return ErrSelfDeactivate
		}
		return nil
	case OpChangePassword:
		if !self {
			return ErrForeignPassword
		}
		return nil
	default:
		return ErrUnknownOperation
	}
}

// Administrative reports whether op on targetID touches somebody else's
// record. Such calls are allowed but get logged.
func Administrative(actor models.Identity, targetID int64, op Operation) bool {
	if actor.ID == targetID {
		return false
	}
	switch op {
	case OpUpdate, OpDelete, OpDeactivate, OpActivate:
		return true
	}
	return false
}
