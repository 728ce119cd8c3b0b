// Package policy gates catalog writes. Every request passes an ordered list
// of predicates; the first failing predicate stops evaluation, so the coarse
// resource-type gates always run before per-object ownership.
package policy

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/bazaar/internal/models"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

var ErrForbidden = errors.New("forbidden")

// Caller is the authenticated identity a request acts as. Seller is nil when
// the user has no seller profile.
type Caller struct {
	UserID uint
	Role   string
	Seller *models.Seller
}

// Owned is implemented by resources that belong to a seller's user.
type Owned interface {
	OwnerUserID() uint
}

type Predicate func(caller *Caller, action Action, obj any) error

func Evaluate(caller *Caller, action Action, obj any, preds ...Predicate) error {
	for _, p := range preds {
		if err := p(caller, action, obj); err != nil {
			return err
		}
	}
	return nil
}

// SuperuserOrReadOnly permits reads unconditionally and writes only to admins.
func SuperuserOrReadOnly(caller *Caller, action Action, _ any) error {
	if action == ActionRead {
		return nil
	}
	if caller != nil && caller.Role == "admin" {
		return nil
	}
	return fmt.Errorf("admin rights required: %w", ErrForbidden)
}

// VerifiedSellerOrReadOnly permits reads unconditionally and writes only to
// callers with a verified seller profile.
func VerifiedSellerOrReadOnly(caller *Caller, action Action, _ any) error {
	if action == ActionRead {
		return nil
	}
	if caller == nil || caller.Seller == nil {
		return fmt.Errorf("seller profile required: %w", ErrForbidden)
	}
	if !caller.Seller.IsVerified {
		return fmt.Errorf("seller is not verified: %w", ErrForbidden)
	}
	return nil
}

// OwnerOnly permits writes only when the object's owning seller belongs to
// the caller. It is the fine-grained check and expects a coarse predicate
// to have run before it.
func OwnerOnly(caller *Caller, action Action, obj any) error {
	if action == ActionRead {
		return nil
	}
	owned, ok := obj.(Owned)
	if !ok || caller == nil {
		return fmt.Errorf("ownership cannot be established: %w", ErrForbidden)
	}
	if owned.OwnerUserID() != caller.UserID {
		return fmt.Errorf("not the owner: %w", ErrForbidden)
	}
	return nil
}
