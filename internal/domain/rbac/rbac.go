package rbac

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnauthorized = errors.New("rbac: account is missing required role")

// Role is a named capability granted to an account identity.
type Role string

const (
	RoleProduct  Role = "PRODUCT_ROLE"
	RoleWorkflow Role = "WORKFLOW_ROLE"
	RoleCourier  Role = "COURIER_ROLE"
)

// Authorizer maps {role, identity} pairs to grants. Grants must be visible to
// any authorization check that starts after Grant returns.
type Authorizer interface {
	Grant(ctx context.Context, role Role, identity string) error
	Has(ctx context.Context, role Role, identity string) (bool, error)
}

// Require returns ErrUnauthorized (wrapped with the role and identity) when the
// identity does not hold the role.
func Require(ctx context.Context, auth Authorizer, role Role, identity string) error {
	ok, err := auth.Has(ctx, role, identity)
	if err != nil {
		return fmt.Errorf("rbac: check %s for %s: %w", role, identity, err)
	}
	if !ok {
		return fmt.Errorf("%w: account %s is missing role %s", ErrUnauthorized, identity, role)
	}
	return nil
}
