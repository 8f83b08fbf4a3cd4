package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/alxiri/fulfillment/internal/domain/rbac"
)

// RoleStore is an in-memory rbac.Authorizer. A grant is visible to every Has
// call that starts after Grant returns.
type RoleStore struct {
	mu     sync.RWMutex
	grants map[domain.Role]map[string]struct{}
}

func NewRoleStore() *RoleStore {
	return &RoleStore{
		grants: make(map[domain.Role]map[string]struct{}),
	}
}

func (s *RoleStore) Grant(ctx context.Context, role domain.Role, identity string) error {
	_ = ctx
	if identity == "" {
		return fmt.Errorf("role store: identity is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holders, ok := s.grants[role]
	if !ok {
		holders = make(map[string]struct{})
		s.grants[role] = holders
	}
	holders[identity] = struct{}{}
	return nil
}

func (s *RoleStore) Has(ctx context.Context, role domain.Role, identity string) (bool, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.grants[role][identity]
	return ok, nil
}
