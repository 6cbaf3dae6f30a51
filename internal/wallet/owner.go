package wallet

import (
	"context"
	"fmt"
	"sync"
)

// OwnerResolver checks that an owner id exists for one owner type. It is the
// lookup capability the host application registers per type tag.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, id string) error
}

// OwnerResolverFunc adapts a function to the OwnerResolver interface.
type OwnerResolverFunc func(ctx context.Context, id string) error

func (f OwnerResolverFunc) ResolveOwner(ctx context.Context, id string) error {
	return f(ctx, id)
}

// OwnerRegistry maps owner type tags to resolvers. Wallets reference owners
// dynamically by (type, id); registering a resolver lets the engine verify
// the referenced entity before a wallet is created for it. Type tags with no
// registered resolver pass through unchecked, matching an empty morph map.
type OwnerRegistry struct {
	mu        sync.RWMutex
	resolvers map[string]OwnerResolver
}

// NewOwnerRegistry builds an empty registry.
func NewOwnerRegistry() *OwnerRegistry {
	return &OwnerRegistry{resolvers: make(map[string]OwnerResolver)}
}

// Register binds a resolver to an owner type tag, replacing any previous one.
func (r *OwnerRegistry) Register(typeTag string, resolver OwnerResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[typeTag] = resolver
}

// Resolve verifies the owner reference. A nil registry accepts everything.
func (r *OwnerRegistry) Resolve(ctx context.Context, owner OwnerRef) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	resolver, ok := r.resolvers[owner.Type]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := resolver.ResolveOwner(ctx, owner.ID); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOwnerNotFound, owner, err)
	}
	return nil
}
