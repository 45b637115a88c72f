// Package container provides a hierarchical service registry that resolves tokens to instances,
// factories, or singletons.
//
// Each Container can have a parent. A lookup that finds nothing at one level falls back to the
// parent, so a test can create a child container, override a few services in it, and leave the
// parent untouched. Parents know nothing about their children.
package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Factory creates a service value. It receives the container that it was registered in, so it
// can resolve its own dependencies.
type Factory func(*Container) (interface{}, error)

type factoryRegistration struct {
	factory   Factory
	singleton bool
}

// Container is a service registry. The zero value is not usable; call New.
type Container struct {
	parent     *Container
	instances  map[Token]interface{}
	factories  map[Token]factoryRegistration
	singletons map[Token]interface{}
	lock       sync.Mutex
}

// New creates a root container.
func New() *Container {
	return newContainer(nil)
}

func newContainer(parent *Container) *Container {
	return &Container{
		parent:     parent,
		instances:  make(map[Token]interface{}),
		factories:  make(map[Token]factoryRegistration),
		singletons: make(map[Token]interface{}),
	}
}

// Parent returns the container's parent, or nil for a root container.
func (c *Container) Parent() *Container {
	return c.parent
}

// Register binds a value that will be returned unchanged by every Resolve.
func (c *Container) Register(token Token, instance interface{}) {
	c.lock.Lock()
	c.instances[token] = instance
	c.lock.Unlock()
}

// RegisterFactory binds a factory. Unless singleton is true, any singleton value previously
// cached for the token is discarded, since the caller is asking for a fresh value each time.
func (c *Container) RegisterFactory(token Token, factory Factory, singleton bool) {
	c.lock.Lock()
	c.factories[token] = factoryRegistration{factory: factory, singleton: singleton}
	if !singleton {
		delete(c.singletons, token)
	}
	c.lock.Unlock()
}

// RegisterSingleton stores a value directly in the singleton cache.
func (c *Container) RegisterSingleton(token Token, instance interface{}) {
	c.lock.Lock()
	c.singletons[token] = instance
	c.lock.Unlock()
}

// RegisterSingletonFactory binds a factory whose first result is cached for the lifetime of
// the container.
func (c *Container) RegisterSingletonFactory(token Token, factory Factory) {
	c.RegisterFactory(token, factory, true)
}

// Resolve returns the value for a token.
//
// At each level, a cached singleton wins over a factory, and a factory wins over an instance.
// If the level has none of these, the lookup continues with the parent. A parent resolves the
// token on its own terms: it never sees registrations made in a child.
func (c *Container) Resolve(token Token) (interface{}, error) {
	for level := c; level != nil; level = level.parent {
		value, found, err := level.resolveLocal(token)
		if found || err != nil {
			return value, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrServiceNotRegistered, token)
}

// MustResolve is like Resolve but panics on failure.
func (c *Container) MustResolve(token Token) interface{} {
	value, err := c.Resolve(token)
	if err != nil {
		panic(err)
	}
	return value
}

func (c *Container) resolveLocal(token Token) (interface{}, bool, error) {
	c.lock.Lock()
	if value, ok := c.singletons[token]; ok {
		c.lock.Unlock()
		return value, true, nil
	}
	if reg, ok := c.factories[token]; ok {
		c.lock.Unlock()
		// The lock is not held while the factory runs, so that it can resolve other tokens.
		value, err := reg.factory(c)
		if err != nil {
			return nil, true, fmt.Errorf("factory for %q failed: %w", token, err)
		}
		if reg.singleton {
			c.lock.Lock()
			if cached, ok := c.singletons[token]; ok {
				value = cached
			} else {
				c.singletons[token] = value
			}
			c.lock.Unlock()
		}
		return value, true, nil
	}
	if value, ok := c.instances[token]; ok {
		c.lock.Unlock()
		return value, true, nil
	}
	c.lock.Unlock()
	return nil, false, nil
}

// HasRegistration reports whether the token is registered in any form at this level or in any
// ancestor.
func (c *Container) HasRegistration(token Token) bool {
	for level := c; level != nil; level = level.parent {
		if level.hasLocal(token) {
			return true
		}
	}
	return false
}

func (c *Container) hasLocal(token Token) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.instances[token]; ok {
		return true
	}
	if _, ok := c.factories[token]; ok {
		return true
	}
	_, ok := c.singletons[token]
	return ok
}

// Unregister removes every registration of the token at this level. Ancestors are unaffected.
func (c *Container) Unregister(token Token) {
	c.lock.Lock()
	delete(c.instances, token)
	delete(c.factories, token)
	delete(c.singletons, token)
	c.lock.Unlock()
}

// Clear removes all registrations at this level. Ancestors are unaffected.
func (c *Container) Clear() {
	c.lock.Lock()
	c.instances = make(map[Token]interface{})
	c.factories = make(map[Token]factoryRegistration)
	c.singletons = make(map[Token]interface{})
	c.lock.Unlock()
}

// ResolveAll returns one value for each distinct token accepted by the predicate, starting with
// this container and continuing up the parent chain.
//
// Within one level, instance registrations are collected first, then factories, then
// singletons, each in token order; a token that was already collected is skipped. Tokens found
// at a lower level hide the same token in an ancestor.
func (c *Container) ResolveAll(predicate func(Token) bool) ([]interface{}, error) {
	seen := make(map[Token]bool)
	var ret []interface{}
	for level := c; level != nil; level = level.parent {
		values, err := level.resolveAllLocal(predicate, seen)
		if err != nil {
			return nil, err
		}
		ret = append(ret, values...)
	}
	return ret, nil
}

func (c *Container) resolveAllLocal(predicate func(Token) bool, seen map[Token]bool) ([]interface{}, error) {
	c.lock.Lock()
	instanceTokens := sortedTokens(c.instances)
	instanceValues := make(map[Token]interface{}, len(c.instances))
	for k, v := range c.instances {
		instanceValues[k] = v
	}
	factoryTokens := make([]Token, 0, len(c.factories))
	for k := range c.factories {
		factoryTokens = append(factoryTokens, k)
	}
	sort.Slice(factoryTokens, func(i, j int) bool { return factoryTokens[i] < factoryTokens[j] })
	singletonTokens := sortedTokens(c.singletons)
	c.lock.Unlock()

	var ret []interface{}
	for _, token := range instanceTokens {
		if seen[token] || !predicate(token) {
			continue
		}
		seen[token] = true
		ret = append(ret, instanceValues[token])
	}
	for _, group := range [][]Token{factoryTokens, singletonTokens} {
		for _, token := range group {
			if seen[token] || !predicate(token) {
				continue
			}
			seen[token] = true
			value, found, err := c.resolveLocal(token)
			if err != nil {
				return nil, err
			}
			if found {
				ret = append(ret, value)
			}
		}
	}
	return ret, nil
}

func sortedTokens(m map[Token]interface{}) []Token {
	ret := make([]Token, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// CreateScope returns a new, empty container whose parent is c.
func (c *Container) CreateScope() *Container {
	return newContainer(c)
}

// CreateChild returns a new container whose parent is c, with each of the overrides registered
// as an instance in the child.
func (c *Container) CreateChild(overrides map[Token]interface{}) *Container {
	child := newContainer(c)
	for token, value := range overrides {
		child.instances[token] = value
	}
	return child
}

// ResolveAs resolves a token and checks that the value has type T.
func ResolveAs[T any](c *Container, token Token) (T, error) {
	var zero T
	value, err := c.Resolve(token)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q resolved to %T, wanted %s",
			ErrServiceTypeMismatch, token, value, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
