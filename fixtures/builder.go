package fixtures

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/framework"
)

// Factory creates one entity of some type. The custom value is an object (possibly empty) of
// caller-supplied fields. A factory does not record the entity itself; Builder does that.
type Factory func(
	ctx context.Context,
	client apiclient.Client,
	custom ldvalue.Value,
	testContext *TestDataContext,
) (*Entity, error)

// Builder creates entities for one test and cleans them up afterward.
type Builder struct {
	client      apiclient.Client
	testContext *TestDataContext
	factories   map[string]Factory
	logger      framework.Logger
	lock        sync.Mutex
}

// NewBuilder creates a Builder that issues requests through client and records entities in
// testContext. The built-in user, product and order factories are registered already.
func NewBuilder(client apiclient.Client, testContext *TestDataContext, logger framework.Logger) *Builder {
	if logger == nil {
		logger = framework.NullLogger()
	}
	b := &Builder{
		client:      client,
		testContext: testContext,
		factories:   make(map[string]Factory),
		logger:      logger,
	}
	b.RegisterFactory(TypeUser, createUserEntity)
	b.RegisterFactory(TypeProduct, createProductEntity)
	b.RegisterFactory(TypeOrder, createOrderEntity)
	return b
}

// TestContext returns the context that created entities are recorded in.
func (b *Builder) TestContext() *TestDataContext {
	return b.testContext
}

// RegisterFactory sets the factory for an entity type, replacing any previous one.
func (b *Builder) RegisterFactory(entityType string, factory Factory) {
	b.lock.Lock()
	b.factories[entityType] = factory
	b.lock.Unlock()
}

// CreateEntity creates one entity with the registered factory for entityType and records it.
// custom may be a null value, which is treated as an empty object.
func (b *Builder) CreateEntity(ctx context.Context, entityType string, custom ldvalue.Value) (*Entity, error) {
	b.lock.Lock()
	factory, ok := b.factories[entityType]
	b.lock.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
	if custom.IsNull() {
		custom = ldvalue.ObjectBuild().Build()
	}

	entity, err := factory(ctx, b.client, custom, b.testContext)
	if err != nil {
		return nil, err
	}
	b.testContext.add(entity)
	b.logger.Printf("Created %s", entity)
	return entity, nil
}

// CreateEntities creates count entities one after another. If customFn is not nil, it supplies
// the custom data for each index. Creation stops at the first error; entities created before
// that are still recorded for cleanup.
func (b *Builder) CreateEntities(
	ctx context.Context,
	entityType string,
	count int,
	customFn func(index int) ldvalue.Value,
) ([]*Entity, error) {
	ret := make([]*Entity, 0, count)
	for i := 0; i < count; i++ {
		custom := ldvalue.Null()
		if customFn != nil {
			custom = customFn(i)
		}
		e, err := b.CreateEntity(ctx, entityType, custom)
		if err != nil {
			return ret, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

// Cleanup calls the cleanup action of every recorded entity, most recently created first.
// A failure does not stop the remaining cleanups; all failures are returned together. The
// context is empty afterward, whether or not every cleanup succeeded.
func (b *Builder) Cleanup(ctx context.Context) error {
	entities := b.testContext.takeAll()
	var errs []error
	for i := len(entities) - 1; i >= 0; i-- {
		e := entities[i]
		if e.Cleanup == nil {
			continue
		}
		b.logger.Printf("Cleaning up %s", e)
		if err := e.Cleanup(ctx); err != nil {
			b.logger.Printf("Cleanup of %s failed: %s", e, err)
			errs = append(errs, fmt.Errorf("cleanup of %s failed: %w", e, err))
		}
	}
	return errors.Join(errs...)
}

// merge returns a new object with the properties of defaults, overridden by the top-level
// properties of overrides.
func merge(defaults, overrides ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for _, k := range defaults.Keys() {
		b = b.Set(k, defaults.GetByKey(k))
	}
	if overrides.Type() == ldvalue.ObjectType {
		for _, k := range overrides.Keys() {
			b = b.Set(k, overrides.GetByKey(k))
		}
	}
	return b.Build()
}
