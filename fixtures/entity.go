// Package fixtures creates test data in the system under test and removes it again.
//
// Entities are created through factories registered by type name. Every created entity is
// recorded in the TestDataContext in creation order, and Builder.Cleanup deletes them in the
// reverse order, so that an entity which references earlier ones (an order referencing a user
// and products) is always deleted before the things it references.
package fixtures

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Entity is a created, externally persisted piece of test data.
type Entity struct {
	ID   string
	Type string

	// Data is the record as returned by the service, including server-assigned fields.
	Data ldvalue.Value

	// Cleanup reverses the creation, e.g. by deleting the record. It may be nil if there is
	// nothing to undo.
	Cleanup func(context.Context) error
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

// TestDataContext records the entities created during one test.
type TestDataContext struct {
	TestID    string
	Timestamp time.Time

	createdEntities []*Entity
	lock            sync.Mutex
}

// NewTestDataContext creates an empty context for a test.
func NewTestDataContext(testID string) *TestDataContext {
	return &TestDataContext{TestID: testID, Timestamp: time.Now()}
}

// CreatedEntities returns the entities created so far, in creation order.
func (tc *TestDataContext) CreatedEntities() []*Entity {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return append([]*Entity(nil), tc.createdEntities...)
}

func (tc *TestDataContext) add(e *Entity) {
	tc.lock.Lock()
	tc.createdEntities = append(tc.createdEntities, e)
	tc.lock.Unlock()
}

// takeAll empties the context and returns what it held.
func (tc *TestDataContext) takeAll() []*Entity {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	ret := tc.createdEntities
	tc.createdEntities = nil
	return ret
}
