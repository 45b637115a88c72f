package stubapi

import (
	"fmt"
	"sort"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type collection struct {
	prefix string
	lastID int
	items  map[string]ldvalue.Value
}

func newCollection(prefix string) *collection {
	return &collection{prefix: prefix, items: make(map[string]ldvalue.Value)}
}

// insert assigns an id and stores a copy of the record with the id set.
func (c *collection) insert(record ldvalue.Value) ldvalue.Value {
	c.lastID++
	id := fmt.Sprintf("%s%d", c.prefix, c.lastID)
	b := ldvalue.ObjectBuild()
	for _, k := range record.Keys() {
		b = b.Set(k, record.GetByKey(k))
	}
	stored := b.Set("id", ldvalue.String(id)).Build()
	c.items[id] = stored
	return stored
}

func (c *collection) get(id string) (ldvalue.Value, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

func (c *collection) ids() []string {
	ret := make([]string, 0, len(c.items))
	for id := range c.items {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}

func (c *collection) find(match func(ldvalue.Value) bool) (ldvalue.Value, bool) {
	for _, id := range c.ids() {
		if v := c.items[id]; match(v) {
			return v, true
		}
	}
	return ldvalue.Null(), false
}

func withoutKey(record ldvalue.Value, key string) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for _, k := range record.Keys() {
		if k != key {
			b = b.Set(k, record.GetByKey(k))
		}
	}
	return b.Build()
}

func stringsOf(array ldvalue.Value) []string {
	var ret []string
	for i := 0; i < array.Count(); i++ {
		ret = append(ret, array.GetByIndex(i).StringValue())
	}
	return ret
}
