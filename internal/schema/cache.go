package schema

import "sync"

// Cache maps an original schema reference to its parsed Document for the
// lifetime of the process. Entries are never evicted or refreshed.
type Cache struct {
	data sync.Map
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(ref string) (*Document, bool) {
	v, ok := c.data.Load(ref)
	if !ok {
		return nil, false
	}
	return v.(*Document), true
}

func (c *Cache) Set(ref string, doc *Document) {
	c.data.Store(ref, doc)
}

func (c *Cache) Len() int {
	n := 0
	c.data.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
