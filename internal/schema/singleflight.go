package schema

import (
	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent resolutions of the same reference into one fetch.
type Group struct {
	g singleflight.Group
}

func (g *Group) Do(ref string, fn func() (*Document, error)) (*Document, error, bool) {
	v, err, shared := g.g.Do(ref, func() (interface{}, error) {
		return fn()
	})
	doc, _ := v.(*Document)
	return doc, err, shared
}
