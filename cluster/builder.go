package cluster

import (
	"github.com/hupe1980/glyphscan/fingerprint"
	"github.com/hupe1980/glyphscan/model"
)

type group struct {
	fp      fingerprint.Fingerprint
	members []model.GlyphRef
}

// Builder accumulates fingerprint groups in stream order.
// It is not safe for concurrent Add.
type Builder struct {
	ids    map[fingerprint.Fingerprint]uint32
	groups []group
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{ids: make(map[fingerprint.Fingerprint]uint32)}
}

// Add appends ref to the group of fp and returns the group id.
// Group ids are dense and assigned in first-seen order of the fingerprint.
func (b *Builder) Add(fp fingerprint.Fingerprint, ref model.GlyphRef) uint32 {
	id, ok := b.ids[fp]
	if !ok {
		id = uint32(len(b.groups))
		b.ids[fp] = id
		b.groups = append(b.groups, group{fp: fp})
	}
	b.groups[id].members = append(b.groups[id].members, ref)
	return id
}

// Groups returns the number of distinct fingerprints seen.
func (b *Builder) Groups() int {
	return len(b.groups)
}

// GroupSize returns the member count of group id, or 0 if unknown.
func (b *Builder) GroupSize(id uint32) int {
	if int(id) >= len(b.groups) {
		return 0
	}
	return len(b.groups[id].members)
}

// Finalize returns every group with at least two members, ordered by the
// first appearance of its fingerprint. Members keep stream order.
func (b *Builder) Finalize() []model.ExactCluster {
	out := make([]model.ExactCluster, 0)
	for _, g := range b.groups {
		if len(g.members) < 2 {
			continue
		}
		members := make([]model.GlyphRef, len(g.members))
		copy(members, g.members)
		out = append(out, model.ExactCluster{
			Fingerprint: g.fp.String(),
			Members:     members,
		})
	}
	return out
}
