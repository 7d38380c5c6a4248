package lenstracer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Entity is a node of the scene tree. It exclusively owns its vertices,
// triangles and children. Triangles may reference vertices of an ancestor.
type Entity struct {
	Name      string
	Vertices  []*Vertex
	Triangles []*Triangle
	Children  []*Entity
	Bounds    Box

	parent *Entity
}

// AddChild attaches c and refreshes derived data of the subtree.
func (e *Entity) AddChild(c *Entity) {
	e.attach(c)
	c.RecomputeDerived()
}

func (e *Entity) attach(c *Entity) {
	c.parent = e
	e.Children = append(e.Children, c)
}

func (e *Entity) root() *Entity {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

// Walk visits e and its descendants depth first.
func (e *Entity) Walk(fn func(*Entity)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// RecomputeDerived refreshes triangle edges/normals, averaged vertex normals
// and bounding boxes. It must run after any vertex moved and before the
// subtree is rendered. Ancestor boxes are refreshed too, and when the
// subtree's triangles share ancestor vertices the normals of the whole tree
// are re-averaged.
func (e *Entity) RecomputeDerived() {
	e.Walk(func(n *Entity) {
		for _, t := range n.Triangles {
			t.RecomputeDerived()
		}
	})
	top, owned := e, e.ownedVertices()
	if e.parent != nil && e.referencesOutside(owned) {
		top = e.root()
		owned = top.ownedVertices()
	}
	top.averageNormals(owned)
	e.root().recomputeBounds()
}

func (e *Entity) ownedVertices() map[*Vertex]bool {
	owned := make(map[*Vertex]bool)
	e.Walk(func(n *Entity) {
		for _, v := range n.Vertices {
			owned[v] = true
		}
	})
	return owned
}

func (e *Entity) referencesOutside(owned map[*Vertex]bool) bool {
	outside := false
	e.Walk(func(n *Entity) {
		for _, t := range n.Triangles {
			for _, v := range t.V {
				if !owned[v] {
					outside = true
				}
			}
		}
	})
	return outside
}

// averageNormals rebuilds the normals of owned vertices only. Every triangle
// touching an owned vertex lives in the subtree.
func (e *Entity) averageNormals(owned map[*Vertex]bool) {
	for v := range owned {
		v.Normal, v.refs = Vector3{}, 0
	}
	e.Walk(func(n *Entity) {
		for _, t := range n.Triangles {
			for _, v := range t.V {
				if owned[v] {
					v.Normal = v.Normal.Add(t.Normal)
					v.refs++
				}
			}
		}
	})
	for v := range owned {
		if v.refs > 0 {
			v.Normal = unit(v.Normal.Mul(1 / Real(v.refs)))
			v.refs = 0
		}
	}
}

// recomputeBounds sets each node's box to enclose its own and its
// descendants' geometry. Returns false for an empty subtree.
func (e *Entity) recomputeBounds() (Vector3, Vector3, bool) {
	inf := math.Inf(1)
	minP, maxP := Vector3{inf, inf, inf}, Vector3{-inf, -inf, -inf}
	found := false
	grow := func(p Vector3) {
		for i := 0; i < 3; i++ {
			minP[i] = math.Min(minP[i], p[i])
			maxP[i] = math.Max(maxP[i], p[i])
		}
		found = true
	}
	for _, v := range e.Vertices {
		grow(v.Pos)
	}
	for _, t := range e.Triangles {
		for _, v := range t.V {
			grow(v.Pos)
		}
	}
	for _, c := range e.Children {
		if cmin, cmax, ok := c.recomputeBounds(); ok {
			grow(cmin)
			grow(cmax)
		}
	}
	if !found {
		e.Bounds = Box{}
		return minP, maxP, false
	}
	e.Bounds = newBox(minP, maxP)
	return e.Bounds.Min, e.Bounds.Max, true
}

// Transform applies m to every vertex owned by the subtree, then refreshes
// derived data, including the boxes of its ancestors.
func (e *Entity) Transform(m mgl64.Mat4) {
	e.Walk(func(n *Entity) {
		for _, v := range n.Vertices {
			v.Pos = mgl64.TransformCoordinate(v.Pos, m)
		}
	})
	e.RecomputeDerived()
}

// Counts returns the number of entities, vertices and triangles in the subtree.
func (e *Entity) Counts() (entities, vertices, triangles int) {
	e.Walk(func(n *Entity) {
		entities++
		vertices += len(n.Vertices)
		triangles += len(n.Triangles)
	})
	return
}

// NewCube builds an axis-aligned cube with 12 outward-facing, flat-shaded triangles.
func NewCube(name string, center Vector3, size Real, m Material) *Entity {
	h := size / 2
	e := &Entity{Name: name}
	for i := 0; i < 8; i++ {
		p := center.Sub(Vector3{h, h, h})
		if i&1 != 0 {
			p[0] += size
		}
		if i&2 != 0 {
			p[1] += size
		}
		if i&4 != 0 {
			p[2] += size
		}
		e.Vertices = append(e.Vertices, &Vertex{Pos: p})
	}
	faces := [12][3]int{
		{0, 4, 6}, {0, 6, 2}, // -X
		{1, 3, 7}, {1, 7, 5}, // +X
		{0, 1, 5}, {0, 5, 4}, // -Y
		{2, 6, 7}, {2, 7, 3}, // +Y
		{0, 2, 3}, {0, 3, 1}, // -Z
		{4, 5, 7}, {4, 7, 6}, // +Z
	}
	for _, f := range faces {
		t := NewTriangle(e.Vertices[f[0]], e.Vertices[f[1]], e.Vertices[f[2]], m)
		t.SetFacet(true)
		e.Triangles = append(e.Triangles, t)
	}
	e.RecomputeDerived()
	return e
}

// NewQuad builds a planar quad a-b-c-d as two triangles (normal follows a,b,c winding).
func NewQuad(name string, corners [4]Vector3, m Material) *Entity {
	e := &Entity{Name: name}
	for _, c := range corners {
		e.Vertices = append(e.Vertices, &Vertex{Pos: c})
	}
	v := e.Vertices
	e.Triangles = []*Triangle{
		NewTriangle(v[0], v[1], v[2], m),
		NewTriangle(v[0], v[2], v[3], m),
	}
	for _, t := range e.Triangles {
		t.SetFacet(true)
	}
	e.RecomputeDerived()
	return e
}

// NewMesh builds an indexed triangle mesh. With smooth set, corners use the
// averaged vertex normals.
func NewMesh(name string, positions []Vector3, faces [][3]int, smooth bool, m Material) (*Entity, error) {
	e := &Entity{Name: name}
	for _, p := range positions {
		e.Vertices = append(e.Vertices, &Vertex{Pos: p})
	}
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(e.Vertices) {
				return nil, fmt.Errorf("mesh %q: face %d references vertex %d, have %d", name, i, idx, len(e.Vertices))
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return nil, fmt.Errorf("mesh %q: face %d is degenerate: %v", name, i, f)
		}
		t := NewTriangle(e.Vertices[f[0]], e.Vertices[f[1]], e.Vertices[f[2]], m)
		t.SetFacet(!smooth)
		e.Triangles = append(e.Triangles, t)
	}
	e.RecomputeDerived()
	return e, nil
}
