package lenstracer

// Material holds the Phong and transport coefficients of a triangle.
type Material struct {
	Ambient        RGB
	Diffuse        RGB
	Specular       RGB
	Shininess      Real
	Reflectivity   Real
	Transmissivity Real
	Opacity        Real // always 1 - Transmissivity
	IOR            Real
}

// NewMaterial fills the derived fields (opacity, default IOR).
func NewMaterial(ambient, diffuse, specular RGB, shininess, reflect, transmit, ior Real) Material {
	m := Material{
		Ambient:        ambient,
		Diffuse:        diffuse,
		Specular:       specular,
		Shininess:      shininess,
		Reflectivity:   reflect,
		Transmissivity: transmit,
		IOR:            ior,
	}
	m.normalize()
	return m
}

func (m *Material) normalize() {
	if m.Reflectivity < 0 {
		m.Reflectivity = 0
	} else if m.Reflectivity > 1 {
		m.Reflectivity = 1
	}
	if m.Transmissivity < 0 {
		m.Transmissivity = 0
	} else if m.Transmissivity > 1 {
		m.Transmissivity = 1
	}
	m.Opacity = 1 - m.Transmissivity
	if m.IOR <= 0 {
		m.IOR = 1
	}
}

// Vertex is owned by exactly one entity. refs is only meaningful while
// normals are being averaged.
type Vertex struct {
	Pos    Vector3
	Normal Vector3
	refs   int
}

// Triangle references three vertices it does not own. Edge1, Edge2 and
// Normal are derived and must be refreshed with RecomputeDerived whenever a
// referenced vertex moves.
type Triangle struct {
	V            [3]*Vertex
	Facet        [3]bool // use the flat normal at that corner
	Edge1, Edge2 Vector3
	Normal       Vector3
	Material
}

// NewTriangle builds a triangle and computes its derived fields.
func NewTriangle(a, b, c *Vertex, m Material) *Triangle {
	m.normalize()
	t := &Triangle{V: [3]*Vertex{a, b, c}, Material: m}
	t.RecomputeDerived()
	return t
}

// RecomputeDerived refreshes edges and the unit face normal.
func (t *Triangle) RecomputeDerived() {
	t.Edge1 = t.V[1].Pos.Sub(t.V[0].Pos)
	t.Edge2 = t.V[2].Pos.Sub(t.V[0].Pos)
	t.Normal = unit(t.Edge1.Cross(t.Edge2))
}

// SetFacet marks all three corners flat (true) or smooth (false).
func (t *Triangle) SetFacet(flat bool) {
	t.Facet = [3]bool{flat, flat, flat}
}

func (t *Triangle) cornerNormal(i int) Vector3 {
	if t.Facet[i] {
		return t.Normal
	}
	n := t.V[i].Normal
	if n.Len() < parEps {
		return t.Normal
	}
	return n
}

// Centroid is the mean of the three vertices.
func (t *Triangle) Centroid() Vector3 {
	return t.V[0].Pos.Add(t.V[1].Pos).Add(t.V[2].Pos).Mul(1.0 / 3)
}
