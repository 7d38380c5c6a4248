package lenstracer

import (
	"fmt"
	"io"
	"strings"
)

// DumpScene prints the entity tree with one tab per level: subtree counts
// and the bounding box of every node, then the lights.
func DumpScene(w io.Writer, s *Scene) {
	ents, verts, tris := 0, 0, 0
	for _, e := range s.Entities {
		a, b, c := e.Counts()
		ents, verts, tris = ents+a, verts+b, tris+c
	}
	fmt.Fprintf(w, "[SCENE] roots=%d entities=%d vertices=%d triangles=%d lights=%d\n",
		len(s.Entities), ents, verts, tris, len(s.Lights))
	for _, e := range s.Entities {
		dumpEntity(w, e, 0)
	}
	for i, l := range s.Lights {
		fmt.Fprintf(w, "LIGHT #%d pos=(%.5g,%.5g,%.5g) color=(%.3g,%.3g,%.3g)\n",
			i, l.Position[0], l.Position[1], l.Position[2], l.Color.R, l.Color.G, l.Color.B)
	}
}

func dumpEntity(w io.Writer, e *Entity, depth int) {
	ind := strings.Repeat("\t", depth)
	n, v, t := e.Counts()
	b := e.Bounds
	fmt.Fprintf(w, "%sENTITY %q nodes=%d vertices=%d triangles=%d | min=(%.5g,%.5g,%.5g) max=(%.5g,%.5g,%.5g)\n",
		ind, e.Name, n, v, t,
		b.Min[0], b.Min[1], b.Min[2],
		b.Max[0], b.Max[1], b.Max[2],
	)
	for _, c := range e.Children {
		dumpEntity(w, c, depth+1)
	}
}
