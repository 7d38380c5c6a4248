package lenstracer

import (
	"errors"
	"math"
	"testing"

	"github.com/lukaszgryglicki/lenstracer/internal/equation"
)

func TestBuildTableShape(t *testing.T) {
	tab := hemisphereTable(t)
	if tab.Len() != 1801 {
		t.Fatalf("len = %d", tab.Len())
	}
	if e := tab.Entry(0); e.Radius != 0 || !nearly(e.Height, 1, 1e-12) {
		t.Fatalf("entry 0 = %+v", e)
	}
	if e := tab.Entry(tab.Len() - 1); e.Radius != CurveHuge || e.Height != -CurveHuge {
		t.Fatalf("last entry = %+v", e)
	}
	prev := 0.0
	for i := 1; i < tab.Len()-1; i++ {
		e := tab.Entry(i)
		if e.Radius >= tab.Curve.Limit {
			continue
		}
		if e.Radius < prev {
			t.Fatalf("radius decreases at %d: %g < %g", i, e.Radius, prev)
		}
		prev = e.Radius
	}
}

func TestBuildTableHemisphere(t *testing.T) {
	tab := hemisphereTable(t)
	for _, angle := range []Real{80, 60, 45, 20, 10} {
		e := tab.Lookup(angle)
		want := math.Cos(angle * math.Pi / 180)
		if !nearly(e.Radius, want, 1e-4) {
			t.Fatalf("angle %g: radius %g want %g", angle, e.Radius, want)
		}
		if !nearly(e.Height, e.Radius*math.Tan(angle*math.Pi/180), 1e-9) {
			t.Fatalf("angle %g: height %g not on view line", angle, e.Height)
		}
	}
	// beyond the limit the tangent at the rim takes over
	if r := tab.Lookup(5).Radius; r <= tab.Curve.Limit || r > 1.01 {
		t.Fatalf("angle 5: tangent radius %g", r)
	}
}

func TestBuildTableTangentExtrapolation(t *testing.T) {
	c, err := CompileCurve("1.15*x + 0.3;", 1)
	if err != nil {
		t.Fatal(err)
	}
	tab, err := BuildTable(c, 10)
	if err != nil {
		t.Fatal(err)
	}
	// tan 50° < 1.45 so the view line misses the curve inside [0,1]
	m := math.Tan(50 * math.Pi / 180)
	want := 0.3 / (m - 1.15)
	e := tab.Lookup(50)
	if math.Abs(e.Radius-want) > 1e-6*want {
		t.Fatalf("radius %g want %g", e.Radius, want)
	}
	if !nearly(e.Height, m*e.Radius, 1e-9) {
		t.Fatalf("height %g", e.Height)
	}
	// inside the limit the root is exact
	m = math.Tan(70 * math.Pi / 180)
	if r := tab.Lookup(70).Radius; !nearly(r, 0.3/(m-1.15), 1e-5) {
		t.Fatalf("angle 70: radius %g", r)
	}
	// tangent never reaches the view line
	if r := tab.Lookup(30).Radius; r != CurveHuge {
		t.Fatalf("angle 30: radius %g want CurveHuge", r)
	}
}

func TestTableIndex(t *testing.T) {
	tab := hemisphereTable(t)
	cases := []struct {
		angle Real
		want  int
	}{{90, 0}, {-90, 1800}, {0, 900}, {45.04, 450}, {200, 0}, {-200, 1800}}
	for _, c := range cases {
		if got := tab.Index(c.angle); got != c.want {
			t.Fatalf("Index(%g) = %d want %d", c.angle, got, c.want)
		}
	}
}

func TestBuildTableErrors(t *testing.T) {
	c, err := CompileCurve("x;", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BuildTable(c, 0); err == nil {
		t.Fatal("expected resolution error")
	}
	if _, err := CompileCurve("x;", 0); err == nil {
		t.Fatal("expected limit error")
	}
	_, err = CompileCurve("sqrt(x", 1)
	var se *equation.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestCurveEvalClampsPoles(t *testing.T) {
	c, err := CompileCurve("1/x;", 1)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := c.Eval(0); err != nil || v != CurveHuge {
		t.Fatalf("1/0 = %g, %v", v, err)
	}
	c, _ = CompileCurve("-1/x;", 1)
	if v, _ := c.Eval(0); v != -CurveHuge {
		t.Fatalf("-1/0 = %g", v)
	}
	c, _ = CompileCurve("sqrt(x);", 1)
	if v, _ := c.Eval(-1); v != CurveHuge {
		t.Fatalf("sqrt(-1) = %g", v)
	}
}

func TestProjectUnproject(t *testing.T) {
	tab := hemisphereTable(t)

	d, ok := tab.Unproject(0.5, 0)
	if !ok {
		t.Fatal("point inside the lens rejected")
	}
	want := Vector3{0.5, 0, math.Sqrt(3) / 2}
	if !vecNear(d, want, 1e-3) || !nearly(d.Len(), 1, 1e-12) {
		t.Fatalf("unproject = %v want %v", d, want)
	}
	if d, ok := tab.Unproject(0, 0); !ok || d != (Vector3{0, 0, 1}) {
		t.Fatalf("center = %v %v", d, ok)
	}
	if _, ok := tab.Unproject(0.8, 0.8); ok {
		t.Fatal("point beyond the limit accepted")
	}

	pr := tab.Project(Vector3{1, 0, math.Sqrt(3)})
	if !tab.Visible(pr) || !nearly(pr.X, 0.5, 1e-4) || pr.Y != 0 || !nearly(pr.Depth, 4, 1e-12) {
		t.Fatalf("project = %+v", pr)
	}
	// round trip through the lens keeps the direction
	back, ok := tab.Unproject(pr.X, pr.Y)
	if !ok || !vecNear(back, Vector3{0.5, 0, math.Sqrt(3) / 2}, 1e-3) {
		t.Fatalf("round trip = %v", back)
	}

	if pr := tab.Project(Vector3{1, 0, -1}); tab.Visible(pr) {
		t.Fatalf("point behind the eye visible: %+v", pr)
	}
	if pr := tab.Project(Vector3{0, 0, 3}); !tab.Visible(pr) || pr.X != 0 || pr.Y != 0 {
		t.Fatalf("axis point = %+v", pr)
	}
}

func TestProjectOffset(t *testing.T) {
	tab := hemisphereTable(t)
	p := Vector3{1, 0, 1}
	base := tab.Project(p)
	off := tab.ProjectOffset(p, 2)
	if !nearly(off.X, 2*base.X, 1e-12) || off.Radius != base.Radius {
		t.Fatalf("offset %+v base %+v", off, base)
	}
	if same := tab.ProjectOffset(p, 1); same != base {
		t.Fatalf("degenerate offset changed projection: %+v", same)
	}
}
