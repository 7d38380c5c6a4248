package lenstracer

import "github.com/go-gl/mathgl/mgl64"

// Rot3Deg is a rotation in degrees about the X, Y and Z axes (JSON friendly).
// X is applied first, then Y, then Z.
type Rot3Deg struct {
	X Real `json:"x"`
	Y Real `json:"y"`
	Z Real `json:"z"`
}

// IsZero reports an identity rotation.
func (r Rot3Deg) IsZero() bool { return r.X == 0 && r.Y == 0 && r.Z == 0 }

// Matrix composes Rz·Ry·Rx.
func (r Rot3Deg) Matrix() mgl64.Mat3 {
	R := mgl64.Rotate3DX(mgl64.DegToRad(r.X))
	R = mgl64.Rotate3DY(mgl64.DegToRad(r.Y)).Mul3(R)
	R = mgl64.Rotate3DZ(mgl64.DegToRad(r.Z)).Mul3(R)
	return R
}

// Homog is Matrix as a homogeneous 4x4 transform.
func (r Rot3Deg) Homog() mgl64.Mat4 {
	R := mgl64.HomogRotate3DX(mgl64.DegToRad(r.X))
	R = mgl64.HomogRotate3DY(mgl64.DegToRad(r.Y)).Mul4(R)
	R = mgl64.HomogRotate3DZ(mgl64.DegToRad(r.Z)).Mul4(R)
	return R
}

// placement builds translate·rotate·scale about the origin; zero scale
// components default to 1.
func placement(translate Vector3, rot Rot3Deg, scale Vector3) mgl64.Mat4 {
	for i := range scale {
		if scale[i] == 0 {
			scale[i] = 1
		}
	}
	M := mgl64.Scale3D(scale[0], scale[1], scale[2])
	M = rot.Homog().Mul4(M)
	return mgl64.Translate3D(translate[0], translate[1], translate[2]).Mul4(M)
}
