package skeleton

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Solve runs cyclic-coordinate-descent IK for the IK bone at index
// ikBoneIdx against its configured target bone, mutating each link's
// IKRotate in place and leaving the best (lowest target-distance)
// iteration's result in place on exit.
func Solve(s *BoneSet, ikBoneIdx int) {
	ik := s.bones[ikBoneIdx].IK
	if ik == nil || len(ik.Links) == 0 {
		return
	}

	for li := range ik.Links {
		link := &ik.Links[li]
		s.bones[link.BoneIndex].IKRotate = mgl32.QuatIdent()
		s.bones[link.BoneIndex].Flags |= FlagIKEnabled
	}
	s.propagateSubtree(ik.Links[0].BoneIndex)

	type snapshot struct {
		rotate mgl32.Quat
		prev   mgl32.Vec3
		hinge  float32
	}
	best := make([]snapshot, len(ik.Links))
	bestDist := float32(math.MaxFloat32)

	distance := func() float32 {
		return s.bones[ik.TargetBone].WorldPosition().Sub(s.bones[ikBoneIdx].WorldPosition()).Len()
	}

	for iter := 0; iter < ik.Iterations; iter++ {
		for li := range ik.Links {
			solveLink(s, ik, ikBoneIdx, li, iter)
		}

		d := distance()
		if d < bestDist {
			bestDist = d
			for li := range ik.Links {
				best[li] = snapshot{
					rotate: s.bones[ik.Links[li].BoneIndex].IKRotate,
					prev:   ik.Links[li].prevAngle,
					hinge:  ik.Links[li].hingeAngle,
				}
			}
			continue
		}

		for li := range ik.Links {
			s.bones[ik.Links[li].BoneIndex].IKRotate = best[li].rotate
			ik.Links[li].prevAngle = best[li].prev
			ik.Links[li].hingeAngle = best[li].hinge
		}
		s.propagateSubtree(ik.Links[0].BoneIndex)
		return
	}
}

// solveLink runs one CCD inner-pass update for link li of the chain
// targeting ikBoneIdx/ik.TargetBone.
func solveLink(s *BoneSet, ik *IKConfig, ikBoneIdx, li, iter int) {
	link := &ik.Links[li]
	linkBone := &s.bones[link.BoneIndex]

	inv := linkBone.LocalToWorld.Inv()
	ikWorld := s.bones[ikBoneIdx].WorldPosition()
	targetWorld := s.bones[ik.TargetBone].WorldPosition()

	vIK := mulPoint(inv, ikWorld)
	vTgt := mulPoint(inv, targetWorld)

	if vIK.Len() < 1e-6 || vTgt.Len() < 1e-6 {
		return
	}
	vIK = vIK.Normalize()
	vTgt = vTgt.Normalize()

	dot := clamp(vTgt.Dot(vIK), -1, 1)
	theta := float32(math.Acos(float64(dot)))
	if theta < degToRad(1e-3) {
		return
	}
	theta = clamp(theta, -ik.LimitAngle, ik.LimitAngle)

	switch {
	case !link.HasLimits:
		axis := vTgt.Cross(vIK)
		if axis.Len() < 1e-6 {
			return
		}
		axis = axis.Normalize()
		delta := mgl32.QuatRotate(theta, axis)
		chain := linkBone.IKRotate.Mul(linkBone.AnimationRotate).Mul(delta)
		linkBone.IKRotate = chain.Mul(linkBone.AnimationRotate.Inverse())
		propagateLink(s, link)

	case isPlaneMode(*link):
		solvePlaneMode(s, link, vIK, vTgt, theta, iter)

	default:
		axis := vTgt.Cross(vIK)
		if axis.Len() < 1e-6 {
			return
		}
		axis = axis.Normalize()
		delta := mgl32.QuatRotate(theta, axis)
		chain := linkBone.IKRotate.Mul(linkBone.AnimationRotate).Mul(delta)
		solveLimitedMultiAxis(link, linkBone, chain, ik.LimitAngle)
		propagateLink(s, link)
	}
}

func propagateLink(s *BoneSet, link *IKLink) {
	b := &s.bones[link.BoneIndex]
	b.LocalToParent = computeLocalToParent(b)
	b.LocalToWorld = parentLocalToWorld(s, b.parent).Mul4(b.LocalToParent)
	for _, c := range b.children {
		s.propagateSubtree(c)
	}
}

func isPlaneMode(link IKLink) bool {
	if !link.HasLimits {
		return false
	}
	nonzero := 0
	if link.LimitMin.X() != 0 || link.LimitMax.X() != 0 {
		nonzero++
	}
	if link.LimitMin.Y() != 0 || link.LimitMax.Y() != 0 {
		nonzero++
	}
	if link.LimitMin.Z() != 0 || link.LimitMax.Z() != 0 {
		nonzero++
	}
	return nonzero == 1
}

func solveLimitedMultiAxis(link *IKLink, linkBone *Bone, chain mgl32.Quat, limitAngle float32) {
	euler := DecomposeEulerXYZ(chain.Mat4().Mat3(), link.prevAngle)

	clamped := mgl32.Vec3{
		clamp(euler.X(), link.LimitMin.X(), link.LimitMax.X()),
		clamp(euler.Y(), link.LimitMin.Y(), link.LimitMax.Y()),
		clamp(euler.Z(), link.LimitMin.Z(), link.LimitMax.Z()),
	}

	delta := clamped.Sub(link.prevAngle)
	clamped = mgl32.Vec3{
		link.prevAngle.X() + clamp(delta.X(), -limitAngle, limitAngle),
		link.prevAngle.Y() + clamp(delta.Y(), -limitAngle, limitAngle),
		link.prevAngle.Z() + clamp(delta.Z(), -limitAngle, limitAngle),
	}

	link.prevAngle = clamped
	rebuilt := eulerToQuatXYZ(clamped)
	linkBone.IKRotate = rebuilt.Mul(linkBone.AnimationRotate.Inverse())
}

func solvePlaneMode(s *BoneSet, link *IKLink, vIK, vTgt mgl32.Vec3, theta float32, iter int) {
	linkBone := &s.bones[link.BoneIndex]
	axis := hingeAxis(*link)

	plusRot := mgl32.QuatRotate(theta, axis)
	minusRot := mgl32.QuatRotate(-theta, axis)

	plusV := plusRot.Rotate(vTgt)
	minusV := minusRot.Rotate(vTgt)

	var signedTheta float32
	if plusV.Sub(vIK).Len() <= minusV.Sub(vIK).Len() {
		signedTheta = theta
	} else {
		signedTheta = -theta
	}

	alpha := link.hingeAngle + signedTheta
	lo, hi := hingeLimits(*link)

	if iter == 0 {
		if (alpha < lo || alpha > hi) && (-alpha >= lo && -alpha <= hi) {
			alpha = -alpha
		} else {
			alpha = clamp(alpha, lo, hi)
		}
	} else {
		alpha = clamp(alpha, lo, hi)
	}
	link.hingeAngle = alpha

	rebuilt := mgl32.QuatRotate(alpha, axis)
	linkBone.IKRotate = rebuilt.Mul(linkBone.AnimationRotate.Inverse())

	propagateLink(s, link)
}

// hingeAxis returns the unit axis for the single nonzero limit component.
func hingeAxis(link IKLink) mgl32.Vec3 {
	if link.LimitMin.X() != 0 || link.LimitMax.X() != 0 {
		return mgl32.Vec3{1, 0, 0}
	}
	if link.LimitMin.Y() != 0 || link.LimitMax.Y() != 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return mgl32.Vec3{0, 0, 1}
}

func hingeLimits(link IKLink) (float32, float32) {
	if link.LimitMin.X() != 0 || link.LimitMax.X() != 0 {
		return link.LimitMin.X(), link.LimitMax.X()
	}
	if link.LimitMin.Y() != 0 || link.LimitMax.Y() != 0 {
		return link.LimitMin.Y(), link.LimitMax.Y()
	}
	return link.LimitMin.Z(), link.LimitMax.Z()
}

func eulerToQuatXYZ(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e.X(), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(e.Y(), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(e.Z(), mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

func degToRad(d float64) float32 { return float32(d * math.Pi / 180) }

// mulPoint transforms a world-space point into the local frame of m's
// origin, i.e. it applies both rotation and translation (unlike a pure
// vector transform, which would discard m's translation column).
func mulPoint(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	p := m.Mul4x1(mgl32.Vec4{v.X(), v.Y(), v.Z(), 1})
	return mgl32.Vec3{p.X(), p.Y(), p.Z()}
}
