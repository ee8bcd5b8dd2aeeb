// Package character composes the per-frame animation pipeline for one
// model: track sampling, bone reset, morph accumulation, the
// pre-physics skeleton pass (IK included), the physics
// sync-step-sync cycle, the post-physics pass, and skinning matrix
// emission.
package character

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hoshizora/mmd-engine/common"
	"github.com/hoshizora/mmd-engine/engine/animation"
	"github.com/hoshizora/mmd-engine/engine/bezier"
	"github.com/hoshizora/mmd-engine/engine/morph"
	"github.com/hoshizora/mmd-engine/engine/physics"
	"github.com/hoshizora/mmd-engine/engine/skeleton"
	"github.com/hoshizora/mmd-engine/physicsconfig"
)

// Character owns one model's runtime state. Bridge may be nil for a
// model with no rigid bodies; everything else is required.
type Character struct {
	Bones  *skeleton.BoneSet
	Morphs *morph.Accumulator
	Bridge *physics.Bridge

	cache  *bezier.Cache
	layers []animation.Layer

	bindPositions []mgl32.Vec3
	positions     []mgl32.Vec3

	worldBuf []mgl32.Mat4
	skinBuf  []mgl32.Mat4
}

// New assembles a character. bindPositions is the mesh's bind-pose
// vertex buffer, used as the per-frame starting point for vertex
// morphs; pass nil for a character whose vertex morphs are applied on
// the GPU instead.
func New(bones *skeleton.BoneSet, morphs *morph.Accumulator, bridge *physics.Bridge, bindPositions []mgl32.Vec3) *Character {
	c := &Character{
		Bones:  bones,
		Morphs: morphs,
		Bridge: bridge,
		cache:  bezier.NewCache(),
	}
	if bindPositions != nil {
		c.bindPositions = bindPositions
		c.positions = make([]mgl32.Vec3, len(bindPositions))
	}
	c.worldBuf = make([]mgl32.Mat4, bones.Len())
	morphs.InitGPUUVMorphData()
	return c
}

// SetMotion replaces the layer stack with a single full-weight motion.
func (c *Character) SetMotion(m *animation.Motion) {
	c.layers = []animation.Layer{{Motion: m, Weight: 1}}
}

// SetLayers replaces the layer stack.
func (c *Character) SetLayers(layers []animation.Layer) {
	c.layers = layers
}

// Positions returns the morph-deformed vertex buffer from the most
// recent Advance, or nil if the character was built without one.
func (c *Character) Positions() []mgl32.Vec3 { return c.positions }

// Advance runs one frame of the pipeline and returns the skinning
// matrix for every bone. frame is the fractional timeline position,
// deltaTime the wall-clock step for physics, modelWorld the model's
// world transform (feeding inertia injection).
func (c *Character) Advance(frame, deltaTime float32, modelWorld mgl32.Mat4) []mgl32.Mat4 {
	cfg := physicsconfig.Get()

	c.Bones.ResetAll()
	var toggles animation.PhysicsToggleSink
	if c.Bridge != nil {
		toggles = c.Bridge
	}
	animation.Evaluate(c.Bones, c.Morphs, toggles, c.layers, frame, c.cache)

	if c.positions != nil {
		copy(c.positions, c.bindPositions)
	}
	c.Morphs.ApplyMorphs(c.Bones, c.positions)
	c.Morphs.SyncGPUUVMorphWeights()

	c.Bones.EvaluatePrePhysics()

	if c.Bridge != nil {
		for i := range c.worldBuf {
			c.worldBuf[i] = c.Bones.Bone(i).LocalToWorld
		}
		c.Bridge.SyncBodiesWithModelVelocity(c.worldBuf, deltaTime, modelWorld, cfg.InertiaStrength, cfg.MaxLinearVelocity)
		c.Bridge.Step(deltaTime, cfg.MaxLinearVelocity, cfg.MaxAngularVelocity)
		c.Bridge.SyncBones(c.worldBuf)
		for _, idx := range c.Bridge.DynamicBoneIndices() {
			c.Bones.Bone(idx).LocalToWorld = c.worldBuf[idx]
		}
	}

	c.Bones.EvaluatePostPhysics()

	c.skinBuf = c.Bones.SkinMatrices()
	return c.skinBuf
}

// SkinMatrixBytes reinterprets the most recent Advance's skinning
// matrices as a byte slice for direct GPU upload.
func (c *Character) SkinMatrixBytes() []byte {
	return common.SliceToBytes(c.skinBuf)
}

// UVMorphBytes reinterprets the accumulator's dense UV-morph offset
// and weight buffers for direct GPU upload.
func (c *Character) UVMorphBytes() (offsets, weights []byte) {
	return common.SliceToBytes(c.Morphs.GPUUVMorphOffsets()),
		common.SliceToBytes(c.Morphs.GPUUVMorphWeights())
}
