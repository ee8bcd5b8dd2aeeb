package physics

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

// BuildParallel is Build with phase 1 (shape/body construction) spread
// across a reused worker pool instead of a sequential loop: each rigid
// body's shape and body handle are independent of every other body, so
// the pool's per-frame barrier idiom (SubmitTask + WaitGroup) applies
// just as well to this one-time, load-time CPU cost. Registration
// (phase 2) and joint construction stay sequential: neither the world
// nor the owned body/joint slices are safe for concurrent writes.
//
// Only worth reaching for on models with enough rigid bodies that
// construction cost matters (loose hair/skirt rigs with dozens of
// bodies); for typical PMX files Build is simpler and fast enough.
func BuildParallel(factory Factory, gravity mgl32.Vec3, fps float32, maxSubstepCount int,
	bodyDefs []RigidBodyDef, jointDefs []JointDef, boneWorldTransforms []mgl32.Mat4, workers int) (*Bridge, []Warning, error) {

	world := factory.NewWorld(gravity)
	br := &Bridge{
		factory:            factory,
		world:              world,
		fps:                fps,
		maxSub:             maxSubstepCount,
		dynamicBoneIndices: make(map[int]bool),
		disabledBones:      make(map[int]bool),
	}

	br.bodies = make([]rigidBody, len(bodyDefs))
	bodyWarnings := make([]*Warning, len(bodyDefs))

	pool := worker.NewDynamicWorkerPool(workers, len(bodyDefs)+1, time.Second)

	var wg sync.WaitGroup
	for i, def := range bodyDefs {
		wg.Add(1)
		idx, d := i, def
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				rb, warning := constructBody(factory, d, boneWorldTransforms)
				br.bodies[idx] = rb
				bodyWarnings[idx] = warning
				return nil, nil
			},
		})
	}
	wg.Wait()

	var warnings []Warning
	for _, w := range bodyWarnings {
		if w != nil {
			warnings = append(warnings, *w)
		}
	}

	registerAndBuildJoints(br, jointDefs, &warnings)

	return br, warnings, nil
}
