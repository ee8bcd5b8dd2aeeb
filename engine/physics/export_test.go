package physics

// TestBodyAt exposes the constructed Body handle for rigid body i, for
// use by the external physics_test package (which needs refworld to
// build a Factory, and therefore cannot be package physics without
// creating an import cycle).
func (br *Bridge) TestBodyAt(i int) Body {
	return br.bodies[i].body
}

// TestWorld exposes the Bridge's World handle for the same reason as
// TestBodyAt.
func (br *Bridge) TestWorld() World {
	return br.world
}
