package moon

// DrawMesh records one non-indexed, single-instance draw of mesh with
// material into the open frame. Nil arguments make it a no-op. Drawing with
// an uncompiled material, a destroyed mesh or outside a frame is a contract
// violation: it is logged and skipped, or panics under debug assertions.
func (c *Context) DrawMesh(material *Material, mesh *Mesh) {
	if material == nil || mesh == nil {
		return
	}
	if !c.IsInitialized() {
		c.violation(ErrNotInitialized, "op", "DrawMesh")
		return
	}
	p := material.pipeline.Load()
	if p == nil {
		c.violation(ErrMaterialNotCompiled, "material", material.name)
		return
	}
	if !c.inFrame {
		c.violation(ErrNoFrame, "op", "DrawMesh", "material", material.name)
		return
	}
	view := mesh.View()
	if view.Buffer == nil {
		c.violation(ErrDestroyed, "op", "DrawMesh", "resource", "mesh")
		return
	}

	pass := c.recorder.Pass()
	pass.SetPipeline(p.pipeline)
	// The bind group is built at compile time from the material's view. The
	// srv slot records which view the pass currently samples so consecutive
	// draws of one material bind it once. Untextured pipelines use another
	// layout, so the group is rebound after them.
	if p.group == nil {
		c.bound = nil
	} else if c.bound != p {
		if err := c.srv.Set(0, p.view, false); err != nil {
			Logger().Error("moon: bind texture", "material", material.name, "err", err)
			return
		}
		pass.SetBindGroup(0, p.group, nil)
		c.bound = p
	}
	pass.SetVertexBuffer(0, view.Buffer, view.Offset)
	pass.Draw(mesh.vertexCount, 1, 0, 0)
}
