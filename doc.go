// Package moon is a minimal real-time rendering runtime: it opens a GPU
// device on a window, records one command list per frame and draws
// non-indexed meshes with compiled materials.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/moon"
//	    _ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	app, err := moon.NewApp(moon.AppConfig{Title: "Triangle", Width: 1280, Height: 720})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//
//	ctx := app.Context()
//	vs, _ := ctx.CompileShader("vs", moon.BasicShaderSource(), "VSMain", moon.StageVertex)
//	ps, _ := ctx.CompileShader("ps", moon.BasicShaderSource(), "PSMain", moon.StagePixel)
//	material := ctx.CreateMaterial("triangle", moon.VertexLayoutPositionColor)
//	material.SetVertexShader(vs)
//	material.SetPixelShader(ps)
//	ctx.CompileMaterial(material)
//
//	mesh, _ := ctx.CreateMeshFloat32(vertices, 3)
//	app.SetRender(func(ctx *moon.Context) { ctx.DrawMesh(material, mesh) })
//	app.Run()
//
// # Frames
//
// A frame is everything recorded between [Context.BeginFrame] and
// [Context.EndFrame]. BeginFrame acquires the current back buffer and
// clears it; EndFrame submits, presents and waits for the GPU to finish, so
// at most one frame is ever in flight. The back-buffer index alternates
// 0, 1, 0, 1.
//
// # Resources
//
// Meshes live in CPU-writable memory the GPU reads directly. Textures are
// copied through a staging buffer into GPU-local memory with a dedicated
// submission, so they can be created inside a frame. Destroying a resource
// defers the release until no submitted frame can reference it.
//
// # Contract violations
//
// Drawing with an uncompiled material or outside a frame is a programming
// error. It is logged at Error level and skipped, or panics when the
// context was created [WithDebugAssertions].
//
// # Logging
//
// moon is silent by default. [SetLogger] installs a [log/slog] logger for
// the package and its internals.
//
// # Backends
//
// Backends register themselves with the HAL when imported. Binaries import
// github.com/gogpu/wgpu/hal/allbackends; tests import hal/noop.
package moon
