package moon

import "errors"

var (
	// ErrNotInitialized is returned when the context was never initialized
	// or has been destroyed.
	ErrNotInitialized = errors.New("moon: context is not initialized")

	// ErrInvalidMesh is returned for empty vertex data, a non-positive
	// vertex count or data whose size is not a multiple of the count.
	ErrInvalidMesh = errors.New("moon: invalid mesh data")

	// ErrInvalidTexture is returned when the pixel data does not match the
	// texture dimensions.
	ErrInvalidTexture = errors.New("moon: invalid texture data")

	// ErrUnknownVertexLayout is returned when compiling a material whose
	// layout tag is not recognized.
	ErrUnknownVertexLayout = errors.New("moon: unknown vertex layout")

	// ErrPipelineCreation wraps driver rejection of a pipeline descriptor.
	ErrPipelineCreation = errors.New("moon: pipeline creation failed")

	// ErrMaterialNotCompiled is reported when drawing with a material that
	// has no pipeline.
	ErrMaterialNotCompiled = errors.New("moon: material is not compiled")

	// ErrMaterialCompiled is returned when a compiled material is mutated.
	ErrMaterialCompiled = errors.New("moon: material is already compiled")

	// ErrShaderStage is returned when a shader is attached to the wrong slot.
	ErrShaderStage = errors.New("moon: shader stage mismatch")

	// ErrTooManyTextures is returned when a material needs more texture
	// slots than the shader-visible heap holds.
	ErrTooManyTextures = errors.New("moon: material has more textures than the shader-visible heap")

	// ErrNoFrame is reported when frame commands are issued outside
	// BeginFrame/EndFrame.
	ErrNoFrame = errors.New("moon: no frame in progress")

	// ErrFrameInProgress is returned by BeginFrame and Resize while a frame
	// is open.
	ErrFrameInProgress = errors.New("moon: frame already in progress")

	// ErrDestroyed is reported when a destroyed resource is used.
	ErrDestroyed = errors.New("moon: resource has been destroyed")
)
