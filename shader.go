package moon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/moon/internal/cache"
	"github.com/gogpu/moon/internal/shader"
)

// shaderCacheSize bounds the number of compiled blobs a context keeps.
const shaderCacheSize = 64

// shaderKey identifies a compilation. The name is not part of it.
type shaderKey struct {
	source string
	entry  string
	stage  shader.Stage
	debug  bool
}

func newShaderCache() *cache.Cache[shaderKey, *shader.Blob] {
	return cache.New[shaderKey, *shader.Blob](shaderCacheSize)
}

// ShaderStage selects the pipeline stage a shader is compiled for.
type ShaderStage uint8

// Shader stages.
const (
	StageVertex ShaderStage = iota
	StagePixel
)

// String returns the stage name.
func (s ShaderStage) String() string { return s.internal().String() }

func (s ShaderStage) internal() shader.Stage {
	switch s {
	case StageVertex:
		return shader.StageVertex
	case StagePixel:
		return shader.StagePixel
	default:
		return shader.Stage(s)
	}
}

// Shader is one compiled stage. A source may be compiled several times for
// different stages or entry points.
type Shader struct {
	blob *shader.Blob
}

// Name returns the name the shader was compiled under.
func (s *Shader) Name() string { return s.blob.Name }

// Entry returns the entry point.
func (s *Shader) Entry() string { return s.blob.Entry }

// Stage returns the stage the shader was compiled for.
func (s *Shader) Stage() ShaderStage { return ShaderStage(s.blob.Stage) }

// Profile returns the shader-model profile, e.g. "vs_5_0".
func (s *Shader) Profile() string { return s.blob.Profile }

// Source returns the WGSL the shader was compiled from.
func (s *Shader) Source() string { return s.blob.Source }

// SPIRV returns the compiled blob.
func (s *Shader) SPIRV() []uint32 { return s.blob.SPIRV }

// CompileShader compiles entry from a WGSL source for stage. Debug info is
// emitted when the context was created WithDebug. A context reuses the blob
// of an identical earlier compilation.
func (c *Context) CompileShader(name, source, entry string, stage ShaderStage) (*Shader, error) {
	opts := shader.Options{}
	if c != nil {
		opts.Debug = c.opts.debug
	}
	compile := func() (*shader.Blob, error) {
		return shader.Compile(name, source, entry, stage.internal(), opts)
	}

	var (
		blob *shader.Blob
		hit  bool
		err  error
	)
	if c != nil && c.shaders != nil {
		key := shaderKey{source: source, entry: entry, stage: stage.internal(), debug: opts.Debug}
		blob, hit, err = c.shaders.GetOrCompute(key, compile)
	} else {
		blob, err = compile()
	}
	if err != nil {
		Logger().Error("moon: compile shader", "name", name, "entry", entry, "stage", stage, "err", err)
		return nil, err
	}
	if hit && blob.Name != name {
		renamed := *blob
		renamed.Name = name
		blob = &renamed
	}
	Logger().Debug("moon: shader compiled",
		"name", name,
		"entry", entry,
		"profile", blob.Profile,
		"words", len(blob.SPIRV),
		"cached", hit,
	)
	return &Shader{blob: blob}, nil
}

// LoadShader compiles entry from a WGSL file.
func (c *Context) LoadShader(path, entry string, stage ShaderStage) (*Shader, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		Logger().Error("moon: load shader", "path", path, "err", err)
		return nil, fmt.Errorf("moon: load shader: %w", err)
	}
	return c.CompileShader(filepath.Base(path), string(src), entry, stage)
}

// BasicShaderSource returns the built-in position/colour WGSL. Its entry
// points are VSMain and PSMain.
func BasicShaderSource() string { return shader.Basic }

// TexturedShaderSource returns the built-in position/texcoord WGSL that
// samples the texture bound as "tex".
func TexturedShaderSource() string { return shader.Textured }
