// Package shader compiles WGSL sources into SPIR-V blobs for one pipeline
// stage and entry point.
//
// Compilation runs the naga pipeline stage by stage (parse, lower, validate,
// generate) so that the requested entry point can be checked against the
// module before any code is generated.
package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// Basic is the built-in position/colour shader. It defines VSMain and PSMain.
//
//go:embed wgsl/basic.wgsl
var Basic string

// Textured is the built-in position/texcoord shader sampling "tex".
//
//go:embed wgsl/textured.wgsl
var Textured string

// Model is the fixed shader-model target every stage is compiled against.
const Model = hlsl.ShaderModel5_0

var (
	// ErrCompile wraps parse, lowering, validation and generation failures.
	ErrCompile = errors.New("shader: compilation failed")

	// ErrEntryPoint is returned when the module has no such entry point.
	ErrEntryPoint = errors.New("shader: entry point not found")

	// ErrStageMismatch is returned when the entry point belongs to another stage.
	ErrStageMismatch = errors.New("shader: entry point stage mismatch")

	// ErrUnknownStage is returned for a stage other than vertex or pixel.
	ErrUnknownStage = errors.New("shader: unknown stage")
)

// Stage selects the pipeline stage a blob is compiled for.
type Stage uint8

// Stages.
const (
	StageVertex Stage = iota
	StagePixel
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

func (s Stage) irStage() (ir.ShaderStage, bool) {
	switch s {
	case StageVertex:
		return ir.StageVertex, true
	case StagePixel:
		return ir.StageFragment, true
	default:
		return 0, false
	}
}

// Profile returns the shader-model profile name for s, e.g. "vs_5_0".
func (s Stage) Profile() string {
	st, ok := s.irStage()
	if !ok {
		return ""
	}
	return hlsl.ShaderProfile(st, Model.Major(), Model.Minor())
}

// Blob is one compiled stage.
type Blob struct {
	Name    string
	Source  string
	Entry   string
	Stage   Stage
	Profile string
	SPIRV   []uint32
}

// Options tunes compilation.
type Options struct {
	// Debug emits debug names and line info into the blob.
	Debug bool
}

// Compile compiles entry from source as a stage shader.
func Compile(name, source, entry string, stage Stage, opts Options) (*Blob, error) {
	want, ok := stage.irStage()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	if err := findEntryPoint(module, entry, want); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, verrs[0])
	}
	code, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3, Debug: opts.Debug})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}

	return &Blob{
		Name:    name,
		Source:  source,
		Entry:   entry,
		Stage:   stage,
		Profile: stage.Profile(),
		SPIRV:   Words(code),
	}, nil
}

// EntryPoints lists the entry points of a WGSL source by stage.
func EntryPoints(source string) (map[string]Stage, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	out := make(map[string]Stage, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		switch ep.Stage {
		case ir.StageVertex:
			out[ep.Name] = StageVertex
		case ir.StageFragment:
			out[ep.Name] = StagePixel
		}
	}
	return out, nil
}

func findEntryPoint(module *ir.Module, entry string, want ir.ShaderStage) error {
	for _, ep := range module.EntryPoints {
		if ep.Name != entry {
			continue
		}
		if ep.Stage != want {
			return fmt.Errorf("%w: %q", ErrStageMismatch, entry)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrEntryPoint, entry)
}

// Words converts a little-endian SPIR-V byte stream into 32-bit words.
func Words(code []byte) []uint32 {
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = uint32(code[i*4]) |
			uint32(code[i*4+1])<<8 |
			uint32(code[i*4+2])<<16 |
			uint32(code[i*4+3])<<24
	}
	return words
}
