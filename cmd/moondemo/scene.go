package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/moon"
	"github.com/gogpu/moon/internal/imageutil"
)

// scene is a set of resources drawn every frame.
type scene struct {
	ctx       *moon.Context
	materials []*moon.Material
	meshes    []*moon.Mesh
	textures  []*moon.Texture

	// base is the configured clear colour; Update pulses it.
	base [4]float64
}

// Position/colour triangle.
var triangleVertices = []float32{
	0.0, 0.25, 0.0, 1.0, 0.0, 0.0, 1.0,
	0.25, -0.25, 0.0, 0.0, 1.0, 0.0, 1.0,
	-0.25, -0.25, 0.0, 0.0, 0.0, 1.0, 1.0,
}

// Position/texcoord quad as two triangles.
var quadVertices = []float32{
	-0.5, 0.5, 0.0, 0.0, 0.0,
	0.5, 0.5, 0.0, 1.0, 0.0,
	0.5, -0.5, 0.0, 1.0, 1.0,
	-0.5, 0.5, 0.0, 0.0, 0.0,
	0.5, -0.5, 0.0, 1.0, 1.0,
	-0.5, -0.5, 0.0, 0.0, 1.0,
}

// Small quad in the top-left corner showing the label.
var labelVertices = []float32{
	-0.95, 0.95, 0.0, 0.0, 0.0,
	-0.45, 0.95, 0.0, 1.0, 0.0,
	-0.45, 0.85, 0.0, 1.0, 1.0,
	-0.95, 0.95, 0.0, 0.0, 0.0,
	-0.45, 0.85, 0.0, 1.0, 1.0,
	-0.95, 0.85, 0.0, 0.0, 1.0,
}

func newScene(ctx *moon.Context, cfg moon.Config) (*scene, error) {
	s := &scene{ctx: ctx, base: cfg.ClearColor}
	var err error
	switch cfg.Scene {
	case "", "triangle":
		err = s.addTriangle()
	case "quad":
		err = s.addQuad(cfg.Texture)
	default:
		return nil, fmt.Errorf("unknown scene %q", cfg.Scene)
	}
	if err == nil && cfg.Label != "" {
		err = s.addLabel(cfg.Label)
	}
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *scene) material(name string, layout moon.VertexLayout, source string, textures map[string]*moon.Texture) error {
	m := s.ctx.CreateMaterial(name, layout)
	vs, err := s.ctx.CompileShader(name+"_vs", source, "VSMain", moon.StageVertex)
	if err != nil {
		return err
	}
	ps, err := s.ctx.CompileShader(name+"_ps", source, "PSMain", moon.StagePixel)
	if err != nil {
		return err
	}
	if err := m.SetVertexShader(vs); err != nil {
		return err
	}
	if err := m.SetPixelShader(ps); err != nil {
		return err
	}
	for sampler, tex := range textures {
		if err := m.SetTexture(sampler, tex); err != nil {
			return err
		}
	}
	if err := s.ctx.CompileMaterial(m); err != nil {
		return err
	}
	s.materials = append(s.materials, m)
	return nil
}

func (s *scene) mesh(vertices []float32, layout moon.VertexLayout) error {
	count := len(vertices) * 4 / int(layout.Stride())
	mesh, err := s.ctx.CreateMeshFloat32(vertices, count)
	if err != nil {
		return err
	}
	s.meshes = append(s.meshes, mesh)
	return nil
}

func (s *scene) addTriangle() error {
	if err := s.material("triangle", moon.VertexLayoutPositionColor, moon.BasicShaderSource(), nil); err != nil {
		return err
	}
	return s.mesh(triangleVertices, moon.VertexLayoutPositionColor)
}

func (s *scene) addQuad(path string) error {
	var (
		tex *moon.Texture
		err error
	)
	if path != "" {
		tex, err = s.ctx.LoadTexture(path)
	} else {
		img := imageutil.Checkerboard(256, 32, [4]uint8{240, 240, 240, 255}, [4]uint8{40, 40, 40, 255})
		tex, err = s.ctx.CreateTextureFromImage("checker", img)
	}
	if err != nil {
		return err
	}
	s.textures = append(s.textures, tex)
	textures := map[string]*moon.Texture{"tex": tex}
	if err := s.material("quad", moon.VertexLayoutPositionTexcoord, moon.TexturedShaderSource(), textures); err != nil {
		return err
	}
	return s.mesh(quadVertices, moon.VertexLayoutPositionTexcoord)
}

func (s *scene) addLabel(text string) error {
	style := moon.DefaultLabelStyle
	style.Size = 24
	style.Background = color.NRGBA{0, 0, 0, 160}
	tex, err := s.ctx.CreateLabelTexture(text, style)
	if err != nil {
		return err
	}
	s.textures = append(s.textures, tex)
	textures := map[string]*moon.Texture{"tex": tex}
	if err := s.material("label", moon.VertexLayoutPositionTexcoord, moon.TexturedShaderSource(), textures); err != nil {
		return err
	}
	return s.mesh(labelVertices, moon.VertexLayoutPositionTexcoord)
}

// Update pulses the clear colour's brightness over time.
func (s *scene) Update(elapsed float64) {
	k := 0.85 + 0.15*math.Sin(elapsed*2)
	s.ctx.SetClearColor(s.base[0]*k, s.base[1]*k, s.base[2]*k, s.base[3])
}

// Render draws every mesh with the material created alongside it.
func (s *scene) Render(ctx *moon.Context) {
	for i, m := range s.materials {
		ctx.DrawMesh(m, s.meshes[i])
	}
}

// Destroy releases everything the scene created.
func (s *scene) Destroy() {
	for _, m := range s.materials {
		m.Destroy()
	}
	for _, m := range s.meshes {
		m.Destroy()
	}
	for _, t := range s.textures {
		t.Destroy()
	}
}
