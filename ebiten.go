package cubism

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenBlend returns the ebiten.Blend closest to this BlendMode. Compatible
// modes are exact; advanced modes are approximated with fixed-function
// blending and fall back to source-over when no equivalent exists.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b.Color {
	case ColorBlendNormal:
		switch b.Alpha {
		case AlphaBlendAtop:
			return ebiten.BlendSourceAtop
		case AlphaBlendOut:
			return ebiten.BlendSourceOut
		default:
			return ebiten.BlendSourceOver
		}
	case ColorBlendAddCompatible, ColorBlendAdd, ColorBlendAddGlow, ColorBlendLinearLight:
		return ebiten.BlendLighter
	case ColorBlendMultiplyCompatible, ColorBlendMultiply, ColorBlendColorBurn, ColorBlendLinearBurn:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case ColorBlendScreen, ColorBlendColorDodge:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case ColorBlendDarken:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationMin,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case ColorBlendLighten:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationMax,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// EbitenAllocator backs surfaces with unmanaged ebiten images.
type EbitenAllocator struct {
	next   SurfaceID
	images map[SurfaceID]*ebiten.Image
}

// NewEbitenAllocator creates an empty allocator.
func NewEbitenAllocator() *EbitenAllocator {
	return &EbitenAllocator{images: make(map[SurfaceID]*ebiten.Image)}
}

func newSurfaceImage(w, h int) *ebiten.Image {
	return ebiten.NewImageWithOptions(image.Rect(0, 0, max(w, 1), max(h, 1)), &ebiten.NewImageOptions{
		Unmanaged: true,
	})
}

func (a *EbitenAllocator) Allocate(label string, w, h int) *Surface {
	a.next++
	s := &Surface{ID: a.next, Width: w, Height: h, Label: label}
	a.images[s.ID] = newSurfaceImage(w, h)
	return s
}

func (a *EbitenAllocator) Resize(s *Surface, w, h int) {
	if s == nil || (s.Width == w && s.Height == h) {
		return
	}
	if img, ok := a.images[s.ID]; ok {
		img.Deallocate()
	}
	a.images[s.ID] = newSurfaceImage(w, h)
	s.Width, s.Height = w, h
}

func (a *EbitenAllocator) Release(s *Surface) {
	if s == nil {
		return
	}
	if img, ok := a.images[s.ID]; ok {
		img.Deallocate()
		delete(a.images, s.ID)
	}
}

// Image returns the image backing id, or nil.
func (a *EbitenAllocator) Image(id SurfaceID) *ebiten.Image {
	return a.images[id]
}

// EbitenExecutor replays a CommandBuffer with ebiten draw calls. Masked
// draws are rendered unmasked and screen colors are ignored: both need
// shader support, which this executor does not provide.
type EbitenExecutor struct {
	alloc    *EbitenAllocator
	textures []*ebiten.Image
	white    *ebiten.Image

	view [6]float32
	proj [6]float32

	verts []ebiten.Vertex
	inds  []uint16

	warnedMasks bool
}

// NewEbitenExecutor creates an executor resolving surfaces through alloc.
func NewEbitenExecutor(alloc *EbitenAllocator) *EbitenExecutor {
	return &EbitenExecutor{
		alloc: alloc,
		view:  identityTransform32,
		proj:  identityTransform32,
	}
}

// SetTexture binds img to a drawable texture index.
func (x *EbitenExecutor) SetTexture(index int, img *ebiten.Image) {
	if index < 0 {
		return
	}
	for len(x.textures) <= index {
		x.textures = append(x.textures, nil)
	}
	x.textures[index] = img
}

// Execute replays cb. The camera target resolves to screen.
func (x *EbitenExecutor) Execute(cb *CommandBuffer, screen *ebiten.Image) {
	cmds := cb.Commands()
	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.Type {
		case CmdClearRenderTarget:
			if dst := x.resolve(cmd.Target, screen); dst != nil && cmd.ClearFlags&ClearColor != 0 {
				if cmd.ClearColor == ColorTransparent {
					dst.Clear()
				} else {
					dst.Fill(toRGBA(cmd.ClearColor))
				}
			}
		case CmdSetViewMatrix:
			x.view = cmd.Matrix
		case CmdSetProjectionMatrix:
			x.proj = cmd.Matrix
		case CmdDrawMesh:
			x.drawMesh(cmd, screen)
		case CmdBlit:
			x.blit(cmd, screen)
		}
	}
}

func (x *EbitenExecutor) resolve(id SurfaceID, screen *ebiten.Image) *ebiten.Image {
	if id == CameraTarget {
		return screen
	}
	return x.alloc.Image(id)
}

func (x *EbitenExecutor) texture(index int) *ebiten.Image {
	if index >= 0 && index < len(x.textures) && x.textures[index] != nil {
		return x.textures[index]
	}
	if x.white == nil {
		x.white = ebiten.NewImage(1, 1)
		x.white.Fill(color.White)
	}
	return x.white
}

func (x *EbitenExecutor) drawMesh(cmd *Command, screen *ebiten.Image) {
	dst := x.resolve(cmd.Target, screen)
	m := cmd.Mesh
	if dst == nil || m == nil || len(m.Indices) == 0 {
		return
	}
	if cmd.Params.Mask.Active && !x.warnedMasks {
		x.warnedMasks = true
		Logger().Warn("ebiten executor draws masked meshes unmasked",
			slog.Int("drawable", cmd.Params.ObjectIndex))
	}

	src := x.texture(cmd.Params.TextureIndex)
	sw, sh := float32(src.Bounds().Dx()), float32(src.Bounds().Dy())
	dw, dh := float32(dst.Bounds().Dx()), float32(dst.Bounds().Dy())

	r, g, b, a := float32(1), float32(1), float32(1), cmd.Params.Opacity
	if cmd.Params.Material == MaterialMask {
		// Write the mask into its channel only.
		r, g, b, a = channelColor(cmd.Params.Channel)
	}

	x.verts = x.verts[:0]
	for i := 0; i+1 < len(m.Positions); i += 2 {
		px, py := transformPoint32(cmd.Transform, m.Positions[i], m.Positions[i+1])
		px, py = transformPoint32(x.view, px, py)
		px, py = transformPoint32(x.proj, px, py)
		var u, v float32
		if i+1 < len(m.UVs) {
			u, v = m.UVs[i], m.UVs[i+1]
		}
		x.verts = append(x.verts, ebiten.Vertex{
			DstX:   (px + 1) / 2 * dw,
			DstY:   (1 - py) / 2 * dh,
			SrcX:   u * sw,
			SrcY:   v * sh,
			ColorR: r,
			ColorG: g,
			ColorB: b,
			ColorA: a,
		})
	}
	x.inds = append(x.inds[:0], m.Indices...)

	var op ebiten.DrawTrianglesOptions
	if cmd.Params.Material == MaterialMask {
		op.Blend = ebiten.BlendLighter
		op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	} else {
		op.Blend = cmd.Params.Blend.EbitenBlend()
	}
	dst.DrawTriangles(x.verts, x.inds, src, &op)
}

func (x *EbitenExecutor) blit(cmd *Command, screen *ebiten.Image) {
	src := x.resolve(cmd.Source, screen)
	dst := x.resolve(cmd.Target, screen)
	if src == nil || dst == nil || src == dst {
		return
	}
	sb, db := src.Bounds(), dst.Bounds()

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	switch cmd.Params.Material {
	case MaterialCopy:
		op.Blend = ebiten.BlendCopy
	default:
		mc := cmd.Params.MultiplyColor
		op.ColorScale.Scale(float32(mc.R), float32(mc.G), float32(mc.B), 1)
		op.ColorScale.ScaleAlpha(cmd.Params.Opacity)
		op.Blend = cmd.Params.Blend.EbitenBlend()
	}
	dst.DrawImage(src, &op)
}

func channelColor(ch int) (r, g, b, a float32) {
	switch ch {
	case 0:
		return 1, 0, 0, 0
	case 1:
		return 0, 1, 0, 0
	case 2:
		return 0, 0, 1, 0
	default:
		return 0, 0, 0, 1
	}
}

func toRGBA(c Color) color.RGBA {
	return color.RGBA{
		R: uint8(c.R*c.A*255 + 0.5),
		G: uint8(c.G*c.A*255 + 0.5),
		B: uint8(c.B*c.A*255 + 0.5),
		A: uint8(c.A*255 + 0.5),
	}
}
