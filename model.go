package cubism

import (
	"fmt"
	"slices"
)

// Model is the resolved, render-ready form of one puppet: its part tree and
// one DrawObject per drawable and offscreen slot.
type Model struct {
	Tree       *PartTree
	Drawables  []DrawObject
	Offscreens []DrawObject

	// objects lists every draw object, drawables first, in slot order. The
	// position in this slice is the object's sequence number for sorting.
	objects []*DrawObject
}

// NewModel validates indices and builds a model. Kind and Index of every
// draw object are set from its position, an unset part opacity becomes 1
// and an unset offscreen multiply color becomes white. Parent links are not checked for cycles; every
// ancestor walk is bounded instead.
func NewModel(parts []Part, drawables, offscreens []DrawObject) (*Model, error) {
	np, nd, no := len(parts), len(drawables), len(offscreens)
	for i := range parts {
		p := &parts[i]
		p.Index = i
		if p.Opacity == 0 {
			p.Opacity = 1
		}
		if p.ParentIndex < -1 || p.ParentIndex >= np {
			return nil, fmt.Errorf("part %d: parent %d out of range: %w", i, p.ParentIndex, ErrInvalidModel)
		}
		if p.OffscreenIndex < -1 || p.OffscreenIndex >= no {
			return nil, fmt.Errorf("part %d: offscreen %d out of range: %w", i, p.OffscreenIndex, ErrInvalidModel)
		}
	}

	drawableParents := make([]int, nd)
	for i := range drawables {
		d := &drawables[i]
		d.Kind = KindDrawable
		d.Index = i
		if d.PartIndex < -1 || d.PartIndex >= np {
			return nil, fmt.Errorf("drawable %d: part %d out of range: %w", i, d.PartIndex, ErrInvalidModel)
		}
		for _, m := range d.Masks {
			if m < 0 || m >= nd {
				return nil, fmt.Errorf("drawable %d: mask %d out of range: %w", i, m, ErrInvalidModel)
			}
		}
		drawableParents[i] = d.PartIndex
	}

	owners := make([]int, no)
	for i := range offscreens {
		o := &offscreens[i]
		o.Kind = KindOffscreen
		o.Index = i
		if o.PartIndex < 0 || o.PartIndex >= np {
			return nil, fmt.Errorf("offscreen %d: owner part %d out of range: %w", i, o.PartIndex, ErrInvalidModel)
		}
		if parts[o.PartIndex].OffscreenIndex != i {
			return nil, fmt.Errorf("offscreen %d: owner part %d points at offscreen %d: %w",
				i, o.PartIndex, parts[o.PartIndex].OffscreenIndex, ErrInvalidModel)
		}
		for _, m := range o.Masks {
			if m < 0 || m >= nd {
				return nil, fmt.Errorf("offscreen %d: mask %d out of range: %w", i, m, ErrInvalidModel)
			}
		}
		if o.MultiplyColor == (Color{}) {
			o.MultiplyColor = ColorWhite
		}
		owners[i] = o.PartIndex
	}

	m := &Model{
		Tree:       NewPartTree(parts, drawableParents, owners),
		Drawables:  drawables,
		Offscreens: offscreens,
	}
	for i := range m.Offscreens {
		o := &m.Offscreens[i]
		nearest, err := m.Tree.NearestOffscreenPart(m.Tree.Parent(o.PartIndex))
		o.HasRootOffscreenAncestor = err == nil && nearest >= 0
	}
	m.objects = make([]*DrawObject, 0, nd+no)
	for i := range m.Drawables {
		m.objects = append(m.objects, &m.Drawables[i])
	}
	for i := range m.Offscreens {
		m.objects = append(m.objects, &m.Offscreens[i])
	}
	return m, nil
}

// Objects returns every draw object, drawables first. The returned slice
// MUST NOT be mutated.
func (m *Model) Objects() []*DrawObject {
	return m.objects
}

// Apply copies an evaluated frame into the model. Drawable visibility and
// vertex positions follow the dynamic flags when flags are present; render
// orders and opacities, part opacities included, are always taken. It reports whether any render
// order changed.
func (m *Model) Apply(f *EvaluatedFrame) (orderChanged bool) {
	for i := range m.Drawables {
		d := &m.Drawables[i]
		flags := FlagIsVisible | FlagVertexPositionsDidChange
		if i < len(f.DrawableFlags) {
			flags = f.DrawableFlags[i]
		}
		d.Visible = flags.Has(FlagIsVisible)
		if i < len(f.DrawableRenderOrders) && d.RenderOrder != f.DrawableRenderOrders[i] {
			d.RenderOrder = f.DrawableRenderOrders[i]
			orderChanged = true
		}
		if i < len(f.DrawableOpacities) {
			d.Opacity = f.DrawableOpacities[i]
		}
		if i < len(f.VertexPositions) && flags.Has(FlagVertexPositionsDidChange) {
			if d.Mesh == nil {
				d.Mesh = &Mesh{}
			}
			d.Mesh.Positions = append(d.Mesh.Positions[:0], f.VertexPositions[i]...)
		}
	}
	for i := range m.Offscreens {
		o := &m.Offscreens[i]
		if i < len(f.OffscreenRenderOrders) && o.RenderOrder != f.OffscreenRenderOrders[i] {
			o.RenderOrder = f.OffscreenRenderOrders[i]
			orderChanged = true
		}
		if i < len(f.OffscreenOpacities) {
			o.Opacity = f.OffscreenOpacities[i]
		}
		var flags DynamicFlags
		if i < len(f.OffscreenFlags) {
			flags = f.OffscreenFlags[i]
			o.Visible = flags.Has(FlagIsVisible)
		}
		if flags.Has(FlagBlendColorDidChange) {
			if i < len(f.MultiplyColors) {
				o.MultiplyColor = f.MultiplyColors[i]
			}
			if i < len(f.ScreenColors) {
				o.ScreenColor = f.ScreenColors[i]
			}
		}
	}
	for i, op := range f.PartOpacities {
		if i >= m.Tree.Len() {
			break
		}
		m.Tree.SetOpacity(i, op)
	}
	return orderChanged
}

// maskedObjects returns the drawables and offscreens that sample a mask, in
// slot order.
func (m *Model) maskedObjects() []*DrawObject {
	var out []*DrawObject
	for _, o := range m.objects {
		if o.IsMasked() {
			out = append(out, o)
		}
	}
	return out
}

// maskKey identifies a mask set independent of the listing order.
func maskKey(masks []int) string {
	s := slices.Clone(masks)
	slices.Sort(s)
	s = slices.Compact(s)
	return fmt.Sprint(s)
}
