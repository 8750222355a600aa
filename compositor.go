package cubism

import (
	"errors"
	"log/slog"
)

// inflight is an offscreen region currently receiving draws.
type inflight struct {
	ctrl    *RenderController
	obj     *DrawObject
	surface *Surface
}

// compositor walks a group's draw order and records the draw and composite
// commands. Each controller nests its offscreen regions as its own stack: a
// region is composited into the controller's region below it (or the root
// surface) as soon as the walk reaches an object of that controller outside
// it, so children always land before their parents. Objects of other
// controllers interleaved in the group never close a region.
type compositor struct {
	cb         *CommandBuffer
	offscreens *OffscreenTextureManager
	root       *Surface
	scratch    *Surface // shared backdrop snapshot for advanced blends
	sink       EventSink
	debug      bool

	// stack holds the open regions of every controller in opening order.
	stack []inflight
}

// walkGroup records one group. Every region opened by the group is closed
// before it returns.
func (c *compositor) walkGroup(g *RenderControllerGroup) {
	for i := range g.entries {
		e := &g.entries[i]
		c.draw(e.ctrl, e.obj)
		if g.last[e.ctrl] == i {
			c.flushController(e.ctrl)
		}
	}
	c.flushAll()
}

func (c *compositor) draw(ctrl *RenderController, obj *DrawObject) {
	if ctrl == nil || ctrl.Model == nil || obj == nil {
		return
	}
	switch obj.Kind {
	case KindOffscreen:
		c.unwindTo(ctrl, ctrl.Model.Tree.Parent(obj.PartIndex))
		c.beginOffscreen(ctrl, obj)
	case KindDrawable:
		c.unwindTo(ctrl, obj.PartIndex)
		c.drawDrawable(ctrl, obj)
	}
}

// unwindTo flushes ctrl's open regions until its top region contains part.
// On a malformed hierarchy the remaining regions are left open and the
// object draws into the current top.
func (c *compositor) unwindTo(ctrl *RenderController, part int) {
	for {
		i := c.topOf(ctrl, len(c.stack))
		if i < 0 {
			return
		}
		ok, err := ctrl.Model.Tree.IsAncestorOrSelf(c.stack[i].obj.PartIndex, part)
		if err != nil {
			c.reportHierarchy(ctrl, part, err)
			return
		}
		if ok {
			return
		}
		c.flushAt(i)
	}
}

func (c *compositor) beginOffscreen(ctrl *RenderController, obj *DrawObject) {
	s := c.offscreens.GetOffscreenRenderTexture(0, 0)
	c.stack = append(c.stack, inflight{ctrl: ctrl, obj: obj, surface: s})
	if c.debug {
		debugCheckNesting(c.depthOf(ctrl), ctrl)
	}
	c.cb.SetRenderTarget(s)
	c.cb.ClearRenderTarget(ClearColor, ColorTransparent)
}

func (c *compositor) drawDrawable(ctrl *RenderController, obj *DrawObject) {
	if !obj.Visible || obj.Opacity <= 0 || obj.Mesh == nil {
		return
	}
	top := c.topOf(ctrl, len(c.stack))
	opacity := obj.Opacity * c.partOpacity(ctrl, obj.PartIndex, false)
	if top < 0 {
		opacity *= ctrl.Opacity
	}
	if opacity <= 0 {
		return
	}

	target := c.surfaceAt(top)
	c.bind(target)

	params := DrawParams{
		Material:      MaterialUnlit,
		Blend:         obj.Blend,
		Opacity:       float32(opacity),
		MultiplyColor: ColorWhite,
		ScreenColor:   ColorTransparent,
		DoubleSided:   obj.DoubleSided,
		TextureIndex:  obj.TextureIndex,
		ObjectKind:    KindDrawable,
		ObjectIndex:   obj.Index,
	}
	if ctrl.masks != nil {
		if mb := ctrl.masks.binding(obj); mb.Active {
			params.Material = MaterialUnlitMasked
			params.Mask = mb
		}
	}
	if !obj.Blend.IsCompatible() {
		params.Backdrop = c.snapshot(target)
	}
	c.cb.DrawMesh(obj.Mesh, affine32(computeLocalTransform(ctrl)), params)
}

// flushAt composites the region at stack index i into its controller's next
// open region below it, or the root, and returns its surface to the pool.
func (c *compositor) flushAt(i int) {
	top := c.stack[i]
	c.stack = append(c.stack[:i], c.stack[i+1:]...)
	obj := top.obj

	below := c.topOf(top.ctrl, i)
	parent := c.surfaceAt(below)
	opacity := obj.Opacity * c.partOpacity(top.ctrl, obj.PartIndex, true)
	if below < 0 {
		opacity *= top.ctrl.Opacity
	}

	if obj.Visible && opacity > 0 {
		params := DrawParams{
			Material:      MaterialComposite,
			Blend:         obj.Blend,
			Opacity:       float32(opacity),
			MultiplyColor: obj.MultiplyColor,
			ScreenColor:   obj.ScreenColor,
			ObjectKind:    KindOffscreen,
			ObjectIndex:   obj.Index,
		}
		if top.ctrl.masks != nil {
			params.Mask = top.ctrl.masks.binding(obj)
		}
		if !obj.Blend.IsCompatible() {
			params.Backdrop = c.snapshot(parent)
		}
		c.cb.Blit(top.surface, parent, params)
	}
	c.offscreens.StopUsingRenderTexture(c.cb, top.surface)
}

// flushController closes every open region of ctrl, innermost first.
func (c *compositor) flushController(ctrl *RenderController) {
	for i := c.topOf(ctrl, len(c.stack)); i >= 0; i = c.topOf(ctrl, len(c.stack)) {
		c.flushAt(i)
	}
}

func (c *compositor) flushAll() {
	for len(c.stack) > 0 {
		c.flushAt(len(c.stack) - 1)
	}
}

// topOf returns the index of ctrl's last open region below stack index
// limit, or -1.
func (c *compositor) topOf(ctrl *RenderController, limit int) int {
	for i := limit - 1; i >= 0; i-- {
		if c.stack[i].ctrl == ctrl {
			return i
		}
	}
	return -1
}

func (c *compositor) depthOf(ctrl *RenderController) int {
	n := 0
	for _, f := range c.stack {
		if f.ctrl == ctrl {
			n++
		}
	}
	return n
}

// surfaceAt returns the surface of the region at stack index i, or the root
// for -1.
func (c *compositor) surfaceAt(i int) *Surface {
	if i < 0 {
		return c.root
	}
	return c.stack[i].surface
}

func (c *compositor) bind(s *Surface) {
	if id, ok := c.cb.Target(); ok && id == surfaceID(s) {
		return
	}
	c.cb.SetRenderTarget(s)
}

// snapshot copies target into the scratch surface and rebinds target. The
// returned ID is passed to the draw as its backdrop.
func (c *compositor) snapshot(target *Surface) SurfaceID {
	if c.scratch == nil {
		return CameraTarget
	}
	c.cb.Blit(target, c.scratch, DrawParams{Material: MaterialCopy, Blend: BlendNormal, Opacity: 1})
	c.cb.SetRenderTarget(target)
	return c.scratch.ID
}

// partOpacity is the part opacity product up to the enclosing region. A
// drawable's parent that owns a region applies its opacity when the region
// composites, so drawables pass owned=false.
func (c *compositor) partOpacity(ctrl *RenderController, part int, owned bool) float64 {
	op, err := ctrl.Model.Tree.OpacityToBoundary(part, owned)
	if err != nil {
		c.reportHierarchy(ctrl, part, err)
	}
	return op
}

func (c *compositor) reportHierarchy(ctrl *RenderController, part int, err error) {
	Logger().Error("malformed part hierarchy, skipping flush",
		slog.String("controller", ctrl.Name),
		slog.Int("part", part),
		slog.Any("error", err))
	if errors.Is(err, ErrMalformedHierarchy) {
		emit(c.sink, RenderEvent{Type: EventMalformedHierarchy, Controller: ctrl.Name, Index: part, Err: err})
	}
}
