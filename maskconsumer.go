package cubism

// maskMargin expands the masked bounds so antialiased edges stay inside
// the tile.
const maskMargin = 0.05

// maskGroup is one distinct mask set of a model. All objects masked by the
// same drawables share one tile.
type maskGroup struct {
	masks   []int
	members []*DrawObject

	tile   MaskTile
	bounds Rect
	matrix [6]float64 // model space -> normalized page space
	active bool
}

// maskConsumer is the MaskSource of one render controller.
type maskConsumer struct {
	ctrl   *RenderController
	groups []*maskGroup
	byObj  map[*DrawObject]*maskGroup
	pages  []*Surface // set by the renderer
}

func newMaskConsumer(ctrl *RenderController) *maskConsumer {
	mc := &maskConsumer{ctrl: ctrl, byObj: make(map[*DrawObject]*maskGroup)}
	if ctrl.Model == nil {
		return mc
	}
	byKey := make(map[string]*maskGroup)
	for _, obj := range ctrl.Model.maskedObjects() {
		key := maskKey(obj.Masks)
		g, ok := byKey[key]
		if !ok {
			g = &maskGroup{masks: obj.Masks}
			byKey[key] = g
			mc.groups = append(mc.groups, g)
		}
		g.members = append(g.members, obj)
		mc.byObj[obj] = g
	}
	return mc
}

func (mc *maskConsumer) NecessaryTileCount() int {
	return len(mc.groups)
}

func (mc *maskConsumer) SetTiles(tiles []MaskTile) {
	for i, g := range mc.groups {
		if i < len(tiles) {
			g.tile = tiles[i]
		} else {
			g.tile = degenerateTile(-1)
		}
	}
}

// update recomputes every group's bounds and page matrix from this frame's
// meshes.
func (mc *maskConsumer) update() {
	if mc.ctrl.Model == nil {
		return
	}
	drawables := mc.ctrl.Model.Drawables
	for _, g := range mc.groups {
		g.active = false
		if g.tile.IsDegenerate() {
			continue
		}
		var bounds Rect
		found := false
		for _, obj := range g.members {
			var b Rect
			var ok bool
			if obj.Kind == KindDrawable {
				b, ok = obj.Mesh.Bounds()
			} else {
				b, ok = mc.offscreenBounds(obj)
			}
			if !ok {
				continue
			}
			if found {
				bounds = rectUnion(bounds, b)
			} else {
				bounds, found = b, true
			}
		}
		if !found {
			// Fall back to the mask geometry itself.
			for _, m := range g.masks {
				b, ok := drawables[m].Mesh.Bounds()
				if !ok {
					continue
				}
				if found {
					bounds = rectUnion(bounds, b)
				} else {
					bounds, found = b, true
				}
			}
		}
		if !found || bounds.Width <= 0 || bounds.Height <= 0 {
			continue
		}
		g.bounds = bounds.Expand(bounds.Width*maskMargin, bounds.Height*maskMargin)
		g.matrix = rectToRect(g.bounds, g.tile.Rect())
		g.active = true
	}
}

// offscreenBounds is the union of the drawables the offscreen contains.
func (mc *maskConsumer) offscreenBounds(obj *DrawObject) (Rect, bool) {
	model := mc.ctrl.Model
	var bounds Rect
	found := false
	for _, d := range model.Tree.DescendantDrawables(obj.PartIndex) {
		b, ok := model.Drawables[d].Mesh.Bounds()
		if !ok {
			continue
		}
		if found {
			bounds = rectUnion(bounds, b)
		} else {
			bounds, found = b, true
		}
	}
	return bounds, found
}

func (mc *maskConsumer) AddToCommandBuffer(cb *CommandBuffer, page int) {
	if mc.ctrl.Model == nil {
		return
	}
	drawables := mc.ctrl.Model.Drawables
	for _, g := range mc.groups {
		if !g.active || g.tile.Page != page {
			continue
		}
		m := affine32(g.matrix)
		for _, idx := range g.masks {
			d := &drawables[idx]
			if d.Mesh == nil {
				continue
			}
			cb.DrawMesh(d.Mesh, m, DrawParams{
				Material:     MaterialMask,
				Blend:        BlendNormal,
				Opacity:      1,
				DoubleSided:  true,
				TextureIndex: d.TextureIndex,
				Channel:      g.tile.Channel,
				Mask:         MaskBinding{Tile: g.tile, Matrix: m},
				ObjectKind:   KindDrawable,
				ObjectIndex:  idx,
			})
		}
	}
}

// binding returns the mask parameters for obj. Unmasked objects and
// degraded groups return an inactive binding.
func (mc *maskConsumer) binding(obj *DrawObject) MaskBinding {
	g, ok := mc.byObj[obj]
	if !ok || !g.active {
		return MaskBinding{}
	}
	var page SurfaceID
	if g.tile.Page < len(mc.pages) {
		page = surfaceID(mc.pages[g.tile.Page])
	}
	return MaskBinding{
		Active:   true,
		Page:     page,
		Tile:     g.tile,
		Matrix:   affine32(g.matrix),
		Inverted: obj.InvertedMask,
	}
}
