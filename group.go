package cubism

// DrawRef identifies one draw object of one controller in a group's draw
// order.
type DrawRef struct {
	Controller *RenderController
	Object     *DrawObject
}

// RenderControllerGroup is the set of controllers sharing a
// GroupedSortingIndex. Their draw objects are merged into one draw order.
type RenderControllerGroup struct {
	SortKey     int
	Controllers []*RenderController

	entries []sortEntry
	sortBuf []sortEntry
	last    map[*RenderController]int // index of each controller's last entry
	dirty   bool
}

// DrawOrder returns the group's current draw order.
func (g *RenderControllerGroup) DrawOrder() []DrawRef {
	out := make([]DrawRef, len(g.entries))
	for i, e := range g.entries {
		out[i] = DrawRef{Controller: e.ctrl, Object: e.obj}
	}
	return out
}

// usesDepth reports whether any member sorts by depth.
func (g *RenderControllerGroup) usesDepth() bool {
	for _, c := range g.Controllers {
		if c.sortingMode == SortByDepth {
			return true
		}
	}
	return false
}

// resort rebuilds the merged entry list and sorts it.
func (g *RenderControllerGroup) resort(cam *Camera) {
	g.entries = g.entries[:0]
	for _, c := range g.Controllers {
		if c.Model == nil {
			continue
		}
		for seq, obj := range c.Model.Objects() {
			g.entries = append(g.entries, sortEntry{ctrl: c, obj: obj, ctrlSeq: c.seq, objSeq: seq})
		}
	}
	computeKeys(g.entries, cam)
	g.sortBuf = mergeSortEntries(g.entries, g.sortBuf)

	if g.last == nil {
		g.last = make(map[*RenderController]int, len(g.Controllers))
	}
	clear(g.last)
	for i, e := range g.entries {
		g.last[e.ctrl] = i
	}
	g.dirty = false
}

// groupSet keeps controllers bucketed by GroupedSortingIndex, with groups in
// ascending key order.
type groupSet struct {
	groups []*RenderControllerGroup
	dirty  bool
}

// rebuild regroups controllers, one group per key. Members keep the order of
// controllers.
func (gs *groupSet) rebuild(controllers []*RenderController) {
	byKey := make(map[int]*RenderControllerGroup)
	gs.groups = gs.groups[:0]
	for _, c := range controllers {
		if c == nil {
			continue
		}
		g, ok := byKey[c.groupedSortingIndex]
		if !ok {
			g = &RenderControllerGroup{SortKey: c.groupedSortingIndex}
			byKey[g.SortKey] = g
			gs.groups = append(gs.groups, g)
		}
		g.Controllers = append(g.Controllers, c)
		g.dirty = true
	}
	sortGroups(gs.groups)
	gs.dirty = false
}

// sortGroups sorts groups by SortKey using insertion sort. Stable, and the
// group count is small.
func sortGroups(groups []*RenderControllerGroup) {
	for i := 1; i < len(groups); i++ {
		key := groups[i]
		j := i - 1
		for j >= 0 && groups[j].SortKey > key.SortKey {
			groups[j+1] = groups[j]
			j--
		}
		groups[j+1] = key
	}
}

// groupOf returns the group holding c, or nil.
func (gs *groupSet) groupOf(c *RenderController) *RenderControllerGroup {
	for _, g := range gs.groups {
		for _, m := range g.Controllers {
			if m == c {
				return g
			}
		}
	}
	return nil
}
