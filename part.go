package cubism

import (
	"fmt"
	"slices"
)

// Part is a node of a model's part tree.
type Part struct {
	Index int
	// ParentIndex is -1 for root parts.
	ParentIndex int
	// OffscreenIndex is the offscreen this part renders its children into,
	// or -1.
	OffscreenIndex int
	// Opacity is a multiplier applied when the part's content is
	// composited: to child drawables directly, or to the owned offscreen
	// when the part has one. NewModel treats 0 as unset and uses 1; hide a
	// part afterwards with PartTree.SetOpacity or an evaluated frame.
	Opacity float64
}

// PartTree is an arena of parts indexed by part index. Parent lookup is
// O(1); child and descendant sets are derived on first use and cached until
// Reset.
type PartTree struct {
	parts           []Part
	drawableParents []int
	offscreenOwners []int

	rel *partRelations
}

type partRelations struct {
	childParts      [][]int
	childDrawables  [][]int
	childOffscreens [][]int

	// transitive closures, filled per part on demand
	allParts      map[int][]int
	allDrawables  map[int][]int
	allOffscreens map[int][]int
}

// NewPartTree builds a tree from parts plus the parent part of every
// drawable and the owner part of every offscreen.
func NewPartTree(parts []Part, drawableParents, offscreenOwners []int) *PartTree {
	return &PartTree{
		parts:           parts,
		drawableParents: drawableParents,
		offscreenOwners: offscreenOwners,
	}
}

// Len returns the number of parts.
func (t *PartTree) Len() int { return len(t.parts) }

// Part returns the part at index i.
func (t *PartTree) Part(i int) (Part, bool) {
	if i < 0 || i >= len(t.parts) {
		return Part{}, false
	}
	return t.parts[i], true
}

// Parent returns the parent index of part i, or -1.
func (t *PartTree) Parent(i int) int {
	if i < 0 || i >= len(t.parts) {
		return -1
	}
	return t.parts[i].ParentIndex
}

// OffscreenIndex returns the offscreen owned by part i, or -1.
func (t *PartTree) OffscreenIndex(i int) int {
	if i < 0 || i >= len(t.parts) {
		return -1
	}
	return t.parts[i].OffscreenIndex
}

// SetOpacity sets the host-side opacity multiplier of part i.
func (t *PartTree) SetOpacity(i int, opacity float64) {
	if i < 0 || i >= len(t.parts) {
		return
	}
	t.parts[i].Opacity = opacity
}

// opacityRef exposes the opacity field for tweens.
func (t *PartTree) opacityRef(i int) *float64 {
	if i < 0 || i >= len(t.parts) {
		return nil
	}
	return &t.parts[i].Opacity
}

// Reset drops all derived sets. Call after structural changes.
func (t *PartTree) Reset() {
	t.rel = nil
}

// ChildParts returns the direct child parts of part i.
func (t *PartTree) ChildParts(i int) []int {
	return at(t.relations().childParts, i)
}

// ChildDrawables returns the drawables whose parent is part i.
func (t *PartTree) ChildDrawables(i int) []int {
	return at(t.relations().childDrawables, i)
}

// ChildOffscreens returns the offscreens owned by the direct child parts of
// part i.
func (t *PartTree) ChildOffscreens(i int) []int {
	return at(t.relations().childOffscreens, i)
}

// DescendantParts returns every part below part i.
func (t *PartTree) DescendantParts(i int) []int {
	r := t.relations()
	if v, ok := r.allParts[i]; ok {
		return v
	}
	var out []int
	t.walkDescendants(i, func(p int) { out = append(out, p) })
	r.allParts[i] = out
	return out
}

// DescendantDrawables returns every drawable below part i.
func (t *PartTree) DescendantDrawables(i int) []int {
	r := t.relations()
	if v, ok := r.allDrawables[i]; ok {
		return v
	}
	out := slices.Clone(t.ChildDrawables(i))
	for _, p := range t.DescendantParts(i) {
		out = append(out, t.ChildDrawables(p)...)
	}
	r.allDrawables[i] = out
	return out
}

// DescendantOffscreens returns every offscreen owned by a part below part i.
func (t *PartTree) DescendantOffscreens(i int) []int {
	r := t.relations()
	if v, ok := r.allOffscreens[i]; ok {
		return v
	}
	var out []int
	for _, p := range t.DescendantParts(i) {
		if o := t.parts[p].OffscreenIndex; o >= 0 {
			out = append(out, o)
		}
	}
	r.allOffscreens[i] = out
	return out
}

// walkDescendants visits each part below i once, depth-first. The visited
// set keeps a cyclic tree from looping.
func (t *PartTree) walkDescendants(i int, fn func(int)) {
	if i < 0 || i >= len(t.parts) {
		return
	}
	seen := make([]bool, len(t.parts))
	seen[i] = true
	stack := slices.Clone(t.ChildParts(i))
	slices.Reverse(stack)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[p] {
			continue
		}
		seen[p] = true
		fn(p)
		children := t.ChildParts(p)
		for k := len(children) - 1; k >= 0; k-- {
			stack = append(stack, children[k])
		}
	}
}

// IsAncestorOrSelf reports whether ancestor is part or one of its
// ancestors. The walk is bounded by the part count.
func (t *PartTree) IsAncestorOrSelf(ancestor, part int) (bool, error) {
	p := part
	for steps := 0; steps <= len(t.parts); steps++ {
		if p == ancestor {
			return true, nil
		}
		if p < 0 {
			return false, nil
		}
		p = t.Parent(p)
	}
	return false, fmt.Errorf("walk from part %d: %w", part, ErrMalformedHierarchy)
}

// NearestOffscreenPart returns the closest part at or above part that owns
// an offscreen, or -1 when the root is reached first.
func (t *PartTree) NearestOffscreenPart(part int) (int, error) {
	p := part
	for steps := 0; steps <= len(t.parts); steps++ {
		if p < 0 {
			return -1, nil
		}
		if t.OffscreenIndex(p) >= 0 {
			return p, nil
		}
		p = t.Parent(p)
	}
	return -1, fmt.Errorf("walk from part %d: %w", part, ErrMalformedHierarchy)
}

// OpacityToBoundary multiplies the opacities from part upward, stopping
// below the next part that owns an offscreen: that part's opacity is
// applied when its offscreen composites. includeStart controls whether
// part's own opacity counts even if it owns an offscreen.
func (t *PartTree) OpacityToBoundary(part int, includeStart bool) (float64, error) {
	if part < 0 || part >= len(t.parts) {
		return 1, nil
	}
	if !includeStart && t.parts[part].OffscreenIndex >= 0 {
		return 1, nil
	}
	opacity := 1.0
	p := part
	for steps := 0; steps <= len(t.parts); steps++ {
		opacity *= t.parts[p].Opacity
		parent := t.parts[p].ParentIndex
		if parent < 0 || parent >= len(t.parts) || t.parts[parent].OffscreenIndex >= 0 {
			return opacity, nil
		}
		p = parent
	}
	return opacity, fmt.Errorf("opacity walk from part %d: %w", part, ErrMalformedHierarchy)
}

func (t *PartTree) relations() *partRelations {
	if t.rel != nil {
		return t.rel
	}
	n := len(t.parts)
	r := &partRelations{
		childParts:      make([][]int, n),
		childDrawables:  make([][]int, n),
		childOffscreens: make([][]int, n),
		allParts:        make(map[int][]int),
		allDrawables:    make(map[int][]int),
		allOffscreens:   make(map[int][]int),
	}
	for i, p := range t.parts {
		if p.ParentIndex < 0 || p.ParentIndex >= n || p.ParentIndex == i {
			continue
		}
		r.childParts[p.ParentIndex] = append(r.childParts[p.ParentIndex], i)
		if p.OffscreenIndex >= 0 {
			r.childOffscreens[p.ParentIndex] = append(r.childOffscreens[p.ParentIndex], p.OffscreenIndex)
		}
	}
	for d, p := range t.drawableParents {
		if p >= 0 && p < n {
			r.childDrawables[p] = append(r.childDrawables[p], d)
		}
	}
	t.rel = r
	return r
}

func at(s [][]int, i int) []int {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}
