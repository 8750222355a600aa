package cubism

import "math"

// sortEntry is one draw object in a group's merged draw order.
type sortEntry struct {
	ctrl *RenderController
	obj  *DrawObject

	ctrlSeq int // controller registration order
	objSeq  int // position in the model's object list

	order    int // effective sorting order
	depth    int // quantized camera distance, depth mode only
	useDepth bool
}

// depthKey quantizes the signed camera distance of an object, measured in
// depth offsets. Truncation is toward zero: ceil for negative ratios, floor
// otherwise.
func depthKey(ctrl *RenderController, renderOrder int, cam *Camera) int {
	offset := ctrl.depthOffset
	if offset <= 0 {
		offset = DefaultDepthOffset
	}
	var camPos, forward Vec3
	forward = Vec3{0, 0, 1}
	if cam != nil {
		camPos = cam.Position()
		forward = cam.Forward
	}
	distance := ctrl.Position().Sub(camPos).Dot(forward.Normalize()) - float64(renderOrder)*offset
	ratio := distance / offset
	if ratio < 0 {
		return int(math.Ceil(ratio))
	}
	return int(math.Floor(ratio))
}

// computeKeys fills the sort keys of every entry and writes the effective
// order back to the draw object.
func computeKeys(entries []sortEntry, cam *Camera) {
	for i := range entries {
		e := &entries[i]
		switch e.ctrl.sortingMode {
		case SortByDepth:
			e.order = e.ctrl.sortingOrder
			e.depth = depthKey(e.ctrl, e.obj.RenderOrder, cam)
			e.useDepth = true
		default:
			e.order = e.ctrl.sortingOrder + e.obj.RenderOrder
			e.depth = 0
			e.useDepth = false
		}
		e.obj.SortingOrder = e.order
	}
}

// entryLessOrEqual orders by sorting order, then far-to-near depth when both
// sides sort by depth, then render order, controller registration and
// object sequence. The final <= keeps the merge stable.
func entryLessOrEqual(a, b *sortEntry) bool {
	if a.order != b.order {
		return a.order < b.order
	}
	if a.useDepth && b.useDepth && a.depth != b.depth {
		return a.depth > b.depth
	}
	if a.obj.RenderOrder != b.obj.RenderOrder {
		return a.obj.RenderOrder < b.obj.RenderOrder
	}
	if a.ctrlSeq != b.ctrlSeq {
		return a.ctrlSeq < b.ctrlSeq
	}
	return a.objSeq <= b.objSeq
}

// mergeSortEntries sorts entries in place using buf as scratch space and
// returns the (possibly grown) buffer. Bottom-up merge sort: no allocations
// once buf reaches the high-water mark.
func mergeSortEntries(entries, buf []sortEntry) []sortEntry {
	n := len(entries)
	if n <= 1 {
		return buf
	}
	if cap(buf) < n {
		buf = make([]sortEntry, n)
	}
	buf = buf[:n]

	a := entries
	b := buf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeEntries(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(entries, buf)
	}
	return buf
}

// mergeEntries merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeEntries(src, dst []sortEntry, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if entryLessOrEqual(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
