package cubism

const (
	maxMasksSinglePage    = 9 // per channel when there is one page (36 masks)
	maxMasksPerChannelMRT = 8 // per channel with several pages (32 masks per page)
)

// LayoutContext records where one balanced-mode slot lives: its page and
// channel, how many slots share that channel (GroupSize) and its position
// within the group.
type LayoutContext struct {
	Page       int
	Channel    int
	GroupSize  int
	Position   int
	Degenerate bool
}

// grid returns the number of tiles per row for the context's group.
func (lc LayoutContext) grid() int {
	switch {
	case lc.GroupSize <= 1:
		return 1
	case lc.GroupSize <= 4:
		return 2
	default:
		return 3
	}
}

func (lc LayoutContext) tile(index int) MaskTile {
	if lc.Degenerate {
		return degenerateTile(index)
	}
	n := lc.grid()
	return MaskTile{
		Channel: lc.Channel,
		Page:    lc.Page,
		Column:  lc.Position % n,
		Row:     lc.Position / n,
		Size:    1 / float64(n),
		Index:   index,
	}
}

func maxMasksPerChannel(pages int) int {
	if pages <= 1 {
		return maxMasksSinglePage
	}
	return maxMasksPerChannelMRT
}

func balancedCapacity(pages, channels int) int {
	return maxMasksPerChannel(pages) * channels * max(pages, 1)
}

// BalancedLayout distributes maskCount masks over pages×channels.
//
// Each page takes ceil(maskCount/pages) masks, split over the channels as
// evenly as possible with the first (count % channels) channels taking one
// extra. When maskCount does not divide by pages, every page from index
// (maskCount % pages) onward gives up one mask in the boundary channel so
// the total is exact. A channel holding one mask uses the whole channel,
// up to four use a 2×2 grid and up to nine (eight with several pages) a
// 3×3 grid. Pages are filled in order, channels round-robin within a page.
//
// Counts above capacity produce degenerate contexts for every mask.
func BalancedLayout(maskCount, pages, channels int) []LayoutContext {
	if maskCount <= 0 {
		return nil
	}
	pages = max(pages, 1)
	channels = max(channels, 1)

	out := make([]LayoutContext, 0, maskCount)
	if maskCount > balancedCapacity(pages, channels) {
		for range maskCount {
			out = append(out, LayoutContext{GroupSize: 1, Degenerate: true})
		}
		return out
	}

	limit := maxMasksPerChannel(pages)
	perPage := (maskCount + pages - 1) / pages
	reducePages := maskCount % pages
	div := perPage / channels
	mod := perPage % channels

	// With div == 0 only the first mod channels hold a mask, so the
	// boundary channel moves back one to stay within them. maskCount > 0
	// guarantees mod > 0 in that case.
	checkChannel := mod
	if div < 1 {
		checkChannel--
	}

	for page := 0; page < pages; page++ {
		for ch := 0; ch < channels; ch++ {
			n := div
			if ch < mod {
				n++
			}
			if ch == checkChannel && reducePages > 0 && page >= reducePages {
				n--
			}
			if n <= 0 {
				continue
			}
			if n > limit {
				for range n {
					out = append(out, LayoutContext{GroupSize: 1, Degenerate: true})
				}
				continue
			}
			for i := 0; i < n; i++ {
				out = append(out, LayoutContext{Page: page, Channel: ch, GroupSize: n, Position: i})
			}
		}
	}
	return out
}
