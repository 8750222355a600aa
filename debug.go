package cubism

import (
	"log/slog"
	"time"
)

// FrameStats holds per-frame metrics returned by Renderer.Render.
type FrameStats struct {
	Commands      int
	DrawCalls     int
	Blits         int
	Offscreens    int // pooled offscreen surfaces after the frame
	OffscreenPeak int // highest concurrent offscreen usage this frame
	TilesInUse    int
	Groups        int
	SortTime      time.Duration
	WalkTime      time.Duration
}

// debugLog logs the stats at debug level.
func (r *Renderer) debugLog(stats FrameStats) {
	if !r.cfg.Debug {
		return
	}
	Logger().Debug("frame",
		slog.Duration("sort", stats.SortTime),
		slog.Duration("walk", stats.WalkTime),
		slog.Int("commands", stats.Commands),
		slog.Int("draw_calls", stats.DrawCalls),
		slog.Int("blits", stats.Blits),
		slog.Int("offscreens", stats.Offscreens),
		slog.Int("offscreen_peak", stats.OffscreenPeak),
		slog.Int("tiles", stats.TilesInUse),
		slog.Int("groups", stats.Groups))
}

// countDrawCalls counts mesh draws, mask geometry included.
func countDrawCalls(commands []Command) int {
	count := 0
	for i := range commands {
		if commands[i].Type == CmdDrawMesh {
			count++
		}
	}
	return count
}

// countBlits counts composites, snapshots and the final blit.
func countBlits(commands []Command) int {
	count := 0
	for i := range commands {
		if commands[i].Type == CmdBlit {
			count++
		}
	}
	return count
}

// debugMaxStackDepth is the nesting depth above which a warning is logged.
const debugMaxStackDepth = 16

func debugCheckNesting(depth int, ctrl *RenderController) {
	if depth > debugMaxStackDepth {
		Logger().Warn("deep offscreen nesting",
			slog.Int("depth", depth),
			slog.String("controller", ctrl.Name),
			slog.Int("threshold", debugMaxStackDepth))
	}
}
