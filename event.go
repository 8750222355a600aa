package cubism

// RenderEventType identifies a recoverable condition reported during a frame.
type RenderEventType uint8

const (
	// EventMaskCapacityExceeded: a mask source received degenerate tiles.
	EventMaskCapacityExceeded RenderEventType = iota
	// EventMalformedHierarchy: an ancestor walk hit the part-count bound and
	// a flush was skipped.
	EventMalformedHierarchy
	// EventGroupsResorted: draw order of one or more groups was rebuilt.
	EventGroupsResorted
	// EventOffscreenPoolTrimmed: stale offscreen surfaces were released.
	EventOffscreenPoolTrimmed
)

var renderEventTypeNames = [...]string{
	EventMaskCapacityExceeded: "MaskCapacityExceeded",
	EventMalformedHierarchy:   "MalformedHierarchy",
	EventGroupsResorted:       "GroupsResorted",
	EventOffscreenPoolTrimmed: "OffscreenPoolTrimmed",
}

func (t RenderEventType) String() string {
	if int(t) < len(renderEventTypeNames) {
		return renderEventTypeNames[t]
	}
	return "Unknown"
}

// RenderEvent describes one occurrence. Fields that do not apply are zero.
type RenderEvent struct {
	Type       RenderEventType
	Controller string
	Index      int // part or object index
	Count      int // tiles requested, groups sorted, surfaces released
	Err        error
}

// EventSink receives render events. It is called synchronously on the
// rendering goroutine and must not call back into the renderer.
type EventSink interface {
	EmitEvent(RenderEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(RenderEvent)

func (f EventSinkFunc) EmitEvent(e RenderEvent) { f(e) }

func emit(sink EventSink, e RenderEvent) {
	if sink != nil {
		sink.EmitEvent(e)
	}
}
