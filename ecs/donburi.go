// Package ecs provides ECS adapters for cubism.
package ecs

import (
	"github.com/phanxgames/cubism"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// RenderEventType is the Donburi event type for cubism render events.
// Subscribe to this in your ECS systems to react to degraded masks,
// malformed hierarchies, re-sorts and pool trims.
var RenderEventType = events.NewEventType[cubism.RenderEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Render events are published to RenderEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) cubism.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event cubism.RenderEvent) {
	RenderEventType.Publish(s.world, event)
}
