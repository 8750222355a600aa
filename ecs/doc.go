// Package ecs provides ECS adapters for cubism's render event system.
//
// The primary adapter is [NewDonburiSink], which bridges cubism render
// events (mask capacity exceeded, malformed part hierarchy, group re-sorts,
// offscreen pool trims) into a [Donburi] world as typed events. Subscribe to
// [RenderEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	renderer.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
