// Package hooks is a middleware event bus for duplex realtime sessions.
//
// HookHandlers wires two ordered middleware chains, one per event
// direction, onto an abstract duplex channel and returns a Session:
//
//	session, _ := hooks.HookHandlers(channel, serverHandlers, clientHandlers)
//	defer session.Close()
//	go session.KeepReceiving(ctx)
//	session.Send(ctx, realtime.NewSessionUpdate(cfg))
//
// Handlers registered earlier run first and may mutate an event, replace
// it, or drop it for everything downstream. The package ships a fixed,
// composable set of middlewares:
//
//   - ConversationTracker: client-side mirror of items and responses.
//   - ConfigTracker: requested vs confirmed session configuration.
//   - EventIdentity: unique ids on outgoing events.
//   - InterruptCoordinator: cancels in-flight responses when the user
//     starts speaking over assistant audio, flushing local playback in the
//     same step.
//   - Playback / Capture: audio deltas to an output sink, microphone
//     frames to audio append events.
//
// One session is one scope: all middleware state lives on the instances
// passed to HookHandlers, so multiple concurrent sessions can coexist in a
// process.
package hooks
