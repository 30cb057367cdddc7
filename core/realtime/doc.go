// Package realtime defines the typed wire-event contract for a duplex
// realtime session.
//
// Events come in two disjoint families, discriminated by their "type" tag:
//
//   - ServerEvent: originated by the remote endpoint, describing session,
//     conversation, response, and audio state changes.
//   - ClientEvent: originated locally, configuring the session, submitting
//     input, or controlling an in-flight response.
//
// Type namespaces used across the package:
//
//   - session.*                  negotiated session configuration
//   - input_audio_buffer.*       user audio input and voice activity
//   - conversation.item.*        discrete dialogue items
//   - response.*                 in-flight model responses and their deltas
//
// ParseServerEvent decodes a raw payload into the concrete server event for
// its discriminator; unknown types decode into RawServerEvent so callers can
// observe protocol growth without failing the session.
package realtime
