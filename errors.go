package btelem

import "errors"

// Sentinel errors returned across the public API. None of these are
// raised for overrun or torn reads — those are data-plane events
// accounted for on the client, never surfaced as errors.
var (
	// ErrInvalidArgument covers a nil schema descriptor, a ring capacity
	// that isn't a power of two, or a zero client or schema table size. An
	// out-of-range schema id and an oversized payload have their own
	// errors below.
	ErrInvalidArgument = errors.New("btelem: invalid argument")

	// ErrPayloadTooLarge is returned when a schema's declared payload
	// size, or a logged payload's encoded size, exceeds MaxPayload.
	ErrPayloadTooLarge = errors.New("btelem: payload exceeds MaxPayload")

	// ErrSchemaIDOutOfRange is returned by Registry.Register when the id
	// is >= the registry's configured capacity.
	ErrSchemaIDOutOfRange = errors.New("btelem: schema id out of range")

	// ErrRegistryClosed is returned by Registry.Register once a client
	// has been opened against the owning Context. See DESIGN.md Open
	// Question 3: late registration is rejected.
	ErrRegistryClosed = errors.New("btelem: schema registry closed to new registrations")

	// ErrNoFreeClients is returned by Context.OpenClient when the client
	// table is full.
	ErrNoFreeClients = errors.New("btelem: no free client slots")

	// ErrClientNotFound / ErrClientInactive are returned by any client
	// operation given an unknown or closed client id.
	ErrClientNotFound  = errors.New("btelem: unknown client id")
	ErrClientInactive  = errors.New("btelem: client is not active")
	ErrNilCallback     = errors.New("btelem: nil drain callback")
	ErrBufferTooSmall  = errors.New("btelem: buffer too small")
	ErrFrameTooLarge   = errors.New("btelem: framed payload exceeds max frame size")
)
