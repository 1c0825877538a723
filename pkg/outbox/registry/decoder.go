package registry

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry turns a message's data back into its typed payload for
// consumers. It is immutable once built.
type DecoderRegistry struct {
	payloads map[decoderKey]func() any
}

// NewStorefrontDecoders knows every cataloged event version.
func NewStorefrontDecoders() *DecoderRegistry {
	reg := &DecoderRegistry{payloads: make(map[decoderKey]func() any, len(catalog))}
	for _, spec := range catalog {
		reg.payloads[decoderKey{spec.eventType, spec.version}] = spec.payload
	}
	return reg
}

// Decode unmarshals payload into the struct registered for eventType@version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	newPayload, ok := r.payloads[decoderKey{eventType, version}]
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	target := newPayload()
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("decode %s@v%d: %w", eventType, version, err)
	}
	return target, nil
}
