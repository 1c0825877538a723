// Package registry knows every storefront domain event: which aggregate
// emits it, which topic carries it and which payload struct it decodes into.
// The publisher routes with it and the consumers decode with it, so both
// sides always agree.
package registry

import (
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

type stream int

const (
	orderStream stream = iota
	supportStream
)

type eventSpec struct {
	eventType enums.OutboxEventType
	aggregate enums.OutboxAggregateType
	version   int
	stream    stream
	payload   func() any
}

func event[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, s stream) eventSpec {
	return eventSpec{
		eventType: eventType,
		aggregate: aggregate,
		version:   1,
		stream:    s,
		payload:   func() any { return new(T) },
	}
}

// catalog is the full list. A payload change that breaks consumers gets a
// new entry with a bumped version next to the old one.
var catalog = []eventSpec{
	event[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder, orderStream),
	event[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder, orderStream),
	event[payloads.ContactSubmittedEvent](enums.EventContactSubmitted, enums.AggregateContactMessage, supportStream),
}
