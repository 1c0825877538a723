package enums

// OutboxAggregateType names the entity an event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder          OutboxAggregateType = "order"
	AggregateContactMessage OutboxAggregateType = "contact_message"
)

var aggregateTypes = newSet("aggregate type", exact, AggregateOrder, AggregateContactMessage)

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse(value)
}

// OutboxEventType is the domain event name. Maps to event_type_enum.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventContactSubmitted   OutboxEventType = "contact_submitted"
)

var eventTypes = newSet("event type", exact,
	EventOrderCreated,
	EventOrderStatusChanged,
	EventContactSubmitted,
)

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse(value)
}

// OutboxDLQErrorReason says why the publisher dead-lettered an event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: retryable failures exhausted the attempt budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the event can never publish (unknown type, bad envelope).
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqReasons = newSet("dlq reason", exact, OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable)

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }
