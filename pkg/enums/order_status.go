package enums

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInReview   OrderStatus = "IN_REVIEW"
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	OrderStatusOnTheWay   OrderStatus = "ON_THE_WAY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var orderStatuses = newSet("order status", upper,
	OrderStatusPending,
	OrderStatusInReview,
	OrderStatusDispatched,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Pending",
	OrderStatusInReview:   "In Review",
	OrderStatusDispatched: "Dispatched",
	OrderStatusOnTheWay:   "On the Way",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCancelled:  "Cancelled",
	OrderStatusRefunded:   "Refunded",
}

func (s OrderStatus) String() string { return string(s) }

// Label returns the customer facing label.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s OrderStatus) IsValid() bool { return orderStatuses.has(s) }

// ParseOrderStatus converts raw input (any case) into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return orderStatuses.parse(value)
}
