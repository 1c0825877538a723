package enums

// PaymentStatus tracks whether an order has been paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid     PaymentStatus = "UNPAID"
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusPaid       PaymentStatus = "PAID"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

var paymentStatuses = newSet("payment status", upper,
	PaymentStatusUnpaid,
	PaymentStatusAuthorized,
	PaymentStatusPaid,
	PaymentStatusRefunded,
)

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return paymentStatuses.has(p) }
