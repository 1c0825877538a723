package enums

// PaymentProvider identifies how the customer pays.
type PaymentProvider string

const (
	PaymentProviderStripe       PaymentProvider = "STRIPE"
	PaymentProviderCOD          PaymentProvider = "COD"
	PaymentProviderBankTransfer PaymentProvider = "BANK_TRANSFER"
)

var paymentProviders = newSet("payment provider", upper,
	PaymentProviderStripe,
	PaymentProviderCOD,
	PaymentProviderBankTransfer,
)

func (p PaymentProvider) String() string { return string(p) }

func (p PaymentProvider) IsValid() bool { return paymentProviders.has(p) }

// InitialPaymentStatus is the order payment status right after checkout.
// Card payments stay unpaid until the gateway confirms them.
func (p PaymentProvider) InitialPaymentStatus() PaymentStatus {
	if p == PaymentProviderStripe {
		return PaymentStatusUnpaid
	}
	return PaymentStatusAuthorized
}

// InitialRecordStatus is the status of the payment row written at checkout.
func (p PaymentProvider) InitialRecordStatus() PaymentRecordStatus {
	if p == PaymentProviderStripe {
		return PaymentRecordInitiated
	}
	return PaymentRecordAuthorized
}

// ParsePaymentProvider accepts both the canonical names and the lower-case
// checkout form values (stripe, cod, bank_transfer).
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	return paymentProviders.parse(value)
}

// PaymentRecordStatus is the lifecycle of a payment row.
type PaymentRecordStatus string

const (
	PaymentRecordInitiated  PaymentRecordStatus = "INITIATED"
	PaymentRecordAuthorized PaymentRecordStatus = "AUTHORIZED"
	PaymentRecordCaptured   PaymentRecordStatus = "CAPTURED"
	PaymentRecordFailed     PaymentRecordStatus = "FAILED"
)

func (p PaymentRecordStatus) String() string { return string(p) }
