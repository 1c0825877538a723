package types

import "time"

// SalesQueryRequest bounds the admin sales report.
type SalesQueryRequest struct {
	Start time.Time
	End   time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a coupon or payment provider.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SalesQueryResponse wraps the sales KPIs for the admin dashboard.
type SalesQueryResponse struct {
	OrdersSeries    []TimeSeriesPoint `json:"orders"`
	GrossRevenue    []TimeSeriesPoint `json:"gross_revenue"`
	DiscountsSeries []TimeSeriesPoint `json:"discounts"`
	LostRevenue     []TimeSeriesPoint `json:"lost_revenue"`
	TopCoupons      []LabelValue      `json:"top_coupons"`
	PaymentMix      []LabelValue      `json:"payment_mix"`
	AOV             float64           `json:"aov"`
	GuestOrders     int64             `json:"guest_orders"`
	MemberOrders    int64             `json:"registered_orders"`
}
