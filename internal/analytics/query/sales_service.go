package query

import (
	"context"
	"fmt"
	"time"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/gearhub-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"google.golang.org/api/iterator"
)

// MaxRange caps a single report window.
const MaxRange = 366 * 24 * time.Hour

const (
	ordersSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	columnSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  SUM(COALESCE(%s, 0)) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	lostRevenueSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  SUM(grand_total_cents) AS value
FROM %s
WHERE event_type = 'order_status_changed'
  AND status IN ('CANCELLED', 'REFUNDED')
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topCouponsSQL = `
SELECT coupon_code AS label, COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_created'
  AND coupon_code IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
LIMIT 5
`

	paymentMixSQL = `
SELECT payment_provider AS label, COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_created'
  AND payment_provider IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
`

	aovSQL = `
SELECT SAFE_DIVIDE(SUM(grand_total_cents), NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
`

	customerMixSQL = `
SELECT
  COUNTIF(customer_type = 'guest') AS guest_orders,
  COUNTIF(customer_type = 'registered') AS registered_orders
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
`
)

type rowQuerier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
}

// SalesService provides admin dashboard data from BigQuery order_facts.
type SalesService interface {
	Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error)
}

type salesService struct {
	client   rowQuerier
	tableRef string
}

// NewSalesService queries tableRef, the backquoted project.dataset.table.
func NewSalesService(client rowQuerier, tableRef string) (SalesService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if tableRef == "" {
		return nil, fmt.Errorf("table reference is required")
	}
	return &salesService{client: client, tableRef: tableRef}, nil
}

func (s *salesService) Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start.UTC()},
		{Name: "end", Value: req.End.UTC()},
	}

	orders, err := s.querySeries(ctx, fmt.Sprintf(ordersSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	gross, err := s.querySeries(ctx, fmt.Sprintf(columnSeriesSQL, "grand_total_cents", s.tableRef), params)
	if err != nil {
		return nil, err
	}
	discounts, err := s.querySeries(ctx, fmt.Sprintf(columnSeriesSQL, "discount_cents", s.tableRef), params)
	if err != nil {
		return nil, err
	}
	lost, err := s.querySeries(ctx, fmt.Sprintf(lostRevenueSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	coupons, err := s.queryTopLabels(ctx, fmt.Sprintf(topCouponsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	payments, err := s.queryTopLabels(ctx, fmt.Sprintf(paymentMixSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	aov, err := s.queryAOV(ctx, fmt.Sprintf(aovSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	guests, members, err := s.queryCustomerMix(ctx, fmt.Sprintf(customerMixSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	return &types.SalesQueryResponse{
		OrdersSeries:    orders,
		GrossRevenue:    gross,
		DiscountsSeries: discounts,
		LostRevenue:     lost,
		TopCoupons:      coupons,
		PaymentMix:      payments,
		AOV:             aov,
		GuestOrders:     guests,
		MemberOrders:    members,
	}, nil
}

// ValidateRequest checks the report window.
func ValidateRequest(req types.SalesQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	if req.End.Sub(req.Start) > MaxRange {
		return pkgerrors.New(pkgerrors.CodeValidation, "range must not exceed one year")
	}
	return nil
}

func (s *salesService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query series")
	}

	points := []types.TimeSeriesPoint{}
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *salesService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query top labels")
	}

	result := []types.LabelValue{}
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *salesService) queryAOV(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query aov")
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading aov row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}

func (s *salesService) queryCustomerMix(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query customer mix")
	}
	var row struct {
		GuestOrders      int64 `bigquery:"guest_orders"`
		RegisteredOrders int64 `bigquery:"registered_orders"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading customer mix row: %w", err)
	}
	return row.GuestOrders, row.RegisteredOrders, nil
}
