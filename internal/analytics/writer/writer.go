package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/gearhub-backend/internal/analytics/types"
)

// PartitionField is the day-partition column of the order facts table.
const PartitionField = "occurred_at"

type Config struct {
	OrderFactsTable string
	// BatchSize rows are buffered before a streaming insert. One keeps every
	// Pub/Sub ack tied to a committed row.
	BatchSize int
	Retry     RetryPolicy
}

// Inserter streams rows into a table.
type Inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Writer buffers order fact rows and streams them into BigQuery.
type Writer struct {
	ins       Inserter
	table     string
	schema    cbigquery.Schema
	batchSize int
	retry     RetryPolicy

	mu      sync.Mutex
	pending []types.OrderFactRow
}

func New(ins Inserter, cfg Config) (*Writer, error) {
	if ins == nil {
		return nil, errors.New("bigquery inserter required")
	}
	table := strings.TrimSpace(cfg.OrderFactsTable)
	if table == "" {
		return nil, errors.New("order facts table is required")
	}
	schema, err := cbigquery.InferSchema(types.OrderFactRow{})
	if err != nil {
		return nil, fmt.Errorf("infer order facts schema: %w", err)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return &Writer{
		ins:       ins,
		table:     table,
		schema:    schema,
		batchSize: batch,
		retry:     cfg.Retry.withDefaults(),
	}, nil
}

// Table is the destination table name.
func (w *Writer) Table() string { return w.table }

// Schema is the schema rows are saved with; it also seeds table creation.
func (w *Writer) Schema() cbigquery.Schema { return w.schema }

// InsertOrderFact queues row and writes the batch once it is full.
func (w *Writer) InsertOrderFact(ctx context.Context, row types.OrderFactRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, row)
	if len(w.pending) < w.batchSize {
		return nil
	}
	return w.flushLocked(ctx)
}

// Flush writes whatever is buffered.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

// flushLocked drops the batch whatever the outcome: on failure the worker
// nacks and the redelivered events rebuild the rows. The event id doubles as
// the insert id so BigQuery dedupes those redeliveries.
func (w *Writer) flushLocked(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	rows := make([]any, len(w.pending))
	for i := range w.pending {
		rows[i] = &cbigquery.StructSaver{Schema: w.schema, Struct: &w.pending[i], InsertID: w.pending[i].EventID}
	}
	err := w.retry.do(ctx, func(ctx context.Context) error {
		return w.ins.InsertRows(ctx, w.table, rows)
	})
	w.pending = w.pending[:0]
	if err != nil {
		return fmt.Errorf("insert %d rows into %s: %w", len(rows), w.table, err)
	}
	return nil
}

// RetryPolicy bounds retries of transient insert failures.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 250 * time.Millisecond
	}
	if p.MaximumBackoff < p.InitialBackoff {
		p.MaximumBackoff = max(2*time.Second, p.InitialBackoff)
	}
	return p
}
