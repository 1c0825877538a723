package bigquery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/gcp"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errDatasetRequired = errors.New("bigquery dataset is required")
	errTableRequired   = errors.New("bigquery table name is required")
	errNotInitialized  = errors.New("bigquery client not initialized")
)

// Client is bound to one dataset. Ping checks the dataset and the tables
// named in config.
type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	project string
	tables  []string
}

// NewClient connects and verifies the dataset. Tables are verified too
// unless cfg.AutoCreate is set, in which case callers create them with
// EnsureTable before use.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project, err := gcp.Project(gcpCfg)
	if err != nil {
		return nil, err
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	table := strings.TrimSpace(cfg.OrderFactsTable)
	if table == "" {
		return nil, errTableRequired
	}

	raw, err := bigquery.NewClient(ctx, project, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	c := &Client{client: raw, dataset: raw.Dataset(datasetID), project: project, tables: []string{table}}

	check := c.Ping
	if cfg.AutoCreate {
		check = c.checkDataset
	}
	if err := check(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"bq_project": project,
			"bq_dataset": datasetID,
		}), "bigquery client ready")
	}
	return c, nil
}

func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.project
}

func (c *Client) DatasetID() string {
	if c == nil || c.dataset == nil {
		return ""
	}
	return c.dataset.DatasetID
}

// TableRef is the backquoted project.dataset.table form used in SQL.
func (c *Client) TableRef(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", c.ProjectID(), c.DatasetID(), table)
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.checkDataset(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	for _, name := range c.tables {
		if _, err := c.dataset.Table(name).Metadata(ctx); err != nil {
			return describe("table", name, err)
		}
	}
	return nil
}

func (c *Client) checkDataset(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describe("dataset", c.dataset.DatasetID, err)
	}
	return nil
}

// EnsureTable creates table with schema when it does not exist yet,
// partitioned by day on partitionField when one is given. It reports whether
// the table was created.
func (c *Client) EnsureTable(ctx context.Context, table string, schema bigquery.Schema, partitionField string) (bool, error) {
	if c == nil || c.dataset == nil {
		return false, errNotInitialized
	}
	ref := c.dataset.Table(table)
	_, err := ref.Metadata(ctx)
	if err == nil {
		return false, nil
	}
	if !gcp.IsNotFound(err) {
		return false, describe("table", table, err)
	}

	meta := &bigquery.TableMetadata{Schema: schema}
	if partitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: partitionField}
	}
	if err := ref.Create(ctx, meta); err != nil {
		return false, fmt.Errorf("create table %q: %w", table, err)
	}
	return true, nil
}

// InsertRows streams rows into table. Rows may be ValueSavers carrying an
// insert id for best-effort dedupe.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

// Query runs parameterized SQL and returns the row iterator.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.client == nil {
		return nil, errNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("sql query is required")
	}
	q := c.client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func describe(kind, name string, err error) error {
	if gcp.IsNotFound(err) {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("check %s %q: %w", kind, name, err)
}
