package warehouse

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// Warehouse is the storage surface the syncer writes to.
type Warehouse interface {
	ExistingIDs(ctx context.Context, userID string, month domain.Month) (map[string]bool, error)
	DeleteRows(ctx context.Context, userID string, month domain.Month, ids []string) error
	InsertRows(ctx context.Context, rows []*ExpenseRow) error
}

// BigQueryWarehouse talks to one expenses table.
type BigQueryWarehouse struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

func NewBigQueryWarehouse(ctx context.Context, project, dataset, table string) (*BigQueryWarehouse, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryWarehouse: bigquery client: %w", err)
	}
	return &BigQueryWarehouse{client: client, project: project, dataset: dataset, table: table}, nil
}

func (w *BigQueryWarehouse) Close() error {
	return w.client.Close()
}

func (w *BigQueryWarehouse) qualified() string {
	return "`" + w.project + "." + w.dataset + "." + w.table + "`"
}

// EnsureTable creates the dataset and expenses table when they do not exist
// yet. Safe to run repeatedly.
func (w *BigQueryWarehouse) EnsureTable(ctx context.Context) error {
	ds := w.client.DatasetInProject(w.project, w.dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("EnsureTable: dataset metadata: %w", err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return fmt.Errorf("EnsureTable: create dataset: %w", err)
		}
	}

	table := ds.Table(w.table)
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("EnsureTable: table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(ExpenseRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("EnsureTable: create table: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Not found")
}

// ExistingIDs returns the expense ids already in the warehouse for the user
// and month.
func (w *BigQueryWarehouse) ExistingIDs(ctx context.Context, userID string, month domain.Month) (map[string]bool, error) {
	q := w.client.Query(`
		SELECT expense_id
		FROM ` + w.qualified() + `
		WHERE user_id = @user_id AND month = @month
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "month", Value: string(month)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExistingIDs: query read: %w", err)
	}

	ids := make(map[string]bool)
	for {
		var row struct {
			ExpenseID string `bigquery:"expense_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExistingIDs: iter next: %w", err)
		}
		ids[row.ExpenseID] = true
	}
	return ids, nil
}

// DeleteRows removes the given expense ids from the user's month.
func (w *BigQueryWarehouse) DeleteRows(ctx context.Context, userID string, month domain.Month, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q := w.client.Query(`
		DELETE FROM ` + w.qualified() + `
		WHERE user_id = @user_id AND month = @month AND expense_id IN UNNEST(@ids)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "month", Value: string(month)},
		{Name: "ids", Value: ids},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("DeleteRows: run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("DeleteRows: wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("DeleteRows: job error: %w", err)
	}
	return nil
}

// InsertRows streams rows into the table.
func (w *BigQueryWarehouse) InsertRows(ctx context.Context, rows []*ExpenseRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := w.client.DatasetInProject(w.project, w.dataset).Table(w.table)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertRows: inserting rows: %w", err)
	}
	return nil
}

var _ Warehouse = (*BigQueryWarehouse)(nil)
