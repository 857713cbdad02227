// Package bigquery implements the Warehouse port using Google BigQuery
// batch load jobs.
package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// ownerColumn is the clustering column for newly created tables. CRM objects
// carry the record owner here, which is the dominant filter in downstream
// per-account queries.
const ownerColumn = "OwnerId"

// Compile-time interface satisfaction check.
var _ driven.Warehouse = (*Loader)(nil)

// Loader is the BigQuery implementation of the Warehouse port. One table per
// object type, all inside a single configured dataset.
type Loader struct {
	client    *bq.Client
	datasetID string
}

// NewLoader creates a Loader for the given project and dataset.
// credentialsFile may be empty to use application default credentials.
func NewLoader(ctx context.Context, projectID, datasetID, credentialsFile string) (*Loader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}

	return &Loader{client: client, datasetID: datasetID}, nil
}

// Close releases the underlying client.
func (l *Loader) Close() error {
	return l.client.Close()
}

// EnsureTable looks up the object's table and creates it with the mapped
// columns if absent. An existing table is used as-is: its schema is not
// reconciled against the freshly computed one, so source schema drift
// surfaces later as a failed load rather than a migration.
func (l *Loader) EnsureTable(ctx context.Context, objectName string, schema model.ColumnSchema) error {
	table := l.client.Dataset(l.datasetID).Table(objectName)

	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return model.NewSyncError(model.ErrKindLoadFailed, fmt.Errorf("table metadata %s: %w", objectName, err))
	}

	meta := &bq.TableMetadata{Schema: toTableSchema(schema)}
	if hasColumn(schema, ownerColumn) {
		meta.Clustering = &bq.Clustering{Fields: []string{ownerColumn}}
	}

	if err := table.Create(ctx, meta); err != nil {
		return model.NewSyncError(model.ErrKindLoadFailed, fmt.Errorf("create table %s: %w", objectName, err))
	}

	return nil
}

// Append loads the rows into the object's table as one newline-delimited JSON
// load job with append disposition, waits for completion, and returns the job
// ID. Load jobs are atomic: a single uncoercible value fails the whole batch
// with nothing persisted.
func (l *Loader) Append(ctx context.Context, objectName string, rows []model.Row, schema model.ColumnSchema) (string, error) {
	buf, err := encodeRows(rows)
	if err != nil {
		return "", model.NewSyncError(model.ErrKindLoadFailed, fmt.Errorf("encode rows for %s: %w", objectName, err))
	}

	source := bq.NewReaderSource(buf)
	source.SourceFormat = bq.JSON
	source.Schema = toTableSchema(schema)

	loader := l.client.Dataset(l.datasetID).Table(objectName).LoaderFrom(source)
	loader.WriteDisposition = bq.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return "", model.NewSyncError(model.ErrKindLoadFailed, fmt.Errorf("start load job for %s: %w", objectName, err))
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", model.NewSyncError(model.ErrKindLoadFailed, fmt.Errorf("wait for load job %s: %w", job.ID(), err))
	}
	if err := status.Err(); err != nil {
		return "", model.NewSyncError(model.ErrKindLoadFailed, fmt.Errorf("load job %s: %w", job.ID(), err))
	}

	return job.ID(), nil
}

// toTableSchema converts the mapped column set into a BigQuery schema.
func toTableSchema(schema model.ColumnSchema) bq.Schema {
	out := make(bq.Schema, 0, len(schema))
	for _, col := range schema {
		out = append(out, &bq.FieldSchema{Name: col.Name, Type: bq.FieldType(col.Type)})
	}
	return out
}

// encodeRows serializes rows as newline-delimited JSON.
func encodeRows(rows []model.Row) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

// hasColumn reports whether the schema contains the named column.
func hasColumn(schema model.ColumnSchema, name string) bool {
	for _, col := range schema {
		if col.Name == name {
			return true
		}
	}
	return false
}

// isNotFound reports whether err is an HTTP 404 from the BigQuery API.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
