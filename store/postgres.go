package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hadoop_monitor/types"

	_ "github.com/lib/pq"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS hadoop_metric (
	id           VARCHAR(36) PRIMARY KEY,
	metric_type  VARCHAR(50) NOT NULL,
	value        JSONB NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL,
	cluster_name VARCHAR(255) NOT NULL DEFAULT 'default'
);
CREATE INDEX IF NOT EXISTS hadoop_metric_type_timestamp_idx ON hadoop_metric (metric_type, timestamp DESC);`

const insertSQL = `INSERT INTO hadoop_metric (id, metric_type, value, timestamp, cluster_name)
	VALUES ($1, $2, $3, $4, $5)`

const selectSQL = `SELECT id, metric_type, value, timestamp, cluster_name FROM hadoop_metric`

// PostgresStore writes one row per record into hadoop_metric. Rows are
// never updated or deleted.
type PostgresStore struct {
	connection *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	connection, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := connection.PingContext(ctx); err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresStoreFromDB(ctx, connection)
}

// NewPostgresStoreFromDB uses an open connection and creates the table if it
// does not exist yet.
func NewPostgresStoreFromDB(ctx context.Context, connection *sql.DB) (*PostgresStore, error) {
	if _, err := connection.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create hadoop_metric table: %w", err)
	}
	return &PostgresStore{connection: connection}, nil
}

func (p *PostgresStore) Insert(ctx context.Context, kind types.MetricKind, value types.Document, clusterName string) (*types.MetricRecord, error) {
	record := types.NewMetricRecord(kind, value, clusterName)
	data, err := json.Marshal(record.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s value: %w", kind, err)
	}

	_, err = p.connection.ExecContext(ctx, insertSQL,
		record.ID, string(record.Kind), data, record.Timestamp, record.ClusterName)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s record: %w", kind, err)
	}
	return record, nil
}

func (p *PostgresStore) ListRecent(ctx context.Context, kind types.MetricKind, limit int) ([]*types.MetricRecord, error) {
	query := selectSQL
	var args []interface{}
	if kind != "" {
		args = append(args, string(kind))
		query += fmt.Sprintf(" WHERE metric_type = $%d", len(args))
	}
	query += " ORDER BY timestamp DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.connection.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*types.MetricRecord
	for rows.Next() {
		var (
			r        types.MetricRecord
			kindName string
			value    []byte
		)
		if err := rows.Scan(&r.ID, &kindName, &value, &r.Timestamp, &r.ClusterName); err != nil {
			return nil, err
		}
		r.Kind = types.MetricKind(kindName)
		if r.Value, err = decodeDocument(value); err != nil {
			return nil, fmt.Errorf("corrupt value for record %s: %w", r.ID, err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (p *PostgresStore) Close() error {
	return p.connection.Close()
}
