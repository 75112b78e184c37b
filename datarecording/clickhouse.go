package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseRecorder records tables into a ClickHouse database. Rows are
// buffered and sent with one batch insert per table.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables     map[string]*table
	tableNames []string
	entryCount int
}

// NewClickHouseRecorder connects to the server named by dsn, for example
// "clickhouse://localhost:9000/awcheck?username=default". The recorder is
// flushed when the program exits through atexit.
func NewClickHouseRecorder(dsn string, batchSize int) (*ClickHouseRecorder, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid ClickHouse DSN: %w", err)
	}

	opts.DialTimeout = 30 * time.Second
	opts.MaxOpenConns = 5
	opts.MaxIdleConns = 5
	opts.ConnMaxLifetime = time.Hour

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	err = conn.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	r := newClickHouseRecorder(conn, batchSize)

	atexit.Register(func() { r.Flush() })

	return r, nil
}

func newClickHouseRecorder(
	conn clickhouse.Conn,
	batchSize int,
) *ClickHouseRecorder {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	return &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}
}

// CreateTable creates a MergeTree table whose columns follow the exported
// fields of sampleEntry.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ddl, err := clickHouseTableDDL(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	err = r.conn.Exec(context.Background(), ddl)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry and sends all tables once the batch is full.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	tbl, exists := r.tables[tableName]
	if !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != tbl.structType {
		r.mu.Unlock()
		panic(fmt.Sprintf("entry of type %T does not match table %s",
			entry, tableName))
	}

	tbl.entries = append(tbl.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the table names in creation order.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.tableNames...)
}

// Flush sends the buffered rows.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for _, tableName := range r.tableNames {
		tbl := r.tables[tableName]
		if len(tbl.entries) == 0 {
			continue
		}

		r.sendBatch(ctx, tableName, tbl.entries)
		tbl.entries = tbl.entries[:0]
	}

	r.entryCount = 0
}

func (r *ClickHouseRecorder) sendBatch(
	ctx context.Context,
	tableName string,
	entries []any,
) {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	for _, entry := range entries {
		err = batch.Append(clickHouseValues(entry)...)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	err = batch.Send()
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}
}

// Close flushes remaining rows and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}

func clickHouseColumnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Int64"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "UInt64"
	case reflect.Float32, reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}

func clickHouseTableDDL(tableName string, sampleEntry any) (string, error) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		return "", err
	}

	t := reflect.TypeOf(sampleEntry)
	columns := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		columns = append(columns,
			f.Name+" "+clickHouseColumnType(f.Type.Kind()))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY tuple()",
		tableName, strings.Join(columns, ",\n\t")), nil
}

// clickHouseValues widens every field to the column type picked by
// clickHouseColumnType. The driver rejects values of narrower Go types.
func clickHouseValues(entry any) []any {
	v := reflect.ValueOf(entry)
	values := make([]any, 0, v.NumField())

	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).IsExported() {
			continue
		}

		f := v.Field(i)

		switch clickHouseColumnType(f.Kind()) {
		case "Bool":
			values = append(values, f.Bool())
		case "Int64":
			values = append(values, f.Int())
		case "UInt64":
			values = append(values, f.Uint())
		case "Float64":
			values = append(values, f.Float())
		default:
			values = append(values, f.String())
		}
	}

	return values
}
