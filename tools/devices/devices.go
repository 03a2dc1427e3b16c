// Package devices provides the SQL query tool over the devices catalog.
package devices

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/llmutils"
	"github.com/comprice/deviceagent/schema"
	"github.com/comprice/deviceagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "devices")

// ToolName is the name the model requests this tool by.
const ToolName = "DevicesSQLQuery"

// NoRowsMessage is returned when the query matches nothing.
const NoRowsMessage = "(no rows found)"

// QueryRequest represents the tool input.
type QueryRequest struct {
	SQL string `json:"sql" yaml:"sql" jsonschema:"title=sql,description=A valid SQL SELECT statement against the devices table."`
}

// QueryResult holds the rendered query output.
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// String renders the result as an aligned text table.
func (r *QueryResult) String() string {
	if len(r.Rows) == 0 {
		return NoRowsMessage
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

// Tool runs read-only SQL against the devices table.
type Tool struct {
	name        string
	description string
	funcParams  any

	db *sql.DB
}

var _ tools.Tool[QueryRequest, QueryResult] = (*Tool)(nil)

// New creates the devices SQL tool over an existing database handle.
func New(db *sql.DB) (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(QueryRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name: ToolName,
		description: "Use this tool to query the PostgreSQL 'devices' table using SQL. " +
			"Input MUST be a valid SQL SELECT statement. " +
			"Available columns: device_type, brand, model, release_year, os, " +
			"form_factor, cpu_brand, cpu_model, cpu_tier, cpu_cores, cpu_threads, " +
			"cpu_base_ghz, cpu_boost_ghz, gpu_brand, gpu_model, gpu_tier, vram_gb, " +
			"ram_gb, storage_type, storage_gb, storage_drive_count, display_type, " +
			"display_size_in, resolution, refresh_hz, battery_wh, charger_watts, " +
			"psu_watts, wifi, bluetooth, weight_kg, warranty_months, price. " +
			"Example: SELECT brand, model, price FROM devices WHERE brand='Samsung' AND release_year > 2021 LIMIT 10;",
		funcParams: sc.Parameters,
		db:         db,
	}, nil
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

// Run executes the SELECT statement and collects the rows as strings.
func (t *Tool) Run(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	stmt := strings.TrimSpace(req.SQL)
	if stmt == "" {
		return nil, errors.New("invalid request: empty query")
	}
	if !isReadOnly(stmt) {
		return nil, errors.New("only SELECT statements are allowed")
	}

	logger.ContextKV(ctx, xlog.DEBUG, "status", "query", "sql", stmt)

	rows, err := t.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to execute query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}

	res := &QueryResult{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		res.Rows = append(res.Rows, renderRow(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read rows")
	}
	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req QueryRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// isReadOnly accepts plain SELECT statements and CTEs.
func isReadOnly(stmt string) bool {
	head := strings.ToUpper(stmt)
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH")
}

func renderRow(vals []any) []string {
	row := make([]string, len(vals))
	for i, v := range vals {
		switch val := v.(type) {
		case nil:
			row[i] = "NULL"
		case []byte:
			row[i] = string(val)
		case string:
			row[i] = val
		case float64:
			row[i] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", val), "0"), ".")
		default:
			row[i] = fmt.Sprint(val)
		}
	}
	return row
}
