package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

// maxRowsPerInsert keeps a multi-row INSERT well under bind-variable limits
const maxRowsPerInsert = 500

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)

// Tables names the warehouse tables used by the connector
type Tables struct {
	Transactions string
	Orders       string
	Emails       string
}

// DefaultTables returns the production table names
func DefaultTables() Tables {
	return Tables{
		Transactions: "ADYEN_API.PUBLIC.TRANSACTIONS",
		Orders:       "SNOWFLAKE_SAMPLE_DATA.TPCH_SF10.ORDERS",
		Emails:       "SALESFORCE.PUBLIC.EMAILMESSAGE",
	}
}

// WarehouseRepository implements domain.BatchWriter and domain.Warehouse over database/sql
type WarehouseRepository struct {
	db     *sql.DB
	tables Tables
}

// NewWarehouseRepository creates a warehouse repository. Table names are
// interpolated into SQL so they must be plain (optionally qualified) identifiers.
func NewWarehouseRepository(db *sql.DB, tables Tables) (*WarehouseRepository, error) {
	for _, name := range []string{tables.Transactions, tables.Orders, tables.Emails} {
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return &WarehouseRepository{db: db, tables: tables}, nil
}

// WriteBatch inserts all records in one transaction
func (r *WarehouseRepository) WriteBatch(ctx context.Context, records []domain.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(records); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(records))
		query, args := r.insertStatement(records[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert transactions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

func (r *WarehouseRepository) insertStatement(records []domain.NotificationRecord) (string, []any) {
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(domain.RequiredFields)), ", ") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", r.tables.Transactions, strings.Join(domain.RequiredFields, ", "))

	args := make([]any, 0, len(records)*len(domain.RequiredFields))
	for i, record := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholders)
		for _, v := range record.Values() {
			args = append(args, columnValue(v))
		}
	}
	return sb.String(), args
}

// columnValue flattens nested values into JSON text
func columnValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}

// LatestTransaction returns the transaction with the most recent eventDate
func (r *WarehouseRepository) LatestTransaction(ctx context.Context) (domain.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY eventDate DESC LIMIT 1", r.tables.Transactions)

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0], nil
}

// TopCustomers returns the ten customers with the highest order totals between start and end (YYYY-MM-DD)
func (r *WarehouseRepository) TopCustomers(ctx context.Context, start, end string) ([]domain.Row, error) {
	query := fmt.Sprintf(`
		SELECT
			o_custkey
		  , SUM(o_totalprice) AS sum_totalprice
		FROM %s
		WHERE o_orderdate >= ?
		  AND o_orderdate <= ?
		GROUP BY o_custkey
		ORDER BY sum_totalprice DESC
		LIMIT 10`, r.tables.Orders)

	return r.query(ctx, query, start, end)
}

// ClerkYearlySales returns monthly order totals for a clerk in a year
func (r *WarehouseRepository) ClerkYearlySales(ctx context.Context, clerk string, year int) ([]domain.Row, error) {
	query := fmt.Sprintf(`
		SELECT
			o_clerk
		  , MONTH(o_orderdate) AS month
		  , SUM(o_totalprice) AS sum_totalprice
		FROM %s
		WHERE YEAR(o_orderdate) = ?
		  AND o_clerk = ?
		GROUP BY o_clerk, month
		ORDER BY o_clerk, month`, r.tables.Orders)

	return r.query(ctx, query, year, clerk)
}

// EmailHistory returns email messages matching the given parent and/or related record
func (r *WarehouseRepository) EmailHistory(ctx context.Context, parentID, relatedToID string) ([]domain.Row, error) {
	var (
		conditions []string
		args       []any
	)
	if parentID != "" {
		conditions = append(conditions, "ParentId = ?")
		args = append(args, parentID)
	}
	if relatedToID != "" {
		conditions = append(conditions, "RelatedToId = ?")
		args = append(args, relatedToID)
	}
	if len(conditions) == 0 {
		return nil, errors.New("email history requires ParentId or RelatedToId")
	}

	query := fmt.Sprintf(`
		SELECT Id, ParentId, RelatedToId, Subject, FromAddress, ToAddress, MessageDate, Status
		FROM %s
		WHERE %s
		ORDER BY MessageDate DESC`, r.tables.Emails, strings.Join(conditions, " AND "))

	return r.query(ctx, query, args...)
}

func (r *WarehouseRepository) query(ctx context.Context, query string, args ...any) ([]domain.Row, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseRead, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseRead, err)
	}

	result := []domain.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseRead, err)
		}

		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseRead, err)
	}
	return result, nil
}
