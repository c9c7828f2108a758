package snowflake

import (
	"context"
	"database/sql"

	sf "github.com/snowflakedb/gosnowflake"

	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// Executor runs a single query against Snowflake and returns all rows.
type Executor interface {
	Execute(ctx context.Context, creds Credentials, query string) ([][]any, error)
}

// DriverExecutor speaks to Snowflake through database/sql and the
// gosnowflake driver. A connection is opened per call; Lambda invocations
// are short-lived and the original behaves the same way.
type DriverExecutor struct{}

func NewExecutor() *DriverExecutor {
	return &DriverExecutor{}
}

func (e *DriverExecutor) Execute(ctx context.Context, creds Credentials, query string) ([][]any, error) {
	dsn, err := sf.DSN(&sf.Config{
		Account:   creds.Account,
		User:      creds.User,
		Password:  creds.Password,
		Warehouse: creds.Warehouse,
		Database:  creds.Database,
		Schema:    creds.Schema,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeQueryError, "failed to build Snowflake DSN")
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeQueryError, "failed to open Snowflake connection")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeQueryError, "query failed")
	}
	defer rows.Close()

	return scanAll(rows)
}

func scanAll(rows *sql.Rows) ([][]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeQueryError, "failed to read result columns")
	}

	results := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeQueryError, "failed to scan result row")
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeQueryError, "result iteration failed")
	}
	return results, nil
}
