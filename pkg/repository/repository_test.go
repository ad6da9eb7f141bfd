package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/cascade/pkg/repository"
)

var (
	errNotFound  = errors.New("record not found")
	errDuplicate = errors.New("record already exists")
)

func TestMapError(t *testing.T) {
	fkErr := &pgconn.PgError{Code: "23503"}
	netErr := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, errNotFound},
		{"wrapped no rows maps to not found", fmt.Errorf("find workflow: %w", sql.ErrNoRows), errNotFound},
		{"unique violation maps to duplicate", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation passes through", fkErr, fkErr},
		{"unrelated error passes through", netErr, netErr},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := repository.MapError(tc.err, errNotFound, errDuplicate)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("MapError = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("MapError = %v, want %v", got, tc.want)
			}
		})
	}
}

type stubResult struct {
	rows int64
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, nil }

type stubExecutor struct {
	result sql.Result
	err    error
}

func (e stubExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return e.result, e.err
}

func TestExecExpectOne(t *testing.T) {
	errExec := errors.New("exec failed")

	tests := []struct {
		name string
		exec stubExecutor
		want error
	}{
		{"one row affected", stubExecutor{result: stubResult{rows: 1}}, nil},
		{"many rows affected", stubExecutor{result: stubResult{rows: 3}}, nil},
		{"no rows affected", stubExecutor{result: stubResult{rows: 0}}, sql.ErrNoRows},
		{"exec error", stubExecutor{err: errExec}, errExec},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := repository.ExecExpectOne(context.Background(), tc.exec, "UPDATE t SET x = $1", 1)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("ExecExpectOne = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("ExecExpectOne = %v, want %v", got, tc.want)
			}
		})
	}
}
