package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestServiceStoreListActiveOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewServiceStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE is_active = TRUE") {
				t.Fatalf("expected active filter: %s", query)
			}
			if !strings.Contains(query, "ORDER BY price ASC, created_at ASC") {
				t.Fatalf("expected price ordering with insertion tie-break: %s", query)
			}
			*dest.(*[]Service) = []Service{
				{ID: "outros", Price: 100},
				{ID: "gmail", Price: 130},
			}
			return nil
		},
	})
	rows, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "outros" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestServiceStoreUpdateReportsMissing(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE services") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 0}, nil
		},
	}
	store := NewServiceStore(stubDB{})
	updated, err := store.Update(ctx, execer, ServiceInput{ID: "ghost", Name: "Ghost", Price: 100}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 rows updated, got %d", updated)
	}
}

func TestServiceStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO services") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 || args[0] != "svc-1" || args[2] != int64(250) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewServiceStore(stubDB{})
	err := store.Create(ctx, execer, ServiceInput{
		ID:       "svc-1",
		Name:     "Telegram",
		Price:    250,
		Duration: "1 SMS",
		Icon:     "telegram",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
