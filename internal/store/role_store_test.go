package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestRoleStoreHasRole(t *testing.T) {
	ctx := context.Background()
	store := NewRoleStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "user_roles") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "user-1" || args[1] != "admin" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*bool) = true
			return nil
		},
	})
	ok, err := store.HasRole(ctx, "user-1", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected role to be present")
	}
}

func TestRoleStoreGrantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (user_id, role) DO NOTHING") {
				t.Fatalf("expected idempotent insert: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewRoleStore(stubDB{})
	if err := store.Grant(ctx, execer, "user-1", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoleStoreHasAnyAdmin(t *testing.T) {
	ctx := context.Background()
	store := NewRoleStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "role = 'admin'") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*bool) = false
			return nil
		},
	})
	ok, err := store.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no admin yet")
	}
}
