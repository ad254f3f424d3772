package counting_repo

import (
	"context"
	"testing"

	"github.com/Masterminds/squirrel"

	"stocktally/internal/core/apperror"
	"stocktally/internal/domain"
)

// The paging helper scans the count straight into ListResult.TotalCount,
// so its total parameter must match that field's type.
func TestCountAndPageTotalType(t *testing.T) {
	repo := newBaseRepo[any](nil, "test_table", []string{"id"}, func() any { return nil })

	var fn func(context.Context, squirrel.SelectBuilder, string, int, int, *int64, any) error = repo.countAndPage
	if fn == nil {
		t.Fatal("countAndPage not bound")
	}

	var res domain.ListResult[any]
	var total *int64 = &res.TotalCount
	if total == nil {
		t.Fatal("nil total pointer")
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := newBaseRepo[any](nil, "test_table", []string{"id", "event_code", "scheduled_date", "created_at"}, func() any { return nil })

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to created_at", orderBy: "", want: "created_at DESC"},
		{name: "plain field ascending", orderBy: "event_code", want: "event_code ASC"},
		{name: "explicit ascending", orderBy: "+scheduled_date", want: "scheduled_date ASC"},
		{name: "descending", orderBy: "-scheduled_date", want: "scheduled_date DESC"},
		{name: "unknown column rejected", orderBy: "password_hash", wantErr: true},
		{name: "injection rejected", orderBy: "id; DROP TABLE test_table", wantErr: true},
		{name: "bare minus rejected", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if _, ok := apperror.AsAppError(err); !ok {
					t.Errorf("expected AppError, got %T", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("parseOrderBy failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("order mismatch\nwant: %s\ngot:  %s", tt.want, got)
			}
		})
	}
}
