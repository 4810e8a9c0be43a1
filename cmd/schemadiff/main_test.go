package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tordrt/schemadiff"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{
			name: "empty input",
			csv:  "",
		},
		{
			name: "whitespace only",
			csv:  "   ",
		},
		{
			name: "single value",
			csv:  "users",
			want: []string{"users"},
		},
		{
			name: "multiple values with spaces",
			csv:  "users, orders ,products",
			want: []string{"users", "orders", "products"},
		},
		{
			name: "empty segments dropped",
			csv:  "users,,orders,",
			want: []string{"users", "orders"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.csv)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitList(%q) mismatch (-want +got):\n%s", tt.csv, diff)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(context.Canceled); got != 130 {
		t.Errorf("cancellation exit code = %d, want 130", got)
	}
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Errorf("generic exit code = %d, want 1", got)
	}
	wrapped := errors.Join(errors.New("outer"), context.Canceled)
	if got := exitCode(wrapped); got != 130 {
		t.Errorf("wrapped cancellation exit code = %d, want 130", got)
	}
}

func TestDescribeCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation",
			err:  &schemadiff.ValidationError{Object: "source", Reason: "connection string is empty"},
			want: "validation error:",
		},
		{
			name: "timeout",
			err:  &schemadiff.TimeoutError{Stage: "schema read", Window: 5 * time.Minute},
			want: "timeout:",
		},
		{
			name: "permission",
			err:  &schemadiff.PermissionError{Engine: "postgres", Err: errors.New("permission denied")},
			want: "permission error:",
		},
		{
			name: "connection",
			err:  &schemadiff.ConnectionError{Engine: "mysql", Err: errors.New("refused")},
			want: "connection error:",
		},
		{
			name: "catalog",
			err:  &schemadiff.CatalogError{Engine: "sqlite", Query: "tables", Err: errors.New("bad shape")},
			want: "catalog error:",
		},
		{
			name: "cancelled",
			err:  context.Canceled,
			want: "cancelled",
		},
		{
			name: "unexpected",
			err:  errors.New("kaboom"),
			want: "unexpected error:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.err); !strings.HasPrefix(got, tt.want) {
				t.Errorf("describe() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
