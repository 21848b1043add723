package rag

import (
	"errors"
	"testing"

	"book-rag-be/pkg/store"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		clauses   []store.FilterClause
		wantSpecs int
		wantErr   bool
	}{
		{
			name:      "no clauses",
			clauses:   nil,
			wantSpecs: 0,
			wantErr:   false,
		},
		{
			name: "source_url equals",
			clauses: []store.FilterClause{
				{Field: "source_url", Operator: store.OpEquals, Value: "https://example.com/book"},
			},
			wantSpecs: 1,
			wantErr:   false,
		},
		{
			name: "source_url contains",
			clauses: []store.FilterClause{
				{Field: "source_url", Operator: store.OpContains, Value: "chapter-1"},
			},
			wantSpecs: 1,
			wantErr:   false,
		},
		{
			name: "source_url in with json-decoded list",
			clauses: []store.FilterClause{
				{Field: "source_url", Operator: store.OpIn, Value: []interface{}{"a", "b"}},
			},
			wantSpecs: 1,
			wantErr:   false,
		},
		{
			name: "sequence_position equals with json float",
			clauses: []store.FilterClause{
				{Field: "sequence_position", Operator: store.OpEquals, Value: float64(3)},
			},
			wantSpecs: 1,
			wantErr:   false,
		},
		{
			name: "section_path contains",
			clauses: []store.FilterClause{
				{Field: "section_path", Operator: store.OpContains, Value: "Chapter 1"},
			},
			wantSpecs: 1,
			wantErr:   false,
		},
		{
			name: "multiple clauses",
			clauses: []store.FilterClause{
				{Field: "source_url", Operator: store.OpEquals, Value: "x"},
				{Field: "sequence_position", Operator: store.OpIn, Value: []interface{}{float64(1), float64(2)}},
			},
			wantSpecs: 2,
			wantErr:   false,
		},
		{
			name: "unknown field",
			clauses: []store.FilterClause{
				{Field: "author", Operator: store.OpEquals, Value: "x"},
			},
			wantErr: true,
		},
		{
			name: "unknown operator",
			clauses: []store.FilterClause{
				{Field: "source_url", Operator: "between", Value: "x"},
			},
			wantErr: true,
		},
		{
			name: "contains on sequence_position is invalid",
			clauses: []store.FilterClause{
				{Field: "sequence_position", Operator: store.OpContains, Value: float64(1)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := BuildFilter(tt.clauses)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d specs", len(specs))
				}
				var filterErr *InvalidFilterError
				if !errors.As(err, &filterErr) {
					t.Fatalf("expected InvalidFilterError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(specs) != tt.wantSpecs {
				t.Fatalf("expected %d specs, got %d", tt.wantSpecs, len(specs))
			}
		})
	}
}
