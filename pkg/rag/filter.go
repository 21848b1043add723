package rag

import (
	"fmt"

	"book-rag-be/internal/repository/specification"
	"book-rag-be/pkg/store"
)

// BuildFilter translates user-supplied filter clauses into index
// specifications. Validation is fail-fast: an unknown field or an operator
// the field does not support returns InvalidFilterError before any network
// call is made.
func BuildFilter(clauses []store.FilterClause) ([]specification.Specification, error) {
	if len(clauses) == 0 {
		return nil, nil
	}

	specs := make([]specification.Specification, 0, len(clauses))
	for _, c := range clauses {
		spec, err := buildClause(c)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func buildClause(c store.FilterClause) (specification.Specification, error) {
	switch c.Field {
	case "source_url":
		return buildSourceURLClause(c)
	case "section_path":
		return buildSectionPathClause(c)
	case "sequence_position":
		return buildSequencePositionClause(c)
	default:
		return nil, &InvalidFilterError{Field: c.Field, Operator: c.Operator}
	}
}

func buildSourceURLClause(c store.FilterClause) (specification.Specification, error) {
	switch c.Operator {
	case store.OpEquals:
		v, err := asString(c)
		if err != nil {
			return nil, err
		}
		return specification.SourceURLEquals{Value: v}, nil
	case store.OpContains:
		v, err := asString(c)
		if err != nil {
			return nil, err
		}
		return specification.SourceURLContains{Value: v}, nil
	case store.OpIn:
		vs, err := asStringList(c)
		if err != nil {
			return nil, err
		}
		return specification.SourceURLIn{Values: vs}, nil
	default:
		return nil, &InvalidFilterError{Field: c.Field, Operator: c.Operator}
	}
}

func buildSectionPathClause(c store.FilterClause) (specification.Specification, error) {
	switch c.Operator {
	case store.OpEquals:
		vs, err := asStringList(c)
		if err != nil {
			return nil, err
		}
		return specification.SectionPathEquals{Value: vs}, nil
	case store.OpContains:
		v, err := asString(c)
		if err != nil {
			return nil, err
		}
		return specification.SectionPathContains{Value: v}, nil
	default:
		return nil, &InvalidFilterError{Field: c.Field, Operator: c.Operator}
	}
}

func buildSequencePositionClause(c store.FilterClause) (specification.Specification, error) {
	switch c.Operator {
	case store.OpEquals:
		v, err := asInt(c)
		if err != nil {
			return nil, err
		}
		return specification.SequencePositionEquals{Value: v}, nil
	case store.OpIn:
		vs, err := asIntList(c)
		if err != nil {
			return nil, err
		}
		return specification.SequencePositionIn{Values: vs}, nil
	default:
		return nil, &InvalidFilterError{Field: c.Field, Operator: c.Operator}
	}
}

func asString(c store.FilterClause) (string, error) {
	if s, ok := c.Value.(string); ok && s != "" {
		return s, nil
	}
	return "", &InvalidInputError{Reason: fmt.Sprintf("filter %s/%s requires a non-empty string value", c.Field, c.Operator)}
}

func asStringList(c store.FilterClause) ([]string, error) {
	switch v := c.Value.(type) {
	case []string:
		if len(v) > 0 {
			return v, nil
		}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &InvalidInputError{Reason: fmt.Sprintf("filter %s/%s requires string list values", c.Field, c.Operator)}
			}
			out = append(out, s)
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, &InvalidInputError{Reason: fmt.Sprintf("filter %s/%s requires a non-empty string list", c.Field, c.Operator)}
}

func asInt(c store.FilterClause) (int, error) {
	switch v := c.Value.(type) {
	case int:
		return v, nil
	case float64: // JSON numbers decode as float64
		return int(v), nil
	}
	return 0, &InvalidInputError{Reason: fmt.Sprintf("filter %s/%s requires an integer value", c.Field, c.Operator)}
}

func asIntList(c store.FilterClause) ([]int, error) {
	switch v := c.Value.(type) {
	case []int:
		if len(v) > 0 {
			return v, nil
		}
	case []interface{}:
		out := make([]int, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				n, ok := item.(int)
				if !ok {
					return nil, &InvalidInputError{Reason: fmt.Sprintf("filter %s/%s requires integer list values", c.Field, c.Operator)}
				}
				out = append(out, n)
				continue
			}
			out = append(out, int(f))
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, &InvalidInputError{Reason: fmt.Sprintf("filter %s/%s requires a non-empty integer list", c.Field, c.Operator)}
}
