/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package filter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Validate checks every filter field against the table whitelist.
func Validate(filters *QueryFilterSet, table string) error {
	if _, ok := tables[table]; !ok {
		return fmt.Errorf("unsupported table for filtering: %s", table)
	}
	if filters == nil {
		return nil
	}
	for _, f := range filters.Filters {
		if _, ok := Column(table, f.Field); !ok {
			return fmt.Errorf("invalid field '%s' for table '%s'", f.Field, table)
		}
		switch f.Operator {
		case OpIn:
			if len(f.Values) == 0 {
				return fmt.Errorf("field '%s': in operator requires at least one value", f.Field)
			}
		case OpBetween:
			if len(f.Values) != 2 {
				return fmt.Errorf("field '%s': between operator requires exactly 2 values", f.Field)
			}
		case OpIsNull, OpIsNotNull:
		case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual, OpLike, OpILike:
			if f.Value == nil {
				return fmt.Errorf("field '%s': operator %s requires a value", f.Field, f.Operator)
			}
		default:
			return fmt.Errorf("field '%s': unsupported operator %q", f.Field, f.Operator)
		}
	}
	return nil
}

// Build renders filters as conditions with positional arguments starting at startArgPos.
func Build(filters *QueryFilterSet, table string, startArgPos int) (*BuildResult, error) {
	if err := Validate(filters, table); err != nil {
		return nil, err
	}

	result := &BuildResult{
		Conditions: []string{},
		Args:       []interface{}{},
		NextArgPos: startArgPos,
	}
	if filters == nil {
		return result, nil
	}

	pos := startArgPos
	for _, f := range filters.Filters {
		column, _ := Column(table, f.Field)
		cond, args := buildCondition(column, f, pos)
		result.Conditions = append(result.Conditions, cond)
		result.Args = append(result.Args, args...)
		pos += len(args)
	}
	result.NextArgPos = pos
	return result, nil
}

// BuildWithOptions is Build plus a validated ORDER BY clause.
func BuildWithOptions(filters *QueryFilterSet, table string, startArgPos int, opts *QueryOptions) (*BuildResult, error) {
	result, err := Build(filters, table, startArgPos)
	if err != nil {
		return nil, err
	}

	sortBy := ""
	if opts != nil {
		sortBy = opts.SortBy
	}
	if sortBy != "" {
		if _, ok := Column(table, sortBy); !ok {
			return nil, fmt.Errorf("invalid sort field '%s' for table '%s'", sortBy, table)
		}
	}
	result.OrderBy = BuildOrderBy(sortBy, opts.DefaultSortOrder(), table)
	return result, nil
}

// BuildOrderBy falls back to the table's default sort column for unknown fields.
func BuildOrderBy(sortBy string, order SortOrder, table string) string {
	column, ok := Column(table, sortBy)
	if !ok {
		column = defaultSortColumn(table)
	}
	direction := "DESC"
	if order == SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

func sqlValue(v interface{}) interface{} {
	if ts, ok := v.(TimestampValue); ok {
		return ts.Time
	}
	return v
}

func placeholder(pos int) string {
	return fmt.Sprintf("$%d", pos)
}

func buildCondition(column string, f QueryFilter, pos int) (string, []interface{}) {
	switch f.Operator {
	case OpEqual:
		if ts, ok := f.Value.(TimestampValue); ok {
			floor, ceiling := timestampRange(ts)
			return fmt.Sprintf("%s >= %s AND %s < %s", column, placeholder(pos), column, placeholder(pos+1)), []interface{}{floor, ceiling}
		}
		return fmt.Sprintf("%s = %s", column, placeholder(pos)), []interface{}{sqlValue(f.Value)}
	case OpNotEqual:
		return fmt.Sprintf("%s != %s", column, placeholder(pos)), []interface{}{sqlValue(f.Value)}
	case OpGreaterThan:
		return fmt.Sprintf("%s > %s", column, placeholder(pos)), []interface{}{sqlValue(f.Value)}
	case OpGreaterThanOrEqual:
		return fmt.Sprintf("%s >= %s", column, placeholder(pos)), []interface{}{sqlValue(f.Value)}
	case OpLessThan:
		return fmt.Sprintf("%s < %s", column, placeholder(pos)), []interface{}{sqlValue(f.Value)}
	case OpLessThanOrEqual:
		return fmt.Sprintf("%s <= %s", column, placeholder(pos)), []interface{}{sqlValue(f.Value)}
	case OpLike:
		return fmt.Sprintf("%s LIKE %s", column, placeholder(pos)), []interface{}{f.Value}
	case OpILike:
		return fmt.Sprintf("%s ILIKE %s", column, placeholder(pos)), []interface{}{f.Value}
	case OpIn:
		if allStrings(f.Values) {
			strs := make([]string, len(f.Values))
			for i, v := range f.Values {
				strs[i] = v.(string)
			}
			return fmt.Sprintf("%s = ANY(%s)", column, placeholder(pos)), []interface{}{pq.Array(strs)}
		}
		holders := make([]string, len(f.Values))
		args := make([]interface{}, len(f.Values))
		for i, v := range f.Values {
			holders[i] = placeholder(pos + i)
			args[i] = sqlValue(v)
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(holders, ", ")), args
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", column, placeholder(pos), placeholder(pos+1)),
			[]interface{}{sqlValue(f.Values[0]), sqlValue(f.Values[1])}
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", column), nil
	default:
		return fmt.Sprintf("%s IS NOT NULL", column), nil
	}
}

func allStrings(values []interface{}) bool {
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}
