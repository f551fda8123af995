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

// Package filter turns "field_op=value" query parameters into parameterized SQL
// conditions over a fixed whitelist of columns per table.
package filter

import (
	"strings"
	"time"
)

// Operator represents supported filter operators.
type Operator string

const (
	OpEqual              Operator = "eq"
	OpNotEqual           Operator = "ne"
	OpGreaterThan        Operator = "gt"
	OpGreaterThanOrEqual Operator = "gte"
	OpLessThan           Operator = "lt"
	OpLessThanOrEqual    Operator = "lte"
	OpIn                 Operator = "in"
	OpBetween            Operator = "between"
	OpLike               Operator = "like"
	OpILike              Operator = "ilike"
	OpIsNull             Operator = "isnull"
	OpIsNotNull          Operator = "isnotnull"
)

// TimestampValue is a parsed date keeping the precision it was written with,
// so "created_at_eq=2024-05-01" matches the whole day.
type TimestampValue struct {
	Time      time.Time
	Original  string
	Precision string
}

type QueryFilter struct {
	Field    string        `json:"field"`
	Operator Operator      `json:"operator"`
	Value    interface{}   `json:"value,omitempty"`
	Values   []interface{} `json:"values,omitempty"`
}

type QueryFilterSet struct {
	Filters []QueryFilter `json:"filters"`
}

// Add appends a filter and returns the set for chaining.
func (s *QueryFilterSet) Add(field string, op Operator, value interface{}) *QueryFilterSet {
	s.Filters = append(s.Filters, QueryFilter{Field: field, Operator: op, Value: value})
	return s
}

func (s *QueryFilterSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Filters)
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type QueryOptions struct {
	SortBy    string    `json:"sort_by,omitempty"`
	SortOrder SortOrder `json:"sort_order,omitempty"`
}

// DefaultSortOrder returns desc if empty or unknown.
func (o *QueryOptions) DefaultSortOrder() SortOrder {
	if o == nil || (o.SortOrder != SortAsc && o.SortOrder != SortDesc) {
		return SortDesc
	}
	return o.SortOrder
}

type BuildResult struct {
	Conditions []string
	Args       []interface{}
	NextArgPos int
	// OrderBy is the ORDER BY clause without the keyword.
	OrderBy string
}

// Where renders the conditions as a WHERE clause, or "" when there are none.
func (r *BuildResult) Where() string {
	if r == nil || len(r.Conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(r.Conditions, " AND ")
}

type ParseOptions struct {
	MaxFilters  int // default 20
	MaxInValues int // default 100
	MaxCharLen  int // default 1000
}

type ParseError struct {
	Param   string `json:"param"`
	Message string `json:"message"`
}

type ParseResult struct {
	Filters *QueryFilterSet
	Errors  []ParseError
}
