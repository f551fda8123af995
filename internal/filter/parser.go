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
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxFilters  = 20
	defaultMaxInValues = 100
	defaultMaxCharLen  = 1000
)

var reservedParams = map[string]bool{
	"limit":  true,
	"offset": true,
	"sort":   true,
	"order":  true,
	"q":      true,
	"from":   true,
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func ResolveOperator(s string) Operator {
	switch strings.ToLower(s) {
	case "eq":
		return OpEqual
	case "ne", "neq":
		return OpNotEqual
	case "gt":
		return OpGreaterThan
	case "gte":
		return OpGreaterThanOrEqual
	case "lt":
		return OpLessThan
	case "lte":
		return OpLessThanOrEqual
	case "in":
		return OpIn
	case "between":
		return OpBetween
	case "like":
		return OpLike
	case "ilike":
		return OpILike
	case "isnull":
		return OpIsNull
	case "isnotnull":
		return OpIsNotNull
	default:
		return ""
	}
}

// ParseDateTime accepts RFC3339 and the common date-only and minute/second forms.
func ParseDateTime(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

func datePrecision(value string) string {
	switch {
	case strings.Contains(value, "."):
		return "subsecond"
	case strings.Count(value, ":") >= 2:
		return "second"
	case strings.Count(value, ":") == 1:
		return "minute"
	default:
		return "day"
	}
}

// timestampRange returns the half-open interval a timestamp of the given precision covers.
func timestampRange(ts TimestampValue) (time.Time, time.Time) {
	t := ts.Time
	switch ts.Precision {
	case "day":
		y, m, d := t.Date()
		floor := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		return floor, floor.AddDate(0, 0, 1)
	case "minute":
		floor := t.Truncate(time.Minute)
		return floor, floor.Add(time.Minute)
	case "second":
		floor := t.Truncate(time.Second)
		return floor, floor.Add(time.Second)
	default:
		floor := t.Truncate(time.Microsecond)
		return floor, floor.Add(time.Microsecond)
	}
}

func parseValue(value string) interface{} {
	if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intVal
	}
	if value == "true" || value == "false" {
		return value == "true"
	}
	if t, err := ParseDateTime(value); err == nil {
		return TimestampValue{Time: t, Original: value, Precision: datePrecision(value)}
	}
	return value
}

// ParseFromQuery collects every "field_op=value" parameter. Params without a known
// operator suffix are ignored; malformed ones are reported in Errors rather than dropped.
func ParseFromQuery(queryParams url.Values, opts *ParseOptions) *ParseResult {
	maxFilters, maxInValues, maxCharLen := defaultMaxFilters, defaultMaxInValues, defaultMaxCharLen
	if opts != nil {
		if opts.MaxFilters > 0 {
			maxFilters = opts.MaxFilters
		}
		if opts.MaxInValues > 0 {
			maxInValues = opts.MaxInValues
		}
		if opts.MaxCharLen > 0 {
			maxCharLen = opts.MaxCharLen
		}
	}

	result := &ParseResult{
		Filters: &QueryFilterSet{Filters: make([]QueryFilter, 0)},
		Errors:  make([]ParseError, 0),
	}

	// stable order keeps argument positions deterministic
	keys := make([]string, 0, len(queryParams))
	for key := range queryParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := queryParams[key]
		if len(values) == 0 || reservedParams[strings.ToLower(key)] {
			continue
		}

		idx := strings.LastIndex(key, "_")
		if idx <= 0 {
			continue
		}
		field, operator := key[:idx], ResolveOperator(key[idx+1:])
		if operator == "" {
			continue
		}

		if result.Filters.Len() >= maxFilters {
			result.Errors = append(result.Errors, ParseError{Param: key, Message: fmt.Sprintf("exceeded maximum number of filters (%d)", maxFilters)})
			continue
		}

		value := values[0]
		if len(value) > maxCharLen {
			result.Errors = append(result.Errors, ParseError{Param: key, Message: fmt.Sprintf("value exceeds maximum length (%d chars)", maxCharLen)})
			continue
		}

		f := QueryFilter{Field: field, Operator: operator}
		switch operator {
		case OpBetween:
			parts := strings.Split(value, "|")
			if len(parts) != 2 {
				result.Errors = append(result.Errors, ParseError{Param: key, Message: "between operator requires exactly 2 pipe-separated values (value1|value2)"})
				continue
			}
			f.Values = []interface{}{parseValue(parts[0]), parseValue(parts[1])}
		case OpIn:
			parts := strings.Split(value, ",")
			if len(parts) > maxInValues {
				result.Errors = append(result.Errors, ParseError{Param: key, Message: fmt.Sprintf("IN operator exceeds maximum values (%d)", maxInValues)})
				continue
			}
			f.Values = make([]interface{}, len(parts))
			for i, v := range parts {
				f.Values[i] = parseValue(strings.TrimSpace(v))
			}
		case OpIsNull, OpIsNotNull:
		case OpLike, OpILike:
			f.Value = value
		default:
			f.Value = parseValue(value)
		}

		result.Filters.Filters = append(result.Filters.Filters, f)
	}

	return result
}

// ParseQueryOptions reads "sort=-created_at" or "sort=name&order=asc".
func ParseQueryOptions(queryParams url.Values) *QueryOptions {
	opts := &QueryOptions{}
	sortBy := strings.TrimSpace(queryParams.Get("sort"))
	if strings.HasPrefix(sortBy, "-") {
		opts.SortOrder = SortDesc
		sortBy = strings.TrimPrefix(sortBy, "-")
	}
	opts.SortBy = sortBy

	switch strings.ToLower(queryParams.Get("order")) {
	case string(SortAsc):
		opts.SortOrder = SortAsc
	case string(SortDesc):
		opts.SortOrder = SortDesc
	}
	return opts
}
