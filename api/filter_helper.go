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

package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mitrahub/mitra/internal/filter"
)

// ParseFiltersFromContext parses query parameters into a QueryFilterSet using the filter package.
// It handles all filter parameters in the format: field_operator=value
//
// Supported operators:
//   - eq: Equal (e.g., status_eq=pending)
//   - ne: Not equal (e.g., verification_status_ne=verified)
//   - gt, gte, lt, lte: Comparisons (e.g., amount_gte=50000)
//   - in: In set (e.g., status_in=approved,rejected)
//   - between: Between range (e.g., created_at_between=2024-01-01|2024-12-31)
//   - like, ilike: Pattern match (e.g., name_ilike=%budi%)
//   - isnull, isnotnull: Null checks (e.g., settled_at_isnull=true)
//
// Parameters without an operator suffix are ignored, as are the paging and
// sorting parameters (limit, offset, sort, order).
func ParseFiltersFromContext(c *gin.Context, opts *filter.ParseOptions) (*filter.QueryFilterSet, []filter.ParseError) {
	result := filter.ParseFromQuery(c.Request.URL.Query(), opts)
	return result.Filters, result.Errors
}

// ParseQueryOptions extracts sorting options from query parameters, either
// sort=-created_at or sort=created_at&order=asc.
func ParseQueryOptions(c *gin.Context) *filter.QueryOptions {
	return filter.ParseQueryOptions(c.Request.URL.Query())
}

// ParsePagination reads limit and offset. Missing or malformed values fall back
// to zero, which the service layer replaces with its defaults.
func ParsePagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = 0
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil {
		offset = 0
	}
	return limit, offset
}
