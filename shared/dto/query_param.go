package dto

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"venue/shared/constant"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

// QueryParams carries paging and sorting. Sorting is only honored for
// columns the repository knows; see repository.Repository.
type QueryParams struct {
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	SortBy  string `json:"sort_by"`
	SortDir string `json:"sort_dir"`
}

// FromRequest reads page, limit, sort_by and sort_dir. Malformed values are
// dropped. With withDefaults, missing paging falls back to the first page of
// constant.DefaultValueLimit rows; limit is always capped at constant.MaxValueLimit.
func (q *QueryParams) FromRequest(r *http.Request, withDefaults bool) {
	values := r.URL.Query()

	q.Page = positive(values, constant.RequestParamPage, q.Page)
	q.Limit = min(positive(values, constant.RequestParamLimit, q.Limit), constant.MaxValueLimit)

	if sortBy := strings.TrimSpace(values.Get(constant.RequestParamSortBy)); sortBy != "" {
		q.SortBy = sortBy
	}

	switch sortDir := strings.ToUpper(values.Get(constant.RequestParamSortDir)); sortDir {
	case SortDirAsc, SortDirDesc:
		q.SortDir = sortDir
	}

	if !withDefaults {
		return
	}

	if q.Page == 0 {
		q.Page = constant.DefaultValuePage
	}

	if q.Limit == 0 {
		q.Limit = constant.DefaultValueLimit
	}
}

func positive(values url.Values, key string, fallback int) int {
	parsed, err := strconv.Atoi(values.Get(key))
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
