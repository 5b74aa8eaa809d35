package handler

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/writing-practice-api/internal/service"
	"github.com/iliyamo/writing-practice-api/internal/validate"
)

const dateLayout = "2006-01-02"

// ideaListQuery is GET /api/ideas?page&limit&search.
type ideaListQuery struct {
	Page   int
	Limit  int
	Search string
}

// textListQuery is GET /api/texts?page&limit&ideaId&startDate&endDate.
type textListQuery struct {
	Page   int
	Limit  int
	IdeaID uint64
	From   *time.Time
	To     *time.Time
}

func bindIdeaList(c echo.Context) (ideaListQuery, error) {
	var q ideaListQuery
	b := echo.QueryParamsBinder(c).FailFast(false)
	b.Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("search", &q.Search)

	ve := validate.Errors{}
	bindErrors(b.BindErrors(), ve)
	checkPositive(c, ve, "page", int64(q.Page))
	checkPositive(c, ve, "limit", int64(q.Limit))
	checkMaxLimit(ve, q.Limit)
	if len(ve) > 0 {
		return q, ve
	}
	return q, nil
}

func bindTextList(c echo.Context) (textListQuery, error) {
	var q textListQuery
	b := echo.QueryParamsBinder(c).FailFast(false)
	b.Int("page", &q.Page).
		Int("limit", &q.Limit).
		Uint64("ideaId", &q.IdeaID).
		CustomFunc("startDate", dateParam("startDate", &q.From, false)).
		CustomFunc("endDate", dateParam("endDate", &q.To, true))

	ve := validate.Errors{}
	bindErrors(b.BindErrors(), ve)
	checkPositive(c, ve, "page", int64(q.Page))
	checkPositive(c, ve, "limit", int64(q.Limit))
	checkMaxLimit(ve, q.Limit)
	if c.QueryParam("ideaId") != "" && q.IdeaID == 0 {
		if _, seen := ve["ideaId"]; !seen {
			ve["ideaId"] = "ideaId must be a positive integer"
		}
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		ve["endDate"] = "endDate must not be before startDate"
	}
	if len(ve) > 0 {
		return q, ve
	}
	return q, nil
}

// checkPositive flags a parameter that was supplied but is not >= 1.
func checkPositive(c echo.Context, ve validate.Errors, name string, v int64) {
	if _, seen := ve[name]; seen || c.QueryParam(name) == "" {
		return
	}
	if v < 1 {
		ve[name] = name + " must be a positive integer"
	}
}

// checkMaxLimit rejects page sizes the service would otherwise clamp, so the
// reported totalPages always matches the limit the client asked for.
func checkMaxLimit(ve validate.Errors, limit int) {
	if _, seen := ve["limit"]; seen || limit <= service.MaxLimit {
		return
	}
	ve["limit"] = fmt.Sprintf("limit must be at most %d", service.MaxLimit)
}

// dateParam parses an RFC 3339 timestamp or a bare date (UTC).  A bare date
// used as an upper bound extends to the last second of that day.
func dateParam(name string, dst **time.Time, endOfDay bool) func([]string) []error {
	return func(values []string) []error {
		raw := values[0]
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			*dst = &t
			return nil
		}
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return []error{echo.NewBindingError(name, values, "invalid date", err)}
		}
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		*dst = &t
		return nil
	}
}
