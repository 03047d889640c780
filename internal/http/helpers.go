package http

import (
	"net/http"
	"strconv"
	"time"

	"pocketbook/internal/core"
)

// parseMonthParam accepts "2006-01" and returns the first day of that month.
func parseMonthParam(s string) (core.Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(t), nil
}

// monthOrCurrent reads the optional ?month= parameter, defaulting to the
// current month.
func monthOrCurrent(w http.ResponseWriter, r *http.Request) (core.Date, bool) {
	s := r.URL.Query().Get("month")
	if s == "" {
		return core.DateOf(time.Now()), true
	}
	d, err := parseMonthParam(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return core.Date{}, false
	}
	return d, true
}

// parseYearWeek reads ?year= and ?week= (ISO week number).
func parseYearWeek(w http.ResponseWriter, r *http.Request) (year, week int, ok bool) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return 0, 0, false
	}
	week, err = strconv.Atoi(q.Get("week"))
	if err != nil || week < 1 || week > 53 {
		writeError(w, http.StatusBadRequest, "invalid week, want 1-53")
		return 0, 0, false
	}
	return year, week, true
}
