package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

// Date accepts "2006-01-02" or a full RFC 3339 timestamp and keeps the day.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// Ptr returns nil for a nil Date.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return models.DateOf(t), nil
	}
	return models.ParseDate(s)
}

func idParam(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// queryUint returns 0 for an absent parameter.
func queryUint(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return uint(n), nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryDate returns nil for an absent parameter.
func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, badRequest("%s: %v", name, err)
	}
	return &t, nil
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, badRequest("invalid %s %q", name, raw)
	}
	return &f, nil
}

func listOptions(c echo.Context) (repository.ListOptions, error) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	return repository.ListOptions{Limit: limit, Offset: offset}, nil
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
