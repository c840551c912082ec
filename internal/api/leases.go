package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type leaseRequest struct {
	TenantID         uint    `json:"tenant_id"`
	OfficeIDs        []uint  `json:"office_ids"`
	StartDate        Date    `json:"start_date"`
	LastIncreaseDate *Date   `json:"last_increase_date"`
	FirstMonthRent   float64 `json:"first_month_rent"`
	MonthlyRent      float64 `json:"monthly_rent"`
	Deposit          float64 `json:"deposit"`
	KeyMoney         float64 `json:"key_money"`
	ElectricityMeter string  `json:"electricity_meter"`
	WaterMeter       string  `json:"water_meter"`
	Conditions       string  `json:"conditions"`
}

func (r leaseRequest) model(id uint) *models.Lease {
	return &models.Lease{
		ID:               id,
		TenantID:         r.TenantID,
		StartDate:        r.StartDate.Time,
		LastIncreaseDate: r.LastIncreaseDate.Ptr(),
		FirstMonthRent:   r.FirstMonthRent,
		MonthlyRent:      r.MonthlyRent,
		Deposit:          r.Deposit,
		KeyMoney:         r.KeyMoney,
		ElectricityMeter: r.ElectricityMeter,
		WaterMeter:       r.WaterMeter,
		Conditions:       r.Conditions,
	}
}

// listLeases accepts ?active=true|false (or ?status=active|terminated),
// ?tenant_id= or ?q=.
func (s *Server) listLeases(c echo.Context) error {
	ctx := c.Request().Context()
	repo := repository.NewLeaseRepository(s.DB)

	tenantID, err := queryUint(c, "tenant_id")
	if err != nil {
		return err
	}

	status := c.QueryParam("status")
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest("invalid active %q", raw)
		}
		want := "terminated"
		if active {
			want = "active"
		}
		if status != "" && status != want {
			return badRequest("active=%s contradicts status=%s", raw, status)
		}
		status = want
	}

	var leases []models.Lease
	switch {
	case tenantID != 0 && (status == "" || status == "active" || status == "terminated"):
		leases, err = repo.ByTenant(ctx, tenantID)
		if err == nil && status != "" {
			filtered := leases[:0]
			for _, l := range leases {
				if l.Terminated == (status == "terminated") {
					filtered = append(filtered, l)
				}
			}
			leases = filtered
		}
	case status == "active":
		leases, err = repo.Active(ctx)
	case status == "terminated":
		leases, err = repo.Terminated(ctx)
	case status != "":
		return badRequest("unknown lease status %q", status)
	case strings.TrimSpace(c.QueryParam("q")) != "":
		leases, err = repo.Search(ctx, c.QueryParam("q"))
	default:
		var opts repository.ListOptions
		if opts, err = listOptions(c); err != nil {
			return err
		}
		leases, err = repo.All(ctx, opts)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leases)
}

// leaseDetail adds the unpaid months and the payment history.
type leaseDetail struct {
	*models.Lease
	TotalSurface float64            `json:"total_surface"`
	UnpaidMonths []models.YearMonth `json:"unpaid_months"`
	Payments     []models.Payment   `json:"payments"`
}

func (s *Server) getLease(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	l, err := repository.NewLeaseRepository(s.DB).GetWithOffices(ctx, id)
	if err != nil {
		return err
	}
	payments := repository.NewPaymentRepository(s.DB)
	unpaid, err := payments.UnpaidMonths(ctx, l, s.Now())
	if err != nil {
		return err
	}
	history, err := payments.ByLease(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leaseDetail{Lease: l, TotalSurface: l.TotalSurface(), UnpaidMonths: unpaid, Payments: history})
}

func (s *Server) createLease(c echo.Context) error {
	var req leaseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	l, err := s.Services.Leases.Create(c.Request().Context(), req.model(0), req.OfficeIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

// updateLease keeps the current offices when office_ids is omitted; an empty
// list detaches them all.
func (s *Server) updateLease(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req leaseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	officeIDs := req.OfficeIDs
	if officeIDs == nil {
		current, err := repository.NewLeaseRepository(s.DB).GetWithOffices(ctx, id)
		if err != nil {
			return err
		}
		officeIDs = current.OfficeIDs()
	}
	l, err := s.Services.Leases.Update(ctx, req.model(id), officeIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) deleteLease(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Services.Leases.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) terminateLease(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Date   *Date  `json:"date"`
		Reason string `json:"reason"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	date := s.Now()
	if req.Date != nil {
		date = req.Date.Time
	}
	l, err := s.Services.Leases.Terminate(c.Request().Context(), id, models.DateOf(date), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) reactivateLease(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		StartDate *Date `json:"start_date"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	l, err := s.Services.Leases.Reactivate(c.Request().Context(), id, req.StartDate.Ptr())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) attachOffice(c echo.Context) error {
	return s.changeLeaseOffice(c, true)
}

func (s *Server) detachOffice(c echo.Context) error {
	return s.changeLeaseOffice(c, false)
}

func (s *Server) changeLeaseOffice(c echo.Context, attach bool) error {
	leaseID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	officeID, err := idParam(c, "office_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	var l *models.Lease
	if attach {
		l, err = s.Services.Leases.AttachOffice(ctx, leaseID, officeID)
	} else {
		l, err = s.Services.Leases.DetachOffice(ctx, leaseID, officeID)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) unpaidMonths(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	asOf, err := queryDate(c, "as_of")
	if err != nil {
		return err
	}
	at := s.Now()
	if asOf != nil {
		at = *asOf
	}
	months, err := s.Services.Leases.UnpaidMonths(c.Request().Context(), id, at)
	if err != nil {
		return err
	}
	labels := make([]string, 0, len(months))
	for _, m := range months {
		labels = append(labels, m.String())
	}
	return c.JSON(http.StatusOK, echo.Map{"lease_id": id, "as_of": models.DateOf(at), "months": labels})
}
