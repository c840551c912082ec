package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/report"
	"github.com/beesaferoot/officelease/internal/repository"
)

type buildingRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (r buildingRequest) model(id uint) *models.Building {
	return &models.Building{ID: id, Name: r.Name, Address: r.Address, Notes: r.Notes}
}

func (s *Server) listBuildings(c echo.Context) error {
	ctx := c.Request().Context()
	repo := repository.NewBuildingRepository(s.DB)
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		buildings, err := repo.Search(ctx, q)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, buildings)
	}
	buildings, err := repo.WithOfficeCount(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, buildings)
}

func (s *Server) getBuilding(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	b, err := repository.NewBuildingRepository(s.DB).Get(c.Request().Context(), id, "Offices")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) createBuilding(c echo.Context) error {
	var req buildingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.model(0)
	if err := s.Services.Buildings.Create(c.Request().Context(), b); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBuilding(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req buildingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.model(id)
	if err := s.Services.Buildings.Update(c.Request().Context(), b); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBuilding(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Services.Buildings.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) buildingOffices(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := repository.NewBuildingRepository(s.DB).Get(ctx, id); err != nil {
		return err
	}
	offices, err := repository.NewOfficeRepository(s.DB).ByBuilding(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, offices)
}

// paymentGrid centers the grid on ?month=YYYY-MM, or the current month.
func (s *Server) paymentGrid(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	center := s.Now()
	if raw := c.QueryParam("month"); raw != "" {
		ym, err := models.ParseYearMonth(raw)
		if err != nil {
			return badRequest("%v", err)
		}
		center = ym.First()
	}
	grid, err := report.PaymentGrid(c.Request().Context(), s.DB, id, center)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grid)
}

type officeRequest struct {
	BuildingID uint     `json:"building_id"`
	Number     string   `json:"number"`
	Floor      *int     `json:"floor"`
	SurfaceM2  *float64 `json:"surface_m2"`
	Available  *bool    `json:"available"`
	Notes      string   `json:"notes"`
}

func (r officeRequest) model(id uint) *models.Office {
	o := &models.Office{
		ID:         id,
		BuildingID: r.BuildingID,
		Number:     r.Number,
		Floor:      r.Floor,
		SurfaceM2:  r.SurfaceM2,
		Available:  true,
		Notes:      r.Notes,
	}
	if r.Available != nil {
		o.Available = *r.Available
	}
	return o
}

// listOffices filters by ?available=true, ?q= or a surface range; without
// filters it pages through every office.
func (s *Server) listOffices(c echo.Context) error {
	ctx := c.Request().Context()
	repo := repository.NewOfficeRepository(s.DB)

	minSurface, err := queryFloat(c, "min_surface")
	if err != nil {
		return err
	}
	maxSurface, err := queryFloat(c, "max_surface")
	if err != nil {
		return err
	}

	var offices []models.Office
	switch {
	case c.QueryParam("available") == "true":
		offices, err = repo.Available(ctx)
	case c.QueryParam("q") != "":
		offices, err = repo.Search(ctx, c.QueryParam("q"))
	case minSurface != nil || maxSurface != nil:
		offices, err = repo.BySurfaceRange(ctx, minSurface, maxSurface)
	default:
		var opts repository.ListOptions
		if opts, err = listOptions(c); err != nil {
			return err
		}
		offices, err = repo.List(ctx, opts)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, offices)
}

func (s *Server) getOffice(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	o, err := repository.NewOfficeRepository(s.DB).Get(c.Request().Context(), id, "Building")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (s *Server) createOffice(c echo.Context) error {
	var req officeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	o := req.model(0)
	if err := s.Services.Offices.Create(c.Request().Context(), o); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

func (s *Server) updateOffice(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req officeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	o := req.model(id)
	if err := s.Services.Offices.Update(c.Request().Context(), o); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (s *Server) deleteOffice(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Services.Offices.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type tenantRequest struct {
	Name        string              `json:"name"`
	Phone       string              `json:"phone"`
	Email       string              `json:"email"`
	NationalID  string              `json:"national_id"`
	CompanyName string              `json:"company_name"`
	Status      models.TenantStatus `json:"status"`
	Comments    string              `json:"comments"`
}

func (r tenantRequest) model(id uint) *models.Tenant {
	return &models.Tenant{
		ID:          id,
		Name:        r.Name,
		Phone:       r.Phone,
		Email:       r.Email,
		NationalID:  r.NationalID,
		CompanyName: r.CompanyName,
		Status:      r.Status,
		Comments:    r.Comments,
	}
}

func (s *Server) listTenants(c echo.Context) error {
	ctx := c.Request().Context()
	repo := repository.NewTenantRepository(s.DB)

	var (
		tenants []models.Tenant
		err     error
	)
	switch {
	case c.QueryParam("status") != "":
		status := models.TenantStatus(c.QueryParam("status"))
		if !status.Valid() {
			return badRequest("unknown tenant status %q", status)
		}
		tenants, err = repo.ByStatus(ctx, status)
	case c.QueryParam("q") != "":
		tenants, err = repo.Search(ctx, c.QueryParam("q"))
	default:
		var opts repository.ListOptions
		if opts, err = listOptions(c); err != nil {
			return err
		}
		tenants, err = repo.List(ctx, opts)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenants)
}

// tenantDetail adds the lease history and the rent paid this year.
type tenantDetail struct {
	*models.Tenant
	Leases         []models.Lease `json:"leases"`
	RentPaidInYear float64        `json:"rent_paid_in_year"`
}

func (s *Server) getTenant(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	t, err := repository.NewTenantRepository(s.DB).Get(ctx, id)
	if err != nil {
		return err
	}
	leases, err := repository.NewLeaseRepository(s.DB).ByTenant(ctx, id)
	if err != nil {
		return err
	}
	detail := tenantDetail{Tenant: t, Leases: leases}
	year := s.Now().Year()
	payments := repository.NewPaymentRepository(s.DB)
	for _, l := range leases {
		total, err := payments.TotalRentPaid(ctx, l.ID, &year)
		if err != nil {
			return err
		}
		detail.RentPaidInYear += total
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) createTenant(c echo.Context) error {
	var req tenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t := req.model(0)
	if err := s.Services.Tenants.Create(c.Request().Context(), t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTenant(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req tenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t := req.model(id)
	if err := s.Services.Tenants.Update(c.Request().Context(), t); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTenant(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Services.Tenants.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) changeTenantStatus(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Status models.TenantStatus `json:"status"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if !req.Status.Valid() {
		return repository.NewValidationError("status", "unknown tenant status %q", req.Status)
	}
	t, err := s.Services.Tenants.ChangeStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) dashboard(c echo.Context) error {
	now := s.Now()
	if asOf, err := queryDate(c, "as_of"); err != nil {
		return err
	} else if asOf != nil {
		now = *asOf
	}
	summary, err := report.Dashboard(c.Request().Context(), s.DB, now)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
