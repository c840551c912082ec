package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

type templateRequest struct {
	Name      string `json:"name"`
	HTML      string `json:"html"`
	Active    *bool  `json:"active"`
	IsDefault bool   `json:"is_default"`
}

func (r templateRequest) model(id uint) *models.ReceiptTemplate {
	tpl := &models.ReceiptTemplate{ID: id, Name: r.Name, HTML: r.HTML, Active: true, IsDefault: r.IsDefault}
	if r.Active != nil {
		tpl.Active = *r.Active
	}
	return tpl
}

// listTemplates returns only active templates with ?active=true.
func (s *Server) listTemplates(c echo.Context) error {
	ctx := c.Request().Context()
	repo := repository.NewReceiptTemplateRepository(s.DB)
	var (
		tpls []models.ReceiptTemplate
		err  error
	)
	if c.QueryParam("active") == "true" {
		tpls, err = repo.Active(ctx)
	} else {
		tpls, err = repo.List(ctx, repository.ListOptions{})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpls)
}

func (s *Server) getTemplate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tpl, err := repository.NewReceiptTemplateRepository(s.DB).Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpl)
}

func (s *Server) createTemplate(c echo.Context) error {
	var req templateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tpl := req.model(0)
	if err := s.Receipts.CreateTemplate(c.Request().Context(), tpl); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tpl)
}

func (s *Server) updateTemplate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req templateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tpl := req.model(id)
	if err := s.Receipts.UpdateTemplate(c.Request().Context(), tpl); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpl)
}

func (s *Server) deleteTemplate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Receipts.DeleteTemplate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setDefaultTemplate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tpl, err := s.Receipts.SetDefaultTemplate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tpl)
}

// listAudit filters by table, entity_id and action; limit defaults to 100.
func (s *Server) listAudit(c echo.Context) error {
	var (
		f   repository.AuditFilter
		err error
	)
	f.Table = c.QueryParam("table")
	f.Action = models.AuditAction(c.QueryParam("action"))
	if f.EntityID, err = queryUint(c, "entity_id"); err != nil {
		return err
	}
	if f.Limit, err = queryInt(c, "limit", 100); err != nil {
		return err
	}
	logs, err := repository.NewAuditRepository(s.DB).Find(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}
