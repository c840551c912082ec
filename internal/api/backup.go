package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/beesaferoot/officelease/internal/backup"
	"github.com/beesaferoot/officelease/internal/logging"
)

// exportBackup streams a full JSON export of the database.
func (s *Server) exportBackup(c echo.Context) error {
	ds, err := backup.Export(c.Request().Context(), s.DB)
	if err != nil {
		return err
	}
	name := backup.FileName(s.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().WriteHeader(http.StatusOK)
	return backup.Write(c.Response(), ds)
}

// importBackup restores a backup sent as the raw request body.
func (s *Server) importBackup(c echo.Context) error {
	ctx := c.Request().Context()
	counts, err := backup.Import(ctx, s.DB, c.Request().Body)
	if err != nil {
		return err
	}
	logging.FromContextOr(ctx, s.Logger).Info("backup imported over http", zap.Int("rows", counts.Total()))
	return c.JSON(http.StatusOK, echo.Map{"counts": counts, "total": counts.Total()})
}

func (s *Server) createLocalBackup(c echo.Context) error {
	f, err := s.Backups.Backup(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (s *Server) listLocalBackups(c echo.Context) error {
	files, err := s.Backups.List()
	if err != nil {
		return err
	}
	if files == nil {
		files = []backup.LocalFile{}
	}
	return c.JSON(http.StatusOK, files)
}

// restoreLocalBackup only accepts names returned by the listing.
func (s *Server) restoreLocalBackup(c echo.Context) error {
	name := c.Param("name")
	if name != filepath.Base(name) {
		return badRequest("invalid backup name %q", name)
	}
	files, err := s.Backups.List()
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.Name != name {
			continue
		}
		counts, err := s.Backups.Restore(c.Request().Context(), f.Path)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"counts": counts, "total": counts.Total()})
	}
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("backup %q not found", name))
}

func (s *Server) uploadDriveBackup(c echo.Context) error {
	if s.Drive == nil {
		return errDriveDisabled
	}
	f, err := s.Drive.Upload(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (s *Server) listDriveBackups(c echo.Context) error {
	if s.Drive == nil {
		return errDriveDisabled
	}
	files, err := s.Drive.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, files)
}

func (s *Server) restoreDriveBackup(c echo.Context) error {
	if s.Drive == nil {
		return errDriveDisabled
	}
	counts, err := s.Drive.Restore(c.Request().Context(), c.Param("file_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": counts, "total": counts.Total()})
}
