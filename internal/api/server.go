// Package api serves the JSON HTTP interface under /api/v1.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/backup"
	"github.com/beesaferoot/officelease/internal/documents"
	"github.com/beesaferoot/officelease/internal/drive"
	"github.com/beesaferoot/officelease/internal/logging"
	"github.com/beesaferoot/officelease/internal/metrics"
	"github.com/beesaferoot/officelease/internal/receipt"
	"github.com/beesaferoot/officelease/internal/service"
)

// DriveBackups is the cloud backup target. It is nil until Drive access has
// been authorized.
type DriveBackups interface {
	Upload(ctx context.Context) (*drive.File, error)
	List(ctx context.Context) ([]drive.File, error)
	Restore(ctx context.Context, fileID string) (backup.Counts, error)
}

type Deps struct {
	DB        *gorm.DB
	Services  *service.Services
	Receipts  *receipt.Service
	Documents *documents.Service
	Backups   *backup.LocalStore
	Drive     DriveBackups
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

type Server struct {
	Deps
	echo *echo.Echo
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(metrics.Namespace)
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Logger)

	e.Use(middleware.Recover())
	e.Use(requestID)
	e.Use(logging.Middleware(d.Logger))
	e.Use(d.Metrics.HTTP.Middleware())
	e.Use(auditContext)

	s := &Server{Deps: d, echo: e}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) routes() {
	e := s.echo
	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	v1 := e.Group("/api/v1")

	b := v1.Group("/buildings")
	b.GET("", s.listBuildings)
	b.POST("", s.createBuilding)
	b.GET("/:id", s.getBuilding)
	b.PUT("/:id", s.updateBuilding)
	b.DELETE("/:id", s.deleteBuilding)
	b.GET("/:id/offices", s.buildingOffices)
	b.GET("/:id/payment-grid", s.paymentGrid)

	o := v1.Group("/offices")
	o.GET("", s.listOffices)
	o.POST("", s.createOffice)
	o.GET("/:id", s.getOffice)
	o.PUT("/:id", s.updateOffice)
	o.DELETE("/:id", s.deleteOffice)

	t := v1.Group("/tenants")
	t.GET("", s.listTenants)
	t.POST("", s.createTenant)
	t.GET("/:id", s.getTenant)
	t.PUT("/:id", s.updateTenant)
	t.DELETE("/:id", s.deleteTenant)
	t.POST("/:id/status", s.changeTenantStatus)

	l := v1.Group("/leases")
	l.GET("", s.listLeases)
	l.POST("", s.createLease)
	l.GET("/:id", s.getLease)
	l.PUT("/:id", s.updateLease)
	l.DELETE("/:id", s.deleteLease)
	l.POST("/:id/terminate", s.terminateLease)
	l.POST("/:id/reactivate", s.reactivateLease)
	l.POST("/:id/offices/:office_id", s.attachOffice)
	l.DELETE("/:id/offices/:office_id", s.detachOffice)
	l.GET("/:id/unpaid", s.unpaidMonths)

	p := v1.Group("/payments")
	p.GET("", s.listPayments)
	p.POST("", s.createPayment)
	p.GET("/:id", s.getPayment)
	p.PUT("/:id", s.updatePayment)
	p.DELETE("/:id", s.deletePayment)
	p.POST("/:id/receipt", s.generateReceipt)
	p.GET("/:id/receipt.html", s.previewReceipt)
	p.POST("/receipts/batch", s.generateReceiptBatch)

	rt := v1.Group("/receipt-templates")
	rt.GET("", s.listTemplates)
	rt.POST("", s.createTemplate)
	rt.GET("/:id", s.getTemplate)
	rt.PUT("/:id", s.updateTemplate)
	rt.DELETE("/:id", s.deleteTemplate)
	rt.POST("/:id/default", s.setDefaultTemplate)

	v1.GET("/audit", s.listAudit)

	d := v1.Group("/documents")
	d.POST("", s.uploadDocument)
	d.GET("", s.listDocuments)
	d.GET("/folder", s.folderContents)
	d.GET("/:id", s.getDocument)
	d.GET("/:id/download", s.downloadDocument)
	d.PATCH("/:id", s.patchDocument)
	d.DELETE("/:id", s.deleteDocument)
	v1.GET("/document-trees/:entity_type", s.getTree)
	v1.PUT("/document-trees/:entity_type", s.putTree)

	bk := v1.Group("/backup")
	bk.GET("/export", s.exportBackup)
	bk.POST("/import", s.importBackup)
	bk.POST("/local", s.createLocalBackup)
	bk.GET("/local", s.listLocalBackups)
	bk.POST("/local/:name/restore", s.restoreLocalBackup)
	bk.POST("/drive", s.uploadDriveBackup)
	bk.GET("/drive", s.listDriveBackups)
	bk.POST("/drive/:file_id/restore", s.restoreDriveBackup)

	v1.GET("/reports/dashboard", s.dashboard)
}

func (s *Server) health(c echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := s.DB.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{"status": status, "time": s.Now().UTC()})
}
