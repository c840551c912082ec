package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/config"
	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/logging"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

// DraftNumber is printed on previews of payments without a receipt.
const DraftNumber = "DRAFT"

type Service struct {
	db      *gorm.DB
	cfg     config.ReceiptsConfig
	dir     string
	audit   *audit.Recorder
	logger  *zap.Logger
	now     func() time.Time
	workers int
}

func NewService(db *gorm.DB, cfg config.ReceiptsConfig, dir string, rec *audit.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = audit.NewRecorder(logger)
	}
	return &Service{
		db:      db,
		cfg:     cfg,
		dir:     dir,
		audit:   rec,
		logger:  logger,
		now:     time.Now,
		workers: runtime.NumCPU(),
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetWorkers bounds the number of PDFs GenerateBatch renders at once.
func (s *Service) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Path is where the PDF of receipt number is written.
func (s *Service) Path(number string) string {
	return filepath.Join(s.dir, number+".pdf")
}

// prepare loads the payment, reuses or allocates its receipt and stores the
// receipt row with a fresh content snapshot.
func (s *Service) prepare(ctx context.Context, tx *gorm.DB, paymentID uint, automatic bool) (*models.Receipt, Data, error) {
	receipts := repository.NewReceiptRepository(tx)

	p, err := repository.NewPaymentRepository(tx).GetFull(ctx, paymentID)
	if err != nil {
		return nil, Data{}, err
	}

	now := s.now()
	var before *models.Receipt
	rc, err := receipts.ByPayment(ctx, paymentID)
	switch {
	case err == nil:
		prev := *rc
		before = &prev
	case errors.Is(err, repository.ErrNotFound):
		number, err := receipts.NextNumber(ctx, now.Year())
		if err != nil {
			return nil, Data{}, fmt.Errorf("failed to allocate receipt number: %w", err)
		}
		rc = &models.Receipt{PaymentID: p.ID, Number: number, Automatic: automatic}
	default:
		return nil, Data{}, err
	}

	data := NewData(p, rc.Number, now, s.cfg)
	content, err := json.Marshal(data)
	if err != nil {
		return nil, Data{}, err
	}
	rc.Content = datatypes.JSON(content)
	rc.FilePath = s.Path(rc.Number)
	rc.GeneratedAt = now

	if before == nil {
		err = receipts.Create(ctx, rc)
	} else {
		err = receipts.Update(ctx, rc)
	}
	if err != nil {
		return nil, Data{}, err
	}

	if err := s.audit.Record(ctx, tx, "receipts", rc.ID, models.ActionReceiptGenerated, before, rc); err != nil {
		return nil, Data{}, err
	}
	return rc, data, nil
}

func (s *Service) write(path string, pdf []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create receipts directory: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write receipt %s: %w", path, err)
	}
	return nil
}

// Generate renders the receipt of a payment. A payment that already has a
// receipt keeps its number; the PDF and content snapshot are refreshed.
func (s *Service) Generate(ctx context.Context, paymentID uint) ([]byte, *models.Receipt, error) {
	var (
		rc  *models.Receipt
		pdf []byte
	)
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var (
			data Data
			err  error
		)
		rc, data, err = s.prepare(ctx, tx, paymentID, false)
		if err != nil {
			return err
		}
		pdf, err = RenderPDF(data, s.cfg)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.write(rc.FilePath, pdf); err != nil {
		return nil, nil, err
	}

	logging.FromContextOr(ctx, s.logger).Info("receipt generated",
		zap.String("number", rc.Number),
		zap.Uint("payment_id", paymentID),
		zap.String("path", rc.FilePath),
	)
	return pdf, rc, nil
}

// Preview renders a payment's receipt as HTML without storing anything.
// A zero templateID selects the default template.
func (s *Service) Preview(ctx context.Context, paymentID, templateID uint) (string, error) {
	templates := repository.NewReceiptTemplateRepository(s.db)

	var (
		tpl *models.ReceiptTemplate
		err error
	)
	if templateID == 0 {
		tpl, err = templates.Default(ctx)
	} else {
		tpl, err = templates.Get(ctx, templateID)
	}
	if err != nil {
		return "", err
	}

	p, err := repository.NewPaymentRepository(s.db).GetFull(ctx, paymentID)
	if err != nil {
		return "", err
	}

	number := DraftNumber
	rc, err := repository.NewReceiptRepository(s.db).ByPayment(ctx, paymentID)
	switch {
	case err == nil:
		number = rc.Number
	case !errors.Is(err, repository.ErrNotFound):
		return "", err
	}

	return RenderHTML(tpl, NewData(p, number, s.now(), s.cfg))
}

// BatchResult reports the outcome of one payment in GenerateBatch.
type BatchResult struct {
	PaymentID uint   `json:"payment_id"`
	Number    string `json:"number,omitempty"`
	Path      string `json:"path,omitempty"`
	Err       error  `json:"-"`
}

// GenerateBatch generates receipts for every payment made in [from, to].
// Numbers are allocated serially in one transaction; the PDFs are then
// rendered on a worker pool. Per payment rendering failures are reported in
// the results, not as the returned error.
func (s *Service) GenerateBatch(ctx context.Context, from, to time.Time) ([]BatchResult, error) {
	type job struct {
		rc   *models.Receipt
		data Data
	}
	var jobs []job

	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		payments, err := repository.NewPaymentRepository(tx).ByPeriod(ctx, from, to)
		if err != nil {
			return err
		}
		// oldest first so numbers follow payment order
		for i := len(payments) - 1; i >= 0; i-- {
			rc, data, err := s.prepare(ctx, tx, payments[i].ID, true)
			if err != nil {
				return fmt.Errorf("payment %d: %w", payments[i].ID, err)
			}
			jobs = append(jobs, job{rc: rc, data: data})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(jobs))
	wp := workerpool.New(s.workers)
	for i, j := range jobs {
		i, j := i, j
		wp.Submit(func() {
			res := BatchResult{PaymentID: j.rc.PaymentID, Number: j.rc.Number}
			if err := ctx.Err(); err != nil {
				res.Err = err
				results[i] = res
				return
			}
			pdf, err := RenderPDF(j.data, s.cfg)
			if err == nil {
				err = s.write(j.rc.FilePath, pdf)
			}
			if err != nil {
				res.Err = err
			} else {
				res.Path = j.rc.FilePath
			}
			results[i] = res
		})
	}
	wp.StopWait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			s.logger.Warn("receipt rendering failed", zap.Uint("payment_id", r.PaymentID), zap.Error(r.Err))
		}
	}
	logging.FromContextOr(ctx, s.logger).Info("receipt batch finished",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("generated", len(results)-failed),
		zap.Int("failed", failed),
	)
	return results, nil
}
