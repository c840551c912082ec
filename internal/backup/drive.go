package backup

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/drive"
)

// DriveBackup stores backups in one Drive folder.
type DriveBackup struct {
	client  drive.Client
	folder  string
	db      *gorm.DB
	counter *prometheus.CounterVec
	logger  *zap.Logger
	now     func() time.Time
}

// NewDriveBackup wires a Drive backup target. counter may be nil.
func NewDriveBackup(client drive.Client, folderName string, db *gorm.DB, counter *prometheus.CounterVec, logger *zap.Logger) *DriveBackup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveBackup{client: client, folder: folderName, db: db, counter: counter, logger: logger, now: time.Now}
}

func (b *DriveBackup) folderID(ctx context.Context, create bool) (string, error) {
	id, err := b.client.FindFolder(ctx, b.folder)
	if err != nil || id != "" || !create {
		return id, err
	}
	id, err = b.client.CreateFolder(ctx, b.folder)
	if err != nil {
		return "", err
	}
	b.logger.Info("drive backup folder created", zap.String("folder", b.folder), zap.String("folder_id", id))
	return id, nil
}

// Upload exports the database and uploads it to the backup folder.
func (b *DriveBackup) Upload(ctx context.Context) (*drive.File, error) {
	f, err := b.upload(ctx)
	if b.counter != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		b.counter.WithLabelValues("drive", status).Inc()
	}
	return f, err
}

func (b *DriveBackup) upload(ctx context.Context) (*drive.File, error) {
	folderID, err := b.folderID(ctx, true)
	if err != nil {
		return nil, err
	}
	ds, err := Export(ctx, b.db)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Write(&buf, ds); err != nil {
		return nil, err
	}

	f, err := b.client.Upload(ctx, folderID, FileName(b.now()), &buf)
	if err != nil {
		return nil, err
	}
	b.logger.Info("drive backup uploaded", zap.String("file_id", f.ID), zap.String("name", f.Name))
	return f, nil
}

// List returns the uploaded backups, newest first. A missing folder means
// nothing was uploaded yet.
func (b *DriveBackup) List(ctx context.Context) ([]drive.File, error) {
	folderID, err := b.folderID(ctx, false)
	if err != nil || folderID == "" {
		return nil, err
	}
	files, err := b.client.List(ctx, folderID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Restore downloads a backup and imports it.
func (b *DriveBackup) Restore(ctx context.Context, fileID string) (Counts, error) {
	rc, err := b.client.Download(ctx, fileID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	counts, err := Import(ctx, b.db, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to restore drive backup %s: %w", fileID, err)
	}
	b.logger.Info("drive backup restored", zap.String("file_id", fileID), zap.Int("rows", counts.Total()))
	return counts, nil
}
