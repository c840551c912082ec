package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	filePrefix = "officelease_backup_"
	fileLayout = "20060102_150405"
)

// FileName names a backup taken at t.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(fileLayout) + ".json"
}

type LocalFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// LocalStore keeps backups as JSON files in one directory.
type LocalStore struct {
	Dir    string
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewLocalStore(dir string, db *gorm.DB, logger *zap.Logger) *LocalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStore{Dir: dir, db: db, logger: logger, now: time.Now}
}

// Backup exports the database to a new timestamped file.
func (s *LocalStore) Backup(ctx context.Context) (*LocalFile, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	ds, err := Export(ctx, s.db)
	if err != nil {
		return nil, err
	}

	f, path, err := s.create(FileName(s.now()))
	if err != nil {
		return nil, err
	}
	if err := Write(f, ds); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close backup file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("local backup written", zap.String("path", path), zap.Int64("size", info.Size()))
	return &LocalFile{Name: info.Name(), Path: path, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// create opens a new backup file, appending _N to the stem while the name
// is taken so a backup never overwrites another one from the same second.
func (s *LocalStore) create(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; ; n++ {
		filename := name
		if n > 0 {
			filename = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		path := filepath.Join(s.Dir, filename)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create backup file: %w", err)
		}
		return f, path, nil
	}
}

// List returns the backup files, newest first.
func (s *LocalStore) List() ([]LocalFile, error) {
	entries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var files []LocalFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		created := info.ModTime()
		// a _N suffix marks a second backup within the same second
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json")
		if len(stamp) >= len(fileLayout) {
			if t, err := time.Parse(fileLayout, stamp[:len(fileLayout)]); err == nil {
				created = t
			}
		}
		files = append(files, LocalFile{Name: name, Path: filepath.Join(s.Dir, name), Size: info.Size(), CreatedAt: created})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].Name > files[j].Name
		}
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Restore imports a backup file.
func (s *LocalStore) Restore(ctx context.Context, path string) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	counts, err := Import(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	s.logger.Info("backup restored", zap.String("path", path), zap.Int("rows", counts.Total()))
	return counts, nil
}

// Prune deletes all but the newest keep backups. Zero keeps everything.
func (s *LocalStore) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	files, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files[min(keep, len(files)):] {
		if err := os.Remove(f.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", f.Name, err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("old backups pruned", zap.Int("removed", removed), zap.Int("kept", keep))
	}
	return removed, nil
}
