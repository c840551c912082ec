// Package documents stores files attached to buildings, offices, tenants,
// leases and payments, organized by a per entity type folder tree.
package documents

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

const (
	CategoryImage    = "image"
	CategoryDocument = "document"
	CategoryArchive  = "archive"
	CategoryOther    = "other"
)

var categories = map[string]string{
	".jpg": CategoryImage, ".jpeg": CategoryImage, ".png": CategoryImage, ".gif": CategoryImage,
	".bmp": CategoryImage, ".svg": CategoryImage, ".webp": CategoryImage,
	".pdf": CategoryDocument, ".doc": CategoryDocument, ".docx": CategoryDocument, ".xls": CategoryDocument,
	".xlsx": CategoryDocument, ".ppt": CategoryDocument, ".pptx": CategoryDocument, ".txt": CategoryDocument,
	".zip": CategoryArchive, ".rar": CategoryArchive, ".7z": CategoryArchive, ".tar": CategoryArchive, ".gz": CategoryArchive,
}

// Category classifies a file name by its extension.
func Category(name string) string {
	if c, ok := categories[strings.ToLower(filepath.Ext(name))]; ok {
		return c
	}
	return CategoryOther
}

// CleanFolder normalizes a folder path relative to an entity directory.
// Absolute paths and paths escaping the entity directory are rejected; the
// entity root itself is "".
func CleanFolder(folder string) (string, error) {
	folder = strings.TrimSpace(strings.ReplaceAll(folder, `\`, "/"))
	if folder == "" {
		return "", nil
	}
	if strings.HasPrefix(folder, "/") || filepath.VolumeName(folder) != "" {
		return "", repository.NewValidationError("folder", "folder %q must be relative", folder)
	}
	for _, part := range strings.Split(folder, "/") {
		if part == ".." {
			return "", repository.NewValidationError("folder", "folder %q leaves the entity directory", folder)
		}
	}
	cleaned := path.Clean(folder)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

// CleanName reduces a client supplied file name to a plain base name.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	name = path.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", repository.NewValidationError("name", "invalid file name")
	}
	return name, nil
}

// Store lays files out as BaseDir/<entity_type>/<entity_id>/<folder>/<file>.
type Store struct {
	BaseDir string
}

func (s Store) entityDir(t models.EntityType, id uint) string {
	return filepath.Join(s.BaseDir, string(t), strconv.FormatUint(uint64(id), 10))
}

// Dir is the directory of a cleaned folder of an entity.
func (s Store) Dir(t models.EntityType, id uint, folder string) string {
	return filepath.Join(s.entityDir(t, id), filepath.FromSlash(folder))
}

// Path is where a document's file lives.
func (s Store) Path(doc *models.Document) string {
	return filepath.Join(s.Dir(doc.EntityType, doc.EntityID, doc.FolderPath), doc.Filename)
}

// candidate returns name for n == 0 and stem_n.ext after that.
func candidate(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// create opens a new file in dir named after name, renaming to stem_N.ext
// until the name is free.
func create(dir, name string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create folder: %w", err)
	}
	for n := 0; ; n++ {
		filename := candidate(name, n)
		fh, err := os.OpenFile(filepath.Join(dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create %s: %w", filename, err)
		}
		return fh, filename, nil
	}
}

// free returns the first stem_N.ext variant of name not present in dir.
func free(dir, name string) (string, error) {
	for n := 0; ; n++ {
		filename := candidate(name, n)
		_, err := os.Lstat(filepath.Join(dir, filename))
		if errors.Is(err, os.ErrNotExist) {
			return filename, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Save copies r into the folder and returns the stored file name and size.
func (s Store) Save(t models.EntityType, id uint, folder, name string, r io.Reader) (string, int64, error) {
	fh, filename, err := create(s.Dir(t, id, folder), name)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(fh, r)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(fh.Name())
		return "", 0, fmt.Errorf("failed to store %s: %w", filename, err)
	}
	return filename, size, nil
}

// Relocate moves a stored file to folder under name, resolving conflicts,
// and returns the new file name.
func (s Store) Relocate(doc *models.Document, folder, name string) (string, error) {
	dir := s.Dir(doc.EntityType, doc.EntityID, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	filename, err := free(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(s.Path(doc), filepath.Join(dir, filename)); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", doc.Filename, err)
	}
	return filename, nil
}

// Remove deletes a document's file. A file that is already gone is not an
// error.
func (s Store) Remove(doc *models.Document) error {
	err := os.Remove(s.Path(doc))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
