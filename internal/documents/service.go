package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/logging"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

var entityTables = map[models.EntityType]string{
	models.EntityBuilding: "buildings",
	models.EntityOffice:   "offices",
	models.EntityTenant:   "tenants",
	models.EntityLease:    "leases",
	models.EntityPayment:  "payments",
}

type Service struct {
	db     *gorm.DB
	store  Store
	audit  *audit.Recorder
	logger *zap.Logger
}

func NewService(db *gorm.DB, baseDir string, rec *audit.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = audit.NewRecorder(logger)
	}
	return &Service{db: db, store: Store{BaseDir: baseDir}, audit: rec, logger: logger}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

func (s *Service) checkEntity(ctx context.Context, t models.EntityType, id uint) error {
	if !t.Valid() {
		return repository.NewValidationError("entity_type", "unknown entity type %q", t)
	}
	var n int64
	if err := s.db.WithContext(ctx).Table(entityTables[t]).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repository.NewValidationError("entity_id", "%s %d does not exist", t, id)
	}
	return nil
}

// Upload stores r in the folder of an entity. A name already used in that
// folder is stored as stem_N.ext; OriginalName keeps what the client sent.
func (s *Service) Upload(ctx context.Context, t models.EntityType, entityID uint, folder, originalName string, r io.Reader, description string) (*models.Document, error) {
	if err := s.checkEntity(ctx, t, entityID); err != nil {
		return nil, err
	}
	folder, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	name, err := CleanName(originalName)
	if err != nil {
		return nil, err
	}

	filename, size, err := s.store.Save(t, entityID, folder, name, r)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		EntityType:   t,
		EntityID:     entityID,
		FolderPath:   folder,
		Filename:     filename,
		OriginalName: name,
		FileType:     Category(name),
		FileSize:     size,
		Description:  description,
	}
	err = database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := repository.NewDocumentRepository(tx).Create(ctx, doc); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "documents", doc.ID, models.ActionCreate, nil, doc)
	})
	if err != nil {
		_ = s.store.Remove(doc)
		return nil, err
	}

	s.log(ctx).Info("document uploaded",
		zap.String("entity_type", string(t)),
		zap.Uint("entity_id", entityID),
		zap.String("folder", folder),
		zap.String("filename", filename),
		zap.Int64("size", size),
	)
	return doc, nil
}

// relocate moves the file of doc and persists the new location. The file is
// moved back when the row cannot be saved.
func (s *Service) relocate(ctx context.Context, id uint, change func(doc *models.Document) (folder, name string, err error)) (*models.Document, error) {
	var result *models.Document
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewDocumentRepository(tx)
		doc, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		before := *doc

		folder, name, err := change(doc)
		if err != nil {
			return err
		}
		moved := folder != before.FolderPath || name != before.Filename
		if moved {
			filename, err := s.store.Relocate(doc, folder, name)
			if err != nil {
				return err
			}
			doc.FolderPath, doc.Filename = folder, filename
		}
		undo := func() {
			if moved {
				_, _ = s.store.Relocate(doc, before.FolderPath, before.Filename)
			}
		}

		if err := repo.Update(ctx, doc); err != nil {
			undo()
			return err
		}
		if err := s.audit.Record(ctx, tx, "documents", doc.ID, models.ActionUpdate, &before, doc); err != nil {
			undo()
			return err
		}
		result = doc
		return nil
	})
	return result, err
}

// Move puts a document in another folder of the same entity.
func (s *Service) Move(ctx context.Context, id uint, folder string) (*models.Document, error) {
	folder, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	return s.relocate(ctx, id, func(doc *models.Document) (string, string, error) {
		return folder, doc.Filename, nil
	})
}

// Rename gives a document a new display and file name. A taken file name is
// resolved as stem_N.ext.
func (s *Service) Rename(ctx context.Context, id uint, name string) (*models.Document, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return s.relocate(ctx, id, func(doc *models.Document) (string, string, error) {
		doc.OriginalName = name
		doc.FileType = Category(name)
		return doc.FolderPath, name, nil
	})
}

func (s *Service) Describe(ctx context.Context, id uint, description string) (*models.Document, error) {
	var doc *models.Document
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewDocumentRepository(tx)
		var err error
		if doc, err = repo.Get(ctx, id); err != nil {
			return err
		}
		before := *doc
		doc.Description = description
		if err := repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "documents", id, models.ActionUpdate, &before, doc)
	})
	return doc, err
}

// Delete removes the document row and then its file.
func (s *Service) Delete(ctx context.Context, id uint) error {
	var doc *models.Document
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewDocumentRepository(tx)
		var err error
		if doc, err = repo.Get(ctx, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "documents", id, models.ActionDelete, doc, nil)
	})
	if err != nil {
		return err
	}
	if err := s.store.Remove(doc); err != nil {
		s.log(ctx).Warn("failed to remove document file", zap.String("path", s.store.Path(doc)), zap.Error(err))
	}
	return nil
}

// Open returns the document and its file, which the caller must close.
func (s *Service) Open(ctx context.Context, id uint) (*models.Document, *os.File, error) {
	doc, err := repository.NewDocumentRepository(s.db).Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	fh, err := os.Open(s.store.Path(doc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("file of document %d is missing: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return doc, fh, nil
}

// List returns an entity's documents; a nil folder means every folder.
func (s *Service) List(ctx context.Context, t models.EntityType, entityID uint, folder *string) ([]models.Document, error) {
	if folder != nil {
		cleaned, err := CleanFolder(*folder)
		if err != nil {
			return nil, err
		}
		folder = &cleaned
	}
	return repository.NewDocumentRepository(s.db).ByEntity(ctx, t, entityID, folder)
}

func (s *Service) Search(ctx context.Context, term string) ([]models.Document, error) {
	return repository.NewDocumentRepository(s.db).Search(ctx, term)
}

type Subfolder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type FileEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Size        int64  `json:"size"`
	DocumentID  *uint  `json:"document_id"`
}

type FolderContents struct {
	Folder     string      `json:"folder"`
	Subfolders []Subfolder `json:"subfolders"`
	Files      []FileEntry `json:"files"`
}

// FolderContents lists the subfolders and files of one folder. Subfolders
// come from both the tree and the disk; files on disk without a document row
// are listed without an id.
func (s *Service) FolderContents(ctx context.Context, t models.EntityType, entityID uint, folder string) (*FolderContents, error) {
	folder, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	tree, err := s.Tree(ctx, t)
	if err != nil {
		return nil, err
	}
	docs, err := repository.NewDocumentRepository(s.db).ByEntity(ctx, t, entityID, &folder)
	if err != nil {
		return nil, err
	}
	byFile := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		byFile[d.Filename] = d
	}

	out := &FolderContents{Folder: folder, Subfolders: []Subfolder{}, Files: []FileEntry{}}
	dirs := map[string]bool{}
	for _, name := range tree.children(folder) {
		dirs[name] = true
	}

	entries, err := os.ReadDir(s.store.Dir(t, entityID, folder))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read folder %q: %w", folder, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs[e.Name()] = true
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		entry := FileEntry{Name: e.Name(), DisplayName: e.Name(), Size: info.Size()}
		if d, ok := byFile[e.Name()]; ok {
			id := d.ID
			entry.DisplayName = d.OriginalName
			entry.DocumentID = &id
		}
		out.Files = append(out.Files, entry)
	}

	for name := range dirs {
		out.Subfolders = append(out.Subfolders, Subfolder{Name: name, Path: path.Join(folder, name)})
	}
	sort.Slice(out.Subfolders, func(i, j int) bool { return out.Subfolders[i].Name < out.Subfolders[j].Name })
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Name < out.Files[j].Name })
	return out, nil
}

// Tree returns the saved folder tree of t, or its default.
func (s *Service) Tree(ctx context.Context, t models.EntityType) (Node, error) {
	if !t.Valid() {
		return Node{}, repository.NewValidationError("entity_type", "unknown entity type %q", t)
	}
	cfg, err := repository.NewDocumentRepository(s.db).TreeConfig(ctx, t)
	if errors.Is(err, repository.ErrNotFound) {
		return DefaultTree(t), nil
	}
	if err != nil {
		return Node{}, err
	}
	var tree Node
	if err := json.Unmarshal(cfg.Tree, &tree); err != nil {
		return Node{}, fmt.Errorf("stored %s tree is malformed: %w", t, err)
	}
	return tree, nil
}

func (s *Service) SaveTree(ctx context.Context, t models.EntityType, tree Node) (Node, error) {
	if !t.Valid() {
		return Node{}, repository.NewValidationError("entity_type", "unknown entity type %q", t)
	}
	if err := ValidateTree(tree); err != nil {
		return Node{}, err
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return Node{}, err
	}
	if _, err := repository.NewDocumentRepository(s.db).SaveTreeConfig(ctx, t, datatypes.JSON(raw)); err != nil {
		return Node{}, err
	}
	s.log(ctx).Info("document tree saved", zap.String("entity_type", string(t)), zap.Int("folders", len(FlattenTree(tree))))
	return tree, nil
}
