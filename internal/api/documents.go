package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/documents"
	"github.com/beesaferoot/officelease/internal/models"
)

func entityParams(typeRaw, idRaw string) (models.EntityType, uint, error) {
	t, err := documents.ParseEntityType(typeRaw)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseUint(idRaw, 10, 64)
	if err != nil || id == 0 {
		return "", 0, badRequest("invalid entity_id %q", idRaw)
	}
	return t, uint(id), nil
}

// uploadDocument takes a multipart form with entity_type, entity_id, an
// optional folder and description, and the file itself.
func (s *Server) uploadDocument(c echo.Context) error {
	t, entityID, err := entityParams(c.FormValue("entity_type"), c.FormValue("entity_id"))
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := s.Documents.Upload(c.Request().Context(), t, entityID, c.FormValue("folder"), fh.Filename, src, c.FormValue("description"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

// listDocuments searches with ?q=, otherwise lists one entity's documents,
// optionally within ?folder=.
func (s *Server) listDocuments(c echo.Context) error {
	ctx := c.Request().Context()
	if q := c.QueryParam("q"); q != "" {
		docs, err := s.Documents.Search(ctx, q)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, docs)
	}

	t, entityID, err := entityParams(c.QueryParam("entity_type"), c.QueryParam("entity_id"))
	if err != nil {
		return err
	}
	var folder *string
	if c.QueryParams().Has("folder") {
		f, err := documents.CleanFolder(c.QueryParam("folder"))
		if err != nil {
			return err
		}
		folder = &f
	}
	docs, err := s.Documents.List(ctx, t, entityID, folder)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

func (s *Server) folderContents(c echo.Context) error {
	t, entityID, err := entityParams(c.QueryParam("entity_type"), c.QueryParam("entity_id"))
	if err != nil {
		return err
	}
	contents, err := s.Documents.FolderContents(c.Request().Context(), t, entityID, c.QueryParam("folder"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contents)
}

func (s *Server) getDocument(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	doc, f, err := s.Documents.Open(c.Request().Context(), id)
	if err != nil {
		return err
	}
	f.Close()
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) downloadDocument(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	doc, f, err := s.Documents.Open(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer f.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	http.ServeContent(c.Response(), c.Request(), doc.OriginalName, doc.UpdatedAt, f)
	return nil
}

// patchDocument applies any of folder, name and description, in that order.
func (s *Server) patchDocument(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Folder      *string `json:"folder"`
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Folder == nil && req.Name == nil && req.Description == nil {
		return badRequest("nothing to change")
	}

	ctx := c.Request().Context()
	var doc *models.Document
	if req.Folder != nil {
		if doc, err = s.Documents.Move(ctx, id, *req.Folder); err != nil {
			return err
		}
	}
	if req.Name != nil {
		if doc, err = s.Documents.Rename(ctx, id, *req.Name); err != nil {
			return err
		}
	}
	if req.Description != nil {
		if doc, err = s.Documents.Describe(ctx, id, *req.Description); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) deleteDocument(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Documents.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getTree(c echo.Context) error {
	t, err := documents.ParseEntityType(c.Param("entity_type"))
	if err != nil {
		return err
	}
	tree, err := s.Documents.Tree(c.Request().Context(), t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) putTree(c echo.Context) error {
	t, err := documents.ParseEntityType(c.Param("entity_type"))
	if err != nil {
		return err
	}
	var tree documents.Node
	if err := bind(c, &tree); err != nil {
		return err
	}
	saved, err := s.Documents.SaveTree(c.Request().Context(), t, tree)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}
