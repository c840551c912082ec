// Package drive talks to Google Drive for off-site backups. Only the
// drive.file scope is requested, so the application sees the files it
// created and nothing else.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// ErrNotAuthorized is returned when no OAuth token has been stored yet.
var ErrNotAuthorized = errors.New("google drive is not authorized, run `officelease backup drive auth`")

type File struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is the subset of Drive the backup flow needs.
type Client interface {
	FindFolder(ctx context.Context, name string) (string, error)
	CreateFolder(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, folderID, name string, r io.Reader) (*File, error)
	List(ctx context.Context, folderID string) ([]File, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

type GoogleClient struct {
	svc *drive.Service
}

var _ Client = (*GoogleClient)(nil)

// NewGoogleClient wraps the Drive v3 API on top of an authorized client.
func NewGoogleClient(ctx context.Context, httpClient *http.Client) (*GoogleClient, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &GoogleClient{svc: svc}, nil
}

// FindFolder returns the id of the first folder called name, or "" when
// there is none.
func (c *GoogleClient) FindFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMimeType)
	res, err := c.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("find folder", err)
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (c *GoogleClient) CreateFolder(ctx context.Context, name string) (string, error) {
	f, err := c.svc.Files.Create(&drive.File{Name: name, MimeType: folderMimeType}).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("create folder", err)
	}
	return f.Id, nil
}

func (c *GoogleClient) Upload(ctx context.Context, folderID, name string, r io.Reader) (*File, error) {
	meta := &drive.File{Name: name, MimeType: "application/json"}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	f, err := c.svc.Files.Create(meta).
		Media(r, googleapi.ContentType("application/json")).
		Fields("id, name, size, createdTime").
		Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("upload", err)
	}
	out := toFile(f)
	return &out, nil
}

// List returns the non-folder files of a folder, newest first.
func (c *GoogleClient) List(ctx context.Context, folderID string) ([]File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false", escapeQuery(folderID), folderMimeType)
	var out []File
	err := c.svc.Files.List().Q(q).
		OrderBy("createdTime desc").
		Fields("nextPageToken, files(id, name, size, createdTime)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				out = append(out, toFile(f))
			}
			return nil
		})
	if err != nil {
		return nil, wrapAPIError("list", err)
	}
	return out, nil
}

func (c *GoogleClient) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, wrapAPIError("download", err)
	}
	return resp.Body, nil
}

func toFile(f *drive.File) File {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return File{ID: f.Id, Name: f.Name, Size: f.Size, CreatedAt: created}
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// wrapAPIError turns the "API not enabled" failure into an actionable message.
func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		for _, item := range apiErr.Errors {
			if item.Reason == "accessNotConfigured" {
				return fmt.Errorf("drive %s: the Google Drive API is not enabled for this OAuth client; enable it in the Google Cloud console and retry: %w", op, err)
			}
		}
		if strings.Contains(apiErr.Message, "has not been used") || strings.Contains(apiErr.Message, "is disabled") {
			return fmt.Errorf("drive %s: the Google Drive API is not enabled for this OAuth client; enable it in the Google Cloud console and retry: %w", op, err)
		}
	}
	return fmt.Errorf("drive %s: %w", op, err)
}
