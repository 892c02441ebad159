package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"careercoach-backend/internal/shared/storage/object"
)

// Service reads the generation history.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

func NewService(repo Repo, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Store: store}
}

// ListHistory returns the newest records for the user, at most HistoryPageSize.
// An empty userID (anonymous caller) yields an empty list rather than an error.
func (s *Service) ListHistory(ctx context.Context, userID string) ([]GeneratedContent, error) {
	if strings.TrimSpace(userID) == "" {
		return []GeneratedContent{}, nil
	}
	if s == nil || s.Repo == nil {
		return nil, errors.New("missing dependencies")
	}
	items, err := s.Repo.ListByUser(ctx, userID, HistoryPageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []GeneratedContent{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (GeneratedContent, error) {
	if userID == "" || id == "" {
		return GeneratedContent{}, ErrInvalidInput
	}
	if s == nil || s.Repo == nil {
		return GeneratedContent{}, errors.New("missing dependencies")
	}
	return s.Repo.GetByID(ctx, userID, id)
}

// Download is either a byte stream or a redirect target.
type Download struct {
	FileName    string
	ContentType string
	Body        io.ReadCloser
	RedirectURL string
}

// Open resolves a record for download. Images stream from the archive when one
// exists, otherwise from the stored data URI. Videos redirect to their URL.
func (s *Service) Open(ctx context.Context, userID, id string) (Download, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return Download{}, err
	}

	if item.ContentType == TypeVideo {
		return Download{RedirectURL: item.Result}, nil
	}

	mimeType, data, decodeErr := DecodeDataURI(item.Result)
	if item.StorageKey != "" && s.Store != nil {
		rc, err := s.Store.Open(ctx, item.StorageKey)
		if err == nil {
			if decodeErr != nil {
				mimeType = "application/octet-stream"
			}
			return Download{
				FileName:    fileName(item.ID, mimeType),
				ContentType: mimeType,
				Body:        rc,
			}, nil
		}
		if decodeErr != nil {
			return Download{}, fmt.Errorf("open archived content: %w", err)
		}
	}
	if decodeErr != nil {
		return Download{}, decodeErr
	}
	return Download{
		FileName:    fileName(item.ID, mimeType),
		ContentType: mimeType,
		Body:        io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func fileName(id, mimeType string) string {
	return "generated_" + id + object.ExtensionFor(mimeType)
}
