package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"careercoach-backend/internal/content"
	"careercoach-backend/internal/media"
	"careercoach-backend/internal/shared/metrics"
	"careercoach-backend/internal/shared/storage/object"
	"careercoach-backend/internal/shared/telemetry"
)

// Generator produces a payload for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, contentType content.Type) (media.Payload, error)
}

// Service runs the check, generate, then debit-and-record flow.
type Service struct {
	Store     Store
	Generator Generator

	// Archive receives image bytes when set. Archival failures are logged only.
	Archive object.ObjectStore

	now   func() time.Time
	newID func() string
}

func NewService(store Store, generator Generator, archive object.ObjectStore) *Service {
	return &Service{
		Store:     store,
		Generator: generator,
		Archive:   archive,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Request spends credits on one generation.
//
// The balance check happens before any provider call. The debit itself is
// conditional and commits with the history record, so a request that loses a
// race to another spend ends Declined and its provider output is discarded.
func (s *Service) Request(ctx context.Context, userID, prompt string, contentType content.Type) (Result, error) {
	if s == nil || s.Store == nil || s.Generator == nil {
		return Result{}, errors.New("missing dependencies")
	}
	prompt = strings.TrimSpace(prompt)
	if err := validate(userID, prompt, contentType); err != nil {
		return Result{}, err
	}
	cost := Cost(contentType)

	balance, err := s.Store.Balance(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if balance < cost {
		return s.declined(contentType, cost, balance), nil
	}

	payload, err := s.Generator.Generate(ctx, prompt, contentType)
	if err != nil {
		telemetry.Warn("generation.provider_failed", map[string]any{
			"user_id": userID,
			"type":    string(contentType),
			"error":   err,
		})
		metrics.IncGeneration(string(contentType), string(StatusFailed))
		return Result{Status: StatusFailed, ContentType: contentType, Reason: failureReason(err)}, nil
	}

	record := content.GeneratedContent{
		ID:          s.newID(),
		UserID:      userID,
		ContentType: contentType,
		Prompt:      prompt,
		Result:      payload.Data,
		CreatedAt:   s.now().UTC(),
	}
	record.StorageKey = s.archive(ctx, record, payload)

	remaining, err := s.Store.Commit(ctx, userID, cost, record)
	if err != nil {
		s.discard(record)
	}
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		telemetry.Warn("generation.debit_refused", map[string]any{
			"user_id": userID,
			"type":    string(contentType),
			"balance": remaining,
		})
		return s.declined(contentType, cost, remaining), nil
	case err != nil:
		metrics.IncGeneration(string(contentType), "error")
		return Result{}, err
	}

	metrics.IncGeneration(string(contentType), string(StatusSucceeded))
	telemetry.Info("generation.complete", map[string]any{
		"user_id":    userID,
		"content_id": record.ID,
		"type":       string(contentType),
		"cost":       cost,
		"remaining":  remaining,
	})
	return Result{
		Status:           StatusSucceeded,
		ContentID:        record.ID,
		ContentType:      contentType,
		Data:             payload.Data,
		RemainingCredits: remaining,
	}, nil
}

func (s *Service) declined(contentType content.Type, cost, balance int) Result {
	metrics.IncGeneration(string(contentType), string(StatusDeclined))
	return Result{Status: StatusDeclined, ContentType: contentType, Required: cost, Balance: balance}
}

func (s *Service) archive(ctx context.Context, record content.GeneratedContent, payload media.Payload) string {
	if s.Archive == nil || len(payload.Bytes) == 0 {
		return ""
	}
	stored, err := s.Archive.Put(ctx, object.Media{
		Owner:     record.UserID,
		ContentID: record.ID,
		MimeType:  payload.MimeType,
		Body:      bytes.NewReader(payload.Bytes),
	})
	if err != nil {
		telemetry.Warn("generation.archive_failed", map[string]any{
			"user_id":    record.UserID,
			"content_id": record.ID,
			"error":      err,
		})
		return ""
	}
	return stored.Key
}

// discard removes the archived copy of a record that was never committed.
// It runs on a fresh context so a cancelled request still cleans up.
func (s *Service) discard(record content.GeneratedContent) {
	if s.Archive == nil || record.StorageKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Archive.Delete(ctx, record.StorageKey); err != nil {
		telemetry.Warn("generation.archive_cleanup_failed", map[string]any{
			"content_id":  record.ID,
			"storage_key": record.StorageKey,
			"error":       err,
		})
	}
}

func validate(userID, prompt string, contentType content.Type) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if _, ok := content.ParseType(string(contentType)); !ok {
		return fmt.Errorf("%w: type must be IMAGE or VIDEO", ErrInvalidInput)
	}
	if prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidInput, MaxPromptLength)
	}
	return nil
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "generation timed out, please try again later"
	}
	return "generation failed, please try again later"
}
