package content

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *MemoryRepo, userID string, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), GeneratedContent{
			ID:          fmt.Sprintf("%s-%02d", userID, i),
			UserID:      userID,
			ContentType: TypeImage,
			Prompt:      "p",
			Result:      EncodeDataURI("image/png", []byte{byte(i)}),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestListHistoryCapsAndOrdersNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	seed(t, repo, "u1", 25, base)
	seed(t, repo, "u2", 3, base)

	items, err := NewService(repo, nil).ListHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, HistoryPageSize)
	assert.Equal(t, "u1-24", items[0].ID)
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].CreatedAt.After(items[i].CreatedAt), "index %d not strictly older", i)
		assert.Equal(t, "u1", items[i].UserID)
	}
}

func TestListHistoryAnonymousIsEmpty(t *testing.T) {
	items, err := NewService(nil, nil).ListHistory(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListHistoryNoRecordsIsEmpty(t *testing.T) {
	items, err := NewService(NewMemoryRepo(), nil).ListHistory(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGetForbiddenForOtherUser(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo, "u1", 1, time.Now())
	_, err := NewService(repo, nil).Get(context.Background(), "u2", "u1-00")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOpenImageDecodesDataURI(t *testing.T) {
	repo := NewMemoryRepo()
	require.NoError(t, repo.Create(context.Background(), GeneratedContent{
		ID: "c1", UserID: "u1", ContentType: TypeImage,
		Result: EncodeDataURI("image/png", []byte("png-bytes")), CreatedAt: time.Now(),
	}))

	dl, err := NewService(repo, nil).Open(context.Background(), "u1", "c1")
	require.NoError(t, err)
	defer dl.Body.Close()
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", dl.ContentType)
	assert.Equal(t, "generated_c1.png", dl.FileName)
}

func TestOpenVideoRedirects(t *testing.T) {
	repo := NewMemoryRepo()
	require.NoError(t, repo.Create(context.Background(), GeneratedContent{
		ID: "v1", UserID: "u1", ContentType: TypeVideo, Result: "https://cdn.example.com/v.mp4", CreatedAt: time.Now(),
	}))

	dl, err := NewService(repo, nil).Open(context.Background(), "u1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.mp4", dl.RedirectURL)
	assert.Nil(t, dl.Body)
}

func TestDecodeDataURIRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"https://x", "data:image/png,abc", "data:image/png;base64"} {
		_, _, err := DecodeDataURI(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}
