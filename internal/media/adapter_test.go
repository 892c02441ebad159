package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/content"
	"careercoach-backend/internal/media/huggingface"
	"careercoach-backend/internal/shared/metrics"
)

type fakeImages struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeImages) Generate(ctx context.Context, model, prompt string) (huggingface.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model+"|"+prompt)
	f.mu.Unlock()
	if err := f.fail[model]; err != nil {
		return huggingface.Image{}, err
	}
	return huggingface.Image{Bytes: []byte(model), MimeType: "image/png"}, nil
}

type fakeVideo struct {
	url string
	err error
}

func (f fakeVideo) Generate(ctx context.Context, prompt string) (string, error) {
	return f.url, f.err
}

func TestGenerateImageUsesPrimary(t *testing.T) {
	images := &fakeImages{}
	adapter := NewAdapter(images, "primary", "backup", nil)

	payload, err := adapter.Generate(context.Background(), "cat", content.TypeImage)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary|cat"}, images.calls)
	assert.Equal(t, content.EncodeDataURI("image/png", []byte("primary")), payload.Data)
	assert.Equal(t, []byte("primary"), payload.Bytes)
}

func TestGenerateImageFallsBackToBackup(t *testing.T) {
	images := &fakeImages{fail: map[string]error{"primary": errors.New("503")}}
	adapter := NewAdapter(images, "primary", "backup", nil)
	before := metrics.ProviderCalls("huggingface", "fallback")

	payload, err := adapter.Generate(context.Background(), "cat", content.TypeImage)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary|cat", "backup|cat"}, images.calls)
	assert.True(t, strings.HasPrefix(payload.Data, "data:image/png;base64,"))
	assert.Equal(t, before+1, metrics.ProviderCalls("huggingface", "fallback"))
}

func TestGenerateImageBothFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	backupErr := errors.New("backup down")
	images := &fakeImages{fail: map[string]error{"primary": primaryErr, "backup": backupErr}}
	adapter := NewAdapter(images, "primary", "backup", nil)

	_, err := adapter.Generate(context.Background(), "cat", content.TypeImage)
	require.ErrorIs(t, err, ErrProviderFailure)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, backupErr)
	assert.Len(t, images.calls, 2)
}

func TestGenerateImageSkipsBackupWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	images := &fakeImages{fail: map[string]error{"primary": context.Canceled}}
	adapter := NewAdapter(images, "primary", "backup", nil)

	_, err := adapter.Generate(ctx, "cat", content.TypeImage)
	require.ErrorIs(t, err, ErrProviderFailure)
	assert.Len(t, images.calls, 1)
}

func TestGenerateVideoReturnsURL(t *testing.T) {
	adapter := NewAdapter(nil, "", "", fakeVideo{url: "https://cdn.example.com/v.mp4"})

	payload, err := adapter.Generate(context.Background(), "waves", content.TypeVideo)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.mp4", payload.Data)
	assert.Nil(t, payload.Bytes)
}

func TestGenerateVideoFailure(t *testing.T) {
	adapter := NewAdapter(nil, "", "", fakeVideo{err: errors.New("quota")})

	_, err := adapter.Generate(context.Background(), "waves", content.TypeVideo)
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestGenerateUnconfiguredProviders(t *testing.T) {
	adapter := NewAdapter(nil, "", "", nil)

	_, err := adapter.Generate(context.Background(), "x", content.TypeImage)
	assert.ErrorIs(t, err, ErrProviderFailure)
	_, err = adapter.Generate(context.Background(), "x", content.TypeVideo)
	assert.ErrorIs(t, err, ErrProviderFailure)
	_, err = adapter.Generate(context.Background(), "x", content.Type("AUDIO"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewWiresHuggingFaceFallbackOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/primary-model") {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	adapter := New(Config{
		HuggingFaceToken: "hf",
		HFBaseURL:        server.URL,
		PrimaryModel:     "org/primary-model",
		BackupModel:      "org/backup-model",
		ImageTimeout:     time.Second,
	})

	payload, err := adapter.Generate(context.Background(), "city at night", content.TypeImage)
	require.NoError(t, err)
	assert.Equal(t, content.EncodeDataURI("image/jpeg", []byte("jpeg-bytes")), payload.Data)

	_, err = adapter.Generate(context.Background(), "clip", content.TypeVideo)
	assert.ErrorIs(t, err, ErrProviderFailure)
}
