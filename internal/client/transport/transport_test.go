package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

func TestUpload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/entities/e1/media", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "food", r.FormValue("category"))
		assert.Equal(t, "lunch", r.FormValue("comment"))

		file, header, err := r.FormFile(common.FileFormField)
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"m1","entityId":"e1","url":"http://x/m1","originalName":"photo.jpg","sizeBytes":42,"variants":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0)

	var progress []int
	rec, err := c.Upload(context.Background(), "photo.jpg", []byte("fake image bytes"),
		Destination{EntityID: "e1", Category: "food", Comment: "lunch"},
		func(pct int) { progress = append(progress, pct) })

	require.NoError(t, err)
	assert.Equal(t, "m1", rec.ID)
	assert.Equal(t, "http://x/m1", rec.URL)

	// 100 fires exactly once, as the final report, before Upload returns
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	count := 0
	last := -1
	for _, p := range progress {
		assert.GreaterOrEqual(t, p, last, "progress must be monotonic")
		last = p
		if p == 100 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUpload_ServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"message":"storage quota exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0)

	rec, err := c.Upload(context.Background(), "photo.jpg", []byte("x"), Destination{EntityID: "e1"}, nil)

	require.Nil(t, rec)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "storage quota exceeded")
}

func TestUpload_GenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0)

	_, err := c.Upload(context.Background(), "photo.jpg", []byte("x"), Destination{EntityID: "e1"}, nil)

	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestUpload_Canceled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "tok", 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	rec, err := c.Upload(ctx, "photo.jpg", []byte("x"), Destination{EntityID: "e1"}, nil)

	require.Nil(t, rec)
	assert.True(t, errors.Is(err, common.ErrAborted))
}

func TestUpload_TakenAtOverrideField(t *testing.T) {
	takenAt := time.Date(2024, 7, 14, 12, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, takenAt.Format(time.RFC3339), r.FormValue("taken_at"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"m1","variants":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0)

	_, err := c.Upload(context.Background(), "photo.jpg", []byte("x"),
		Destination{EntityID: "e1", TakenAt: &takenAt}, nil)

	require.NoError(t, err)
}
