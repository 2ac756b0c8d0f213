package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

func TestHTTPLoaderDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("audio payload"))
	}))
	defer srv.Close()

	l := NewHTTPLoader(5 * time.Second)
	data, filename, err := l.Load(context.Background(), job.Source{Kind: job.SourceRemoteURL, Value: srv.URL + "/media/talk.mp3"})

	require.NoError(t, err)
	assert.Equal(t, []byte("audio payload"), data)
	assert.Equal(t, "talk.mp3", filename)
}

func TestHTTPLoaderPrefersContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="meeting.ogg"`)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	l := NewHTTPLoader(5 * time.Second)
	_, filename, err := l.Load(context.Background(), job.Source{Kind: job.SourceRemoteURL, Value: srv.URL + "/dl"})

	require.NoError(t, err)
	assert.Equal(t, "meeting.ogg", filename)
}

func TestHTTPLoaderRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewHTTPLoader(5 * time.Second)
	_, _, err := l.Load(context.Background(), job.Source{Kind: job.SourceRemoteURL, Value: srv.URL + "/missing"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPLoaderRejectsOtherKinds(t *testing.T) {
	l := NewHTTPLoader(5 * time.Second)
	_, _, err := l.Load(context.Background(), job.Source{Kind: job.SourceLocalPath, Value: "/tmp/a.mp3"})
	assert.Error(t, err)
}

func TestKindLoaderDispatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	loaders := KindLoader{
		job.SourceRemoteURL: NewHTTPLoader(5 * time.Second),
		job.SourceLocalPath: LocalLoader{},
	}

	data, _, err := loaders.Load(context.Background(), job.Source{Kind: job.SourceRemoteURL, Value: srv.URL + "/r"})
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), data)

	_, _, err = loaders.Load(context.Background(), job.Source{Kind: job.SourcePlatformFileID, Value: "file-1"})
	assert.Error(t, err)
}
