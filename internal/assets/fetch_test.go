package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFetcherLocal(t *testing.T) {
	f := &SourceFetcher{Local: fstest.MapFS{
		"SGDemo/images/bg.png": {Data: []byte("png")},
	}}

	data, err := f.Fetch(context.Background(), "/SGDemo/images/bg.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	data, err = f.Fetch(context.Background(), "SGDemo/../SGDemo/images/bg.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	_, err = f.Fetch(context.Background(), "/SGDemo/images/missing.png")
	assert.Error(t, err)
}

func TestSourceFetcherWithoutLocalSource(t *testing.T) {
	f := &SourceFetcher{}
	_, err := f.Fetch(context.Background(), "/images/bg.png")
	assert.ErrorIs(t, err, ErrNoLocalSource)
}

func TestSourceFetcherHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bg.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	f := &SourceFetcher{Client: srv.Client()}

	data, err := f.Fetch(context.Background(), srv.URL+"/bg.png")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, isAbsoluteURL("https://cdn.example.com/a.png"))
	assert.True(t, isAbsoluteURL("HTTP://cdn.example.com/a.png"))
	assert.False(t, isAbsoluteURL("/images/a.png"))
	assert.False(t, isAbsoluteURL("httpdocs/a.png"))
}
