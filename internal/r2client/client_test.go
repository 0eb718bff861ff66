package r2client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeR2 is a path-style S3 endpoint keeping object names only.
type fakeR2 struct {
	mu      sync.Mutex
	objects map[string]string
	puts    int
	putCode int
}

func (f *fakeR2) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		f.puts++
		if f.putCode != 0 {
			w.WriteHeader(f.putCode)
			return
		}
		f.objects[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeR2) {
	t.Helper()
	f := &fakeR2{objects: map[string]string{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		Endpoint:      srv.URL,
		AccessKeyID:   "access-key",
		SecretKey:     "secret-key",
		BucketName:    "bucket",
		PublicBaseURL: "https://cdn.example.com/",
		Prefix:        "charts/",
	})
	require.NoError(t, err)
	return c, f
}

func TestPutPNG(t *testing.T) {
	c, f := newTestClient(t)
	data := []byte("\x89PNG fake")

	url, err := c.PutPNG(context.Background(), data)
	require.NoError(t, err)
	key := c.Key(data, ".png")
	assert.Equal(t, "https://cdn.example.com/"+key, url)
	assert.True(t, strings.HasPrefix(key, "charts/"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(key, "charts/"), ".png"), 16)
	assert.Equal(t, "image/png", f.objects["/bucket/"+key])

	again, err := c.PutPNG(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, 1, f.puts, "identical image is not uploaded twice")
}

func TestPutPNG_LostRace(t *testing.T) {
	c, f := newTestClient(t)
	f.putCode = http.StatusPreconditionFailed

	_, err := c.PutPNG(context.Background(), []byte("png"))
	assert.NoError(t, err)
}

func TestPutPNG_UploadError(t *testing.T) {
	c, f := newTestClient(t)
	f.putCode = http.StatusForbidden

	_, err := c.PutPNG(context.Background(), []byte("png"))
	assert.ErrorContains(t, err, "r2client: upload")
}

func TestKey(t *testing.T) {
	c := &Client{prefix: "p/"}
	assert.Equal(t, c.Key([]byte("a"), ".png"), c.Key([]byte("a"), ".png"))
	assert.NotEqual(t, c.Key([]byte("a"), ".png"), c.Key([]byte("b"), ".png"))
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com", Endpoint("acc"))
}

func TestNew_Validation(t *testing.T) {
	valid := Config{
		Endpoint:      "https://account.r2.cloudflarestorage.com",
		AccessKeyID:   "access-key",
		SecretKey:     "secret-key",
		BucketName:    "my-bucket",
		PublicBaseURL: "https://cdn.example.com",
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"missing access key", func(c *Config) { c.AccessKeyID = "" }},
		{"missing secret key", func(c *Config) { c.SecretKey = "" }},
		{"missing bucket", func(c *Config) { c.BucketName = "" }},
		{"missing public url", func(c *Config) { c.PublicBaseURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := New(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}
