package storage

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	gcsstorage "cloud.google.com/go/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"disputedesk/pkg/config"
	"disputedesk/pkg/errors"
)

func TestMinIOObjectURL(t *testing.T) {
	c := &MinIOClient{baseURL: "http://localhost:9000/attachments"}
	assert.Equal(t,
		"http://localhost:9000/attachments/dispute_files/d1/1700000000000-abcd1234-my%20receipt.pdf",
		c.objectURL("dispute_files/d1/1700000000000-abcd1234-my receipt.pdf"))
}

func TestNewFileUploadServiceUnknownProvider(t *testing.T) {
	_, err := NewFileUploadService(context.Background(), &config.Config{StorageProvider: "ftp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp")
}

type s3Request struct {
	method        string
	path          string
	multipart     bool
	contentLength int64
	body          string
}

func newFakeS3(t *testing.T) (*httptest.Server, chan s3Request) {
	t.Helper()
	requests := make(chan s3Request, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, multipart := r.URL.Query()["uploads"]
		length := r.ContentLength
		// Chunked signing wraps the payload; the header carries the object size.
		if decoded := r.Header.Get("X-Amz-Decoded-Content-Length"); decoded != "" {
			length, _ = strconv.ParseInt(decoded, 10, 64)
		}
		requests <- s3Request{
			method:        r.Method,
			path:          r.URL.Path,
			multipart:     multipart,
			contentLength: length,
			body:          string(body),
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func TestMinIOUploadSendsKnownSize(t *testing.T) {
	srv, requests := newFakeS3(t)

	mc, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("", "", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	c := &MinIOClient{client: mc, bucketName: "attachments", baseURL: srv.URL + "/attachments"}

	url, err := c.UploadObject(context.Background(), strings.NewReader("receipt!"), 8, "application/pdf", "dispute_files/d1/receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/attachments/dispute_files/d1/receipt.pdf", url)

	req := <-requests
	assert.Equal(t, http.MethodPut, req.method, "a sized upload is a single PUT")
	assert.False(t, req.multipart)
	assert.Equal(t, "/attachments/dispute_files/d1/receipt.pdf", req.path)
	assert.Equal(t, int64(8), req.contentLength)
	assert.Contains(t, req.body, "receipt!")
}

func TestMinIOUploadRejectsUnknownSize(t *testing.T) {
	c := &MinIOClient{}
	_, err := c.UploadObject(context.Background(), strings.NewReader("x"), -1, "text/plain", "a.txt")
	assert.True(t, errors.Is(err, errors.CodeUpload))
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, stderrors.New("client went away")
	}
	r.sent = true
	return copy(p, "partial"), nil
}

func TestGCSUploadAbortsOnReadFailure(t *testing.T) {
	var mu sync.Mutex
	finalized := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			return
		}
		mu.Lock()
		finalized++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bucket":"attachments","name":"a.txt"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	gcs, err := gcsstorage.NewClient(ctx, option.WithEndpoint(srv.URL+"/storage/v1/"), option.WithoutAuthentication())
	require.NoError(t, err)
	c := &CloudStorageClient{client: gcs, bucketName: "attachments"}
	defer c.Close()

	url, err := c.UploadObject(ctx, &failingReader{}, 64, "text/plain", "dispute_files/d1/a.txt")
	assert.Empty(t, url)
	assert.True(t, errors.Is(err, errors.CodeUpload))

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, finalized, "a truncated object must not be committed")
}
