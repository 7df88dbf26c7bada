package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const azListPage1 = `<?xml version="1.0" encoding="utf-8"?>
<EnumerationResults ServiceEndpoint="http://testaccount.blob.local/" ContainerName="captures">
	<Prefix>2020/12/20/</Prefix>
	<Blobs>
		<Blob>
			<Name>2020/12/20/05-30_capture.pcap</Name>
			<Properties>
				<Last-Modified>Sun, 20 Dec 2020 05:31:00 GMT</Last-Modified>
				<Content-Length>100</Content-Length>
				<BlobType>BlockBlob</BlobType>
			</Properties>
		</Blob>
	</Blobs>
	<NextMarker>page-2</NextMarker>
</EnumerationResults>`

const azListPage2 = `<?xml version="1.0" encoding="utf-8"?>
<EnumerationResults ServiceEndpoint="http://testaccount.blob.local/" ContainerName="captures">
	<Prefix>2020/12/20/</Prefix>
	<Blobs>
		<Blob>
			<Name>2020/12/20/06-45_capture.pcap</Name>
			<Properties>
				<Last-Modified>Sun, 20 Dec 2020 06:46:00 GMT</Last-Modified>
				<Content-Length>200</Content-Length>
				<BlobType>BlockBlob</BlobType>
			</Properties>
		</Blob>
	</Blobs>
</EnumerationResults>`

const azAuthFailed = `<?xml version="1.0" encoding="utf-8"?>
<Error><Code>AuthenticationFailed</Code><Message>Server failed to authenticate the request.</Message></Error>`

const azBlobNotFound = `<?xml version="1.0" encoding="utf-8"?>
<Error><Code>BlobNotFound</Code><Message>The specified blob does not exist.</Message></Error>`

// newAzureTestBackend points the backend at a local stand-in for the Blob
// service using a connection string with an explicit BlobEndpoint.
func newAzureTestBackend(t *testing.T, handler http.Handler) Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewAzure(AzureConfig{
		Container: "captures",
		ConnectionString: fmt.Sprintf(
			"DefaultEndpointsProtocol=http;AccountName=testaccount;AccountKey=dGVzdGtleQ==;BlobEndpoint=%s/testaccount;",
			srv.URL),
	})
	require.NoError(t, err)
	return b
}

func TestAzureListDayDrainsMarkedListing(t *testing.T) {
	var calls int
	var prefixes, markers []string
	b := newAzureTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		prefixes = append(prefixes, r.URL.Query().Get("prefix"))
		markers = append(markers, r.URL.Query().Get("marker"))
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("marker") == "" {
			w.Write([]byte(azListPage1))
			return
		}
		w.Write([]byte(azListPage2))
	}))

	objs, err := b.ListDay(context.Background(), "2020/12/20/")
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "a listing with a continuation marker must be followed up")
	assert.Equal(t, []string{"2020/12/20/", "2020/12/20/"}, prefixes)
	assert.Equal(t, []string{"", "page-2"}, markers)
	require.Len(t, objs, 2)
	assert.Equal(t, Object{Key: "2020/12/20/05-30_capture.pcap", Size: 100}, objs[0])
	assert.Equal(t, Object{Key: "2020/12/20/06-45_capture.pcap", Size: 200}, objs[1])
}

func TestAzureListDayAuthRejected(t *testing.T) {
	b := newAzureTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(azAuthFailed))
	}))

	_, err := b.ListDay(context.Background(), "2020/12/20/")
	assert.ErrorIs(t, err, ErrBackendAuth)
}

func TestAzureFetch(t *testing.T) {
	var path string
	b := newAzureTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte("capture-bytes"))
	}))

	dest := filepath.Join(t.TempDir(), "0000_object.pcap")
	n, err := b.Fetch(context.Background(), "2020/12/20/05-30_capture.pcap", dest)
	require.NoError(t, err)

	assert.Equal(t, "/testaccount/captures/2020/12/20/05-30_capture.pcap", path)
	assert.Equal(t, int64(13), n)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "capture-bytes", string(data))
}

func TestAzureFetchMissingBlob(t *testing.T) {
	b := newAzureTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(azBlobNotFound))
	}))

	_, err := b.Fetch(context.Background(), "2020/12/20/05-30_capture.pcap", filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestClassifyAzureError(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		expected error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrBackendAuth},
		{"forbidden", http.StatusForbidden, ErrBackendAuth},
		{"not found", http.StatusNotFound, ErrObjectNotFound},
		{"server error", http.StatusInternalServerError, ErrBackendUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyAzureError(&azcore.ResponseError{StatusCode: tc.status})
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	t.Run("non-service error", func(t *testing.T) {
		err := classifyAzureError(errors.New("connection refused"))
		assert.ErrorIs(t, err, ErrBackendUnavailable)
	})
}
