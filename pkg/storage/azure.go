package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/traceops/capfetch/internal"
)

// AzureConfig is the full credential set for an Azure Blob container. Either
// ConnectionString alone or Account plus AccountKey must be supplied.
type AzureConfig struct {
	Container        string
	Account          string
	AccountKey       string
	ConnectionString string
}

type azureBackend struct {
	client    *azblob.Client
	container string
}

// NewAzure builds the Azure Blob backend.
func NewAzure(conf AzureConfig) (Backend, error) {
	var client *azblob.Client
	var err error
	if conf.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(conf.ConnectionString, nil)
	} else {
		cred, credErr := azblob.NewSharedKeyCredential(conf.Account, conf.AccountKey)
		if credErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendAuth, credErr)
		}
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", conf.Account)
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return &azureBackend{client: client, container: conf.Container}, nil
}

func (b *azureBackend) Name() string { return "az://" + b.container + "/" }

func (b *azureBackend) ListDay(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	pager := b.client.NewListBlobsFlatPager(b.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classifyAzureError(err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			var size int64
			if item.Properties != nil && item.Properties.ContentLength != nil {
				size = *item.Properties.ContentLength
			}
			out = append(out, Object{Key: *item.Name, Size: size})
		}
	}
	return out, nil
}

func (b *azureBackend) Fetch(ctx context.Context, key, dest string) (int64, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, key, nil)
	if err != nil {
		return 0, classifyAzureError(err)
	}
	return internal.WriteReadCloserToFile(resp.Body, dest)
}

func classifyAzureError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrBackendAuth, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
