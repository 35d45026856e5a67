// Package spill offloads large EdgeData values to Azure Blob Storage so the
// event bus carries a reference rather than the full payload, behind a
// Store implementation that the scheduler consults before publishing an
// EdgeData event.
package spill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// Reference is what a spilled value is replaced with on the wire: a pointer
// to where the real payload lives, plus enough metadata for a consumer to
// decide whether to fetch it.
type Reference struct {
	URL        string `json:"url"`
	SizeBytes  int    `json:"size_bytes"`
	BlobPath   string `json:"blob_path"`
}

// Store spills oversized values out of band and fetches them back.
type Store interface {
	// Spill uploads the JSON encoding of v under a key derived from jobID,
	// nodeID and seq, returning a Reference if it was over threshold, or
	// ok=false if v is small enough to travel inline.
	Spill(ctx context.Context, jobID, nodeID string, seq uint64, v value.Value) (Reference, bool, error)
	// Fetch downloads and decodes a previously spilled value.
	Fetch(ctx context.Context, ref Reference) (value.Value, error)
}

// NoopStore never spills; every value travels inline. It is the default
// when no blob configuration is supplied, so the engine runs without Azure
// credentials in tests and local development.
type NoopStore struct{}

func (NoopStore) Spill(_ context.Context, _, _ string, _ uint64, _ value.Value) (Reference, bool, error) {
	return Reference{}, false, nil
}

func (NoopStore) Fetch(_ context.Context, _ Reference) (value.Value, error) {
	return value.Null(), errors.New("spill: NoopStore cannot fetch a reference")
}

// BlobStore spills values over ThresholdBytes to Azure Blob Storage.
type BlobStore struct {
	client        *azblob.Client
	serviceURL    string
	containerName string
	logger        logging.Logger
	containerInit bool

	// ThresholdBytes is the JSON-encoded size above which a value is
	// spilled instead of sent inline.
	ThresholdBytes int
}

// NewBlobStore creates a BlobStore from a standard Azure Storage connection
// string.
func NewBlobStore(connectionString, containerName string, thresholdBytes int, logger logging.Logger) (*BlobStore, error) {
	if logger == nil {
		logger = logging.NoOp{}
	}
	if connectionString == "" {
		return nil, fmt.Errorf("spill: connection string is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("spill: container name is required")
	}

	params := parseConnectionString(connectionString)
	accountName := params["AccountName"]
	accountKey := params["AccountKey"]
	serviceURL := params["BlobEndpoint"]
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("spill: account name and key are required in the connection string")
	}
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("spill: failed to create shared key credential: %w", err)
	}

	var clientOpts *azblob.ClientOptions
	if strings.HasPrefix(strings.ToLower(serviceURL), "http://") {
		clientOpts = &azblob.ClientOptions{
			ClientOptions: azcore.ClientOptions{InsecureAllowCredentialWithHTTP: true},
		}
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("spill: failed to create blob client: %w", err)
	}

	if thresholdBytes <= 0 {
		thresholdBytes = 256 * 1024
	}

	return &BlobStore{
		client:         client,
		serviceURL:     strings.TrimRight(serviceURL, "/"),
		containerName:  containerName,
		logger:         logger,
		ThresholdBytes: thresholdBytes,
	}, nil
}

// Spill uploads v's JSON encoding when it exceeds ThresholdBytes.
func (b *BlobStore) Spill(ctx context.Context, jobID, nodeID string, seq uint64, v value.Value) (Reference, bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Reference{}, false, fmt.Errorf("spill: encode value: %w", err)
	}
	if len(data) <= b.ThresholdBytes {
		return Reference{}, false, nil
	}

	if err := b.ensureContainer(ctx); err != nil {
		return Reference{}, false, err
	}

	blobPath := fmt.Sprintf("%s/%s/%s.json", jobID, nodeID, strconv.FormatUint(seq, 10))
	containerClient := b.client.ServiceClient().NewContainerClient(b.containerName)
	blobClient := containerClient.NewBlockBlobClient(blobPath)

	_, err = blobClient.UploadBuffer(ctx, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"job_id":  to.Ptr(jobID),
			"node_id": to.Ptr(nodeID),
		},
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/json")},
	})
	if err != nil {
		b.logger.Error("spill upload failed", logging.String("blob_path", blobPath), logging.Int("size", len(data)), logging.Err(err))
		return Reference{}, false, fmt.Errorf("spill: upload failed: %w", err)
	}

	b.logger.Info("spilled large edge value", logging.String("blob_path", blobPath), logging.Int("size_bytes", len(data)))
	return Reference{URL: blobClient.URL(), SizeBytes: len(data), BlobPath: blobPath}, true, nil
}

// Fetch downloads and decodes a previously spilled value.
func (b *BlobStore) Fetch(ctx context.Context, ref Reference) (value.Value, error) {
	blobPath, err := b.extractBlobPath(ref)
	if err != nil {
		return value.Null(), err
	}

	containerClient := b.client.ServiceClient().NewContainerClient(b.containerName)
	blobClient := containerClient.NewBlobClient(blobPath)

	resp, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		return value.Null(), fmt.Errorf("spill: download failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return value.Null(), fmt.Errorf("spill: read failed: %w", err)
	}

	var v value.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return value.Null(), fmt.Errorf("spill: decode failed: %w", err)
	}
	return v, nil
}

func (b *BlobStore) ensureContainer(ctx context.Context) error {
	if b.containerInit {
		return nil
	}
	_, err := b.client.CreateContainer(ctx, b.containerName, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if strings.Contains(strings.ToLower(err.Error()), "containeralreadyexists") {
			b.containerInit = true
			return nil
		}
		if errors.As(err, &respErr) && respErr.ErrorCode == "ContainerAlreadyExists" {
			b.containerInit = true
			return nil
		}
		return fmt.Errorf("spill: ensure container: %w", err)
	}
	b.containerInit = true
	return nil
}

func (b *BlobStore) extractBlobPath(ref Reference) (string, error) {
	path := ref.BlobPath
	if path != "" {
		return path, nil
	}

	raw := strings.TrimSpace(ref.URL)
	if raw == "" {
		return "", fmt.Errorf("spill: reference has neither blob_path nor url")
	}

	lowerSvc := strings.ToLower(b.serviceURL)
	lowerRef := strings.ToLower(raw)
	if strings.HasPrefix(lowerRef, lowerSvc) {
		raw = raw[len(b.serviceURL):]
	}
	if idx := strings.Index(raw, "?"); idx != -1 {
		raw = raw[:idx]
	}
	if decoded, err := url.PathUnescape(raw); err == nil && decoded != "" {
		raw = decoded
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		raw = u.Path
	}
	raw = strings.TrimPrefix(raw, "/")
	raw = strings.TrimPrefix(raw, b.containerName+"/")
	if raw == "" {
		return "", fmt.Errorf("spill: blob path is empty")
	}
	return raw, nil
}

func parseConnectionString(connectionString string) map[string]string {
	parts := strings.Split(connectionString, ";")
	params := make(map[string]string, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, "=")
		if idx <= 0 {
			continue
		}
		params[part[:idx]] = part[idx+1:]
	}
	return params
}
