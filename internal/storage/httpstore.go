package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const httpStoreTimeout = 30 * time.Second

// HTTPStore uploads blobs to an object storage service over its HTTP API
// with a bearer token, the way Supabase-style storage endpoints work. The
// public URL is derived from a separate read base so uploads and serving
// can sit behind different hosts.
type HTTPStore struct {
	uploadBaseURL string
	publicBaseURL string
	token         string
	httpc         *http.Client
}

type HTTPStoreOptions struct {
	UploadBaseURL string
	PublicBaseURL string
	Token         string
	HTTPClient    *http.Client
}

func NewHTTPStore(opts HTTPStoreOptions) (*HTTPStore, error) {
	uploadBase := strings.TrimRight(opts.UploadBaseURL, "/")
	if uploadBase == "" {
		return nil, errors.New("storage: upload base URL is required")
	}
	publicBase := strings.TrimRight(opts.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = uploadBase
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: httpStoreTimeout}
	}
	return &HTTPStore{
		uploadBaseURL: uploadBase,
		publicBaseURL: publicBase,
		token:         opts.Token,
		httpc:         httpc,
	}, nil
}

// Put uploads the blob and returns its public URL.
func (s *HTTPStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadBaseURL+"/"+cleanKey, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("storage: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return "", fmt.Errorf("storage: upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return s.publicBaseURL + "/" + cleanKey, nil
}

var _ ObjectStore = (*HTTPStore)(nil)
