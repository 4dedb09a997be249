package design

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"server/internal/storage"
)

const (
	persistTimeout   = 30 * time.Second
	maxArtifactBytes = 25 * 1024 * 1024
)

// ArtifactPersister copies provider-hosted result images into the object
// store. Provider URLs expire; stored copies do not.
type ArtifactPersister struct {
	store  storage.ObjectStore
	httpc  *http.Client
	logger zerolog.Logger
}

type ArtifactPersisterOptions struct {
	Store      storage.ObjectStore
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

func NewArtifactPersister(opts ArtifactPersisterOptions) *ArtifactPersister {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: persistTimeout}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &ArtifactPersister{store: opts.Store, httpc: httpc, logger: logger}
}

// Persist fetches each provider URL and re-uploads it under a
// deterministic per-design key. The returned slice always has the same
// length and order as the input: an image that cannot be fetched or
// stored keeps its original provider URL at that index.
func (p *ArtifactPersister) Persist(ctx context.Context, designID string, providerURLs []string) []string {
	if p == nil || p.store == nil || len(providerURLs) == 0 {
		return providerURLs
	}
	stored := make([]string, len(providerURLs))
	for i, src := range providerURLs {
		stored[i] = src
		data, contentType, err := p.fetch(ctx, src)
		if err != nil {
			p.logger.Warn().Err(err).Str("design_id", designID).Int("index", i).Msg("persist: fetch failed, keeping provider URL")
			continue
		}
		key := fmt.Sprintf("designs/%s/design-%d.png", designID, i+1)
		url, err := p.store.Put(ctx, key, data, contentType)
		if err != nil {
			p.logger.Warn().Err(err).Str("design_id", designID).Str("key", key).Msg("persist: upload failed, keeping provider URL")
			continue
		}
		stored[i] = url
	}
	return stored
}

func (p *ArtifactPersister) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
