package game

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/decker502/lessonplay/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

var (
	// ErrUnsupportedReference the model reference scheme cannot be resolved
	ErrUnsupportedReference = errors.New("unsupported model reference")
	// ErrResourceReleased the resource was already released
	ErrResourceReleased = errors.New("resource already released")
)

// maxInlineKeyLength references longer than this (data URIs, blobs) are cached under a hash key
const maxInlineKeyLength = 256

// Fetcher resolves a model reference to its raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f(ctx, ref).
func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// ReferenceFetcher is the default Fetcher. It understands:
//   - http:// and https:// URLs
//   - data: URIs (base64 payloads)
//   - blob: references registered with RegisterBlob
//   - everything else is a path, looked up in Assets first (if set) and then on disk
type ReferenceFetcher struct {
	Client *http.Client
	Assets fs.FS

	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewReferenceFetcher creates a fetcher; assets may be nil.
func NewReferenceFetcher(assets fs.FS) *ReferenceFetcher {
	return &ReferenceFetcher{
		Client: http.DefaultClient,
		Assets: assets,
		blobs:  make(map[string][]byte),
	}
}

// RegisterBlob makes a host-supplied payload available under a blob: reference.
func (f *ReferenceFetcher) RegisterBlob(ref string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[ref] = data
}

// Fetch implements Fetcher.
func (f *ReferenceFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "blob:"):
		f.mu.RLock()
		data, ok := f.blobs[ref]
		f.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: unknown blob %s", ErrUnsupportedReference, ref)
		}
		return data, nil
	case ref == "":
		return nil, fmt.Errorf("%w: empty reference", ErrUnsupportedReference)
	}

	if f.Assets != nil {
		if data, err := fs.ReadFile(f.Assets, strings.TrimPrefix(ref, "/")); err == nil {
			return data, nil
		}
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", ref, err)
	}
	return data, nil
}

func (f *ReferenceFetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", ref, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %s", ref, strconv.Itoa(resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", ref, err)
	}
	return data, nil
}

// decodeDataURI decodes "data:[<mediatype>][;base64],<data>"
func decodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: malformed data URI", ErrUnsupportedReference)
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode data URI: %w", err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape data URI: %w", err)
	}
	return []byte(text), nil
}

// cachedModel is one fetched payload shared by every asset that references it.
type cachedModel struct {
	data     []byte
	refCount int
}

// ResourceManager is responsible for fetching and caching model payloads
// for the playback engine, and for releasing them on teardown.
//
// Each LoadModel call decodes a fresh model.Model from the cached bytes, so
// per-asset material changes (opacity) never leak between assets that share
// the same reference.
//
// Thread Safety Note:
// LoadModel may be called from the loading pipeline goroutine while the render
// loop calls Release; the cache is guarded by a mutex.
type ResourceManager struct {
	fetcher Fetcher
	log     logrus.FieldLogger

	mu     sync.Mutex
	models map[string]*cachedModel
}

// NewResourceManager creates a ResourceManager backed by the given fetcher.
func NewResourceManager(fetcher Fetcher, log logrus.FieldLogger) *ResourceManager {
	return &ResourceManager{
		fetcher: fetcher,
		log:     log.WithField("system", "ResourceManager"),
		models:  make(map[string]*cachedModel),
	}
}

// CacheKey returns the cache key for a reference.
// Short references are used verbatim; long ones (data URIs) are hashed.
func CacheKey(ref string) string {
	if len(ref) <= maxInlineKeyLength {
		return ref
	}
	return "xxh3:" + strconv.FormatUint(xxh3.HashString(ref), 16)
}

// LoadModel fetches (or reuses) the payload for ref and decodes a model from it.
//
// Returns:
//   - the decoded model
//   - the cache key to pass to Release once the model's meshes are disposed
//   - an error when fetching or decoding fails; nothing is cached in that case
func (rm *ResourceManager) LoadModel(ctx context.Context, ref string) (*model.Model, string, error) {
	key := CacheKey(ref)

	rm.mu.Lock()
	entry, cached := rm.models[key]
	rm.mu.Unlock()

	var data []byte
	if cached {
		data = entry.data
	} else {
		fetched, err := rm.fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		data = fetched
	}

	m, err := model.Decode(data)
	if err != nil {
		return nil, "", err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if entry, ok := rm.models[key]; ok {
		entry.refCount++
	} else {
		rm.models[key] = &cachedModel{data: data, refCount: 1}
	}
	return m, key, nil
}

// Release drops one reference to a cached payload, freeing it at zero.
func (rm *ResourceManager) Release(key string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	entry, ok := rm.models[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrResourceReleased, key)
	}
	entry.refCount--
	if entry.refCount <= 0 {
		delete(rm.models, key)
		rm.log.Debugf("[ResourceManager] released %s", key)
	}
	return nil
}

// CachedCount returns the number of payloads currently held.
func (rm *ResourceManager) CachedCount() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.models)
}
