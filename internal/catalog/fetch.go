package catalog

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/meur/wftracker/internal/models"
)

// DefaultSourceURL is the community dataset of every obtainable item
const DefaultSourceURL = "https://raw.githubusercontent.com/WFCD/warframe-items/master/data/json/All.json"

// Loader produces a fully normalized catalog or an error
type Loader interface {
	Load(ctx context.Context) ([]models.CatalogItem, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context) ([]models.CatalogItem, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context) ([]models.CatalogItem, error) {
	return f(ctx)
}

// Client downloads the raw dataset over HTTP. There are no retries.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a dataset client; a zero timeout means none
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultSourceURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the raw dataset body
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(ErrUnexpectedStatus, "status=%d url=%s", resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog body")
	}
	return body, nil
}

// Load fetches and normalizes the dataset
func (c *Client) Load(ctx context.Context) ([]models.CatalogItem, error) {
	body, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(body)
}

// FileLoader normalizes a dataset dump from disk
type FileLoader struct {
	Path string
}

// Load reads and normalizes the file
func (f FileLoader) Load(ctx context.Context) ([]models.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog file %s", f.Path)
	}
	return Normalize(data)
}
