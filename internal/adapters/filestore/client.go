package filestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/metrics"
)

type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// Client — клиент S3-совместимого объектного хранилища с публичной раздачей.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ domain.FileStore = (*Client)(nil)

func NewClient(cfg Config) *Client {
	client := &Client{cfg: cfg}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.httpClient = &http.Client{Timeout: timeout}
	client.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return client
}

func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

func (c *Client) objectURL(bucket, name string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.cfg.BaseURL, url.PathEscape(bucket), url.PathEscape(name))
}

// PublicURL возвращает адрес публичной раздачи объекта.
func (c *Client) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.cfg.BaseURL, url.PathEscape(bucket), url.PathEscape(name))
}

// Upload заливает объект и возвращает публичный URL. Повторная заливка
// под тем же именем перезаписывает объект.
func (c *Client) Upload(ctx context.Context, bucket, name, contentType string, body io.Reader) (string, error) {
	if c.httpClient == nil {
		return "", fmt.Errorf("http client is not configured")
	}
	if bucket == "" || name == "" {
		return "", fmt.Errorf("bucket and object name are required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(bucket, name), body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("x-upsert", "true")
	if c.cfg.ServiceKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ObserveNetworkRequest("filestore", "upload", bucket, start, err)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("filestore upload failed: %s", strings.TrimSpace(string(data)))
	}
	return c.PublicURL(bucket, name), nil
}

// Delete удаляет объект. Отсутствующий объект не является ошибкой.
func (c *Client) Delete(ctx context.Context, bucket, name string) error {
	if c.httpClient == nil {
		return fmt.Errorf("http client is not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(bucket, name), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.cfg.ServiceKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ObserveNetworkRequest("filestore", "delete", bucket, start, err)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("filestore delete failed: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
