// Package assethost talks to the hosted-file CDN that stores ticket
// attachments. Uploads are synchronous; delivery URLs are derived from the
// stored handle on demand and degrade to fallbacks rather than failing
// read requests.
package assethost

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/oumaimagaidi/TicketFlow/internal/config"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
)

// Client is the asset host adapter.
type Client struct {
	http      *resty.Client
	logger    *zap.Logger
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

// NewClient constructs the adapter from configuration. An unconfigured
// client still derives nothing gracefully: every URL method returns empty
// and Upload returns an error.
func NewClient(cfg config.AssetHostConfig, logger *zap.Logger) *Client {
	if !cfg.Configured() {
		logger.Warn("asset host credentials missing; uploads disabled and delivery urls empty")
	}
	return &Client{
		http:      resty.New().SetTimeout(cfg.Timeout()),
		logger:    logger,
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    cfg.UploadFolder,
	}
}

type uploadResponse struct {
	PublicID     string `json:"public_id"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
	SecureURL    string `json:"secure_url"`
}

// UploadResult reports the stored handle and object size.
type UploadResult struct {
	Handle domain.AttachmentHandle
	Size   int64
}

// Upload pushes a file to the asset host and returns its handle. The MIME
// type is sniffed from the leading bytes so the host receives a correct
// content type regardless of the client-supplied filename.
func (c *Client) Upload(ctx context.Context, reader io.Reader, filename string) (*UploadResult, error) {
	if c.cloudName == "" {
		return nil, errors.New("assethost: not configured")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	contentType := mimetype.Detect(data).String()

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	params := map[string]string{
		"timestamp": timestamp,
		"folder":    c.folder,
	}

	var result uploadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, strings.NewReader(string(data))).
		SetFormData(map[string]string{
			"api_key":   c.apiKey,
			"timestamp": timestamp,
			"folder":    c.folder,
			"signature": c.sign(params),
		}).
		SetResult(&result).
		Post(fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", c.cloudName))
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("upload attachment: host returned %s", resp.Status())
	}

	c.logger.Info("attachment uploaded",
		zap.String("public_id", result.PublicID),
		zap.String("content_type", contentType),
		zap.Int64("bytes", result.Bytes),
	)

	size := result.Bytes
	if size == 0 {
		size = int64(len(data))
	}
	return &UploadResult{
		Handle: domain.AttachmentHandle{
			PublicID:     result.PublicID,
			Format:       result.Format,
			ResourceType: result.ResourceType,
		},
		Size: size,
	}, nil
}

// Fetch retrieves the object bytes for streaming to a caller, with the
// content type sniffed from the payload.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("fetch attachment: %w", err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("fetch attachment: host returned %s", resp.Status())
	}
	body := resp.Body()
	return body, mimetype.Detect(body).String(), nil
}

// sign produces the host's request signature: the sorted query string of
// the signed params concatenated with the API secret, SHA-1 hex encoded.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	payload := strings.Join(pairs, "&") + c.apiSecret

	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
