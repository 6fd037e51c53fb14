// Package cas is the content-addressed storage boundary. It pins byte
// payloads through Pinata and derives gateway URLs; the storage network owns
// content addressing and dedup, this client owns neither.
package cas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/ipfs/go-cid"

	"landq/internal/platform/config"
)

// URIScheme prefixes content-id references in metadata and ledger records.
const URIScheme = "ipfs://"

// Client pins payloads to the storage network.
type Client struct {
	http      *http.Client
	uploadURL string
	gateway   string
	jwt       string
}

// New builds a Client from configuration.
func New(cfg config.Pinata) *Client {
	gateway := cfg.GatewayURL
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		uploadURL: cfg.UploadURL,
		gateway:   gateway,
		jwt:       cfg.JWT,
	}
}

// Pin uploads data and returns its content identifier. The network performs
// the content addressing; the returned CID is validated to parse before it is
// handed to callers. Any transport or API failure surfaces as one upload
// error with no partial state retained here.
func (c *Client) Pin(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("cas: build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("cas: build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("cas: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("cas: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cas: upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cas: upload failed: status %d: %s", resp.StatusCode, snippet)
	}

	var pinned struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", fmt.Errorf("cas: decode upload response: %w", err)
	}
	if _, err := cid.Decode(pinned.IpfsHash); err != nil {
		return "", fmt.Errorf("cas: storage returned invalid cid %q: %w", pinned.IpfsHash, err)
	}
	return pinned.IpfsHash, nil
}

// URI returns the scheme reference for a content id.
func (c *Client) URI(contentID string) string {
	return URIScheme + contentID
}

// GatewayURL derives the HTTP retrieval URL for a content id. Pure string
// transform; never fails.
func (c *Client) GatewayURL(contentID string) string {
	return c.gateway + contentID
}

// FetchJSON retrieves and decodes a JSON document by its scheme reference or
// bare content id.
func (c *Client) FetchJSON(ctx context.Context, ref string, v any) error {
	url := c.GatewayURL(strings.TrimPrefix(ref, URIScheme))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("cas: build fetch: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cas: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cas: fetch %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("cas: decode %s: %w", url, err)
	}
	return nil
}
