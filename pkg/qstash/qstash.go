package qstash

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSignature = errors.New("qstash signature is invalid")

type Config struct {
	URL               string        `split_words:"true" required:"true"`
	Token             string        `split_words:"true" required:"true"`
	CurrentSigningKey string        `split_words:"true" required:"true"`
	NextSigningKey    string        `split_words:"true" required:"true"`
	Timeout           time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL           string
	token             string
	currentSigningKey string
	nextSigningKey    string
	httpClient        *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		token:             strings.TrimSpace(cfg.Token),
		currentSigningKey: strings.TrimSpace(cfg.CurrentSigningKey),
		nextSigningKey:    strings.TrimSpace(cfg.NextSigningKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type PublishRequest struct {
	// Destination is the URL QStash delivers to.
	Destination     string
	Body            []byte
	ContentType     string
	DeduplicationID string
	Retries         *int
}

type PublishResponse struct {
	MessageID    string `json:"messageId"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

// Publish enqueues one message for delivery.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (*PublishResponse, error) {
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return nil, errors.New("qstash destination is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/publish/"+dest, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build qstash request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	httpReq.Header.Set("Content-Type", contentType)
	if req.DeduplicationID != "" {
		httpReq.Header.Set("Upstash-Deduplication-Id", req.DeduplicationID)
	}
	if req.Retries != nil {
		httpReq.Header.Set("Upstash-Retries", fmt.Sprint(*req.Retries))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute qstash request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read qstash response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("qstash http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out PublishResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode qstash response: %w", err)
	}
	return &out, nil
}

// Verify checks an Upstash-Signature header against body using the current
// signing key, falling back to the next key during rotation.
func (c *Client) Verify(signature string, body []byte) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}

	var lastErr error
	for _, key := range []string{c.currentSigningKey, c.nextSigningKey} {
		if key == "" {
			continue
		}
		if err := verifyWithKey(signature, body, key); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no signing key configured")
	}
	return fmt.Errorf("%w: %v", ErrInvalidSignature, lastErr)
}

func verifyWithKey(signature string, body []byte, key string) error {
	parsed, err := jwt.Parse(signature, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(key), nil
	}, jwt.WithIssuer("Upstash"), jwt.WithLeeway(time.Second))
	if err != nil {
		return err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("unexpected claims")
	}
	want, _ := claims["body"].(string)
	sum := sha256.Sum256(body)
	got := base64.URLEncoding.EncodeToString(sum[:])
	if strings.TrimRight(want, "=") != strings.TrimRight(got, "=") {
		return errors.New("body hash mismatch")
	}
	return nil
}
