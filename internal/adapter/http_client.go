package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tabvault/tabvault/models"
)

// HTTPClientConfig configures the resty remote-store client.
type HTTPClientConfig struct {
	BaseURL  string
	DeviceID string
	Timeout  time.Duration
}

type httpRemoteStore struct {
	client   *resty.Client
	deviceID string

	mu    sync.RWMutex
	token string
}

// NewHTTPRemoteStore builds a RemoteStore talking to the tabvault server
// over HTTP. Network calls use a bounded timeout (default 30s) so a dead
// connection surfaces as an error, never a hang.
func NewHTTPRemoteStore(cfg HTTPClientConfig) RemoteStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpRemoteStore{client: cli, deviceID: cfg.DeviceID}
}

func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpRemoteStore) Register(ctx context.Context, user models.User) (models.Token, error) {
	return h.authCall(ctx, "/api/auth/register", user)
}

func (h *httpRemoteStore) Login(ctx context.Context, user models.User) (models.Token, error) {
	return h.authCall(ctx, "/api/auth/login", user)
}

func (h *httpRemoteStore) authCall(ctx context.Context, path string, user models.User) (models.Token, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		Post(path)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %s: %w", ErrNetwork, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Token{}, err
	}

	var token models.Token
	if err = json.Unmarshal(resp.Body(), &token); err != nil {
		return models.Token{}, fmt.Errorf("decode auth response: %w", err)
	}
	if token.SignedString == "" {
		return models.Token{}, errors.New("empty token in auth response")
	}

	h.SetToken(token.SignedString)
	return token, nil
}

func (h *httpRemoteStore) Upload(ctx context.Context, req models.UploadRequest) (models.UploadResponse, error) {
	req.Length = len(req.Records)

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/groups/")
	if err != nil {
		return models.UploadResponse{}, fmt.Errorf("%w: upload: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UploadResponse{}, err
	}

	var out models.UploadResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.UploadResponse{}, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}

func (h *httpRemoteStore) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResponse, error) {
	req.Length = len(req.IDs)

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/groups/download")
	if err != nil {
		return models.DownloadResponse{}, fmt.Errorf("%w: download: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DownloadResponse{}, err
	}

	var out models.DownloadResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.DownloadResponse{}, fmt.Errorf("decode download response: %w", err)
	}
	return out, nil
}

func (h *httpRemoteStore) GetSettings(ctx context.Context) (models.Settings, error) {
	resp, err := h.authedRequest(ctx).Get("/api/settings/")
	if err != nil {
		return models.Settings{}, fmt.Errorf("%w: get settings: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Settings{}, err
	}

	var settings models.Settings
	if err = json.Unmarshal(resp.Body(), &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings response: %w", err)
	}
	return settings, nil
}

func (h *httpRemoteStore) PutSettings(ctx context.Context, settings models.Settings) error {
	settings.OriginDeviceID = h.deviceID

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(settings).
		Put("/api/settings/")
	if err != nil {
		return fmt.Errorf("%w: put settings: %w", ErrNetwork, err)
	}
	return mapHTTPError(resp)
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if h.deviceID != "" {
		req.SetHeader("X-Device-ID", h.deviceID)
	}
	return req
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode() == http.StatusConflict {
		return ErrVersionConflict
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
}
