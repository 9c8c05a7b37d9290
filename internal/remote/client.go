package remote

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/metrics"
)

const serviceName = "django"

// Client performs single HTTP exchanges against the remote Django backend.
// It never retries; wrap calls with a Retrier.
type Client struct {
	baseURL    string
	panelID    string
	httpClient *http.Client
}

type Options struct {
	BaseURL        string
	PanelID        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// NewClient creates a client whose transport enforces the connect and read
// timeouts.
func NewClient(opts Options) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		panelID:    opts.PanelID,
		httpClient: &http.Client{Transport: transport},
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp entities.RemoteLoginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/admin-login/", "", body, &resp); err != nil {
		return "", err
	}
	token := resp.BearerToken()
	if token == "" {
		return "", apperrors.New(apperrors.KindUnauthorized, "remote login returned no token")
	}
	return token, nil
}

func (c *Client) CreateApprovalRequest(ctx context.Context, token string, payload entities.ApprovalPayload) (*entities.RemoteApprovalRequest, error) {
	var created entities.RemoteApprovalRequest
	if err := c.do(ctx, "create_approval_request", http.MethodPost, "/approval-requests/", token, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetApprovalRequest(ctx context.Context, token, remoteID string) (*entities.RemoteApprovalRequest, error) {
	var req entities.RemoteApprovalRequest
	path := "/approval-requests/" + url.PathEscape(remoteID) + "/"
	if err := c.do(ctx, "get_approval_request", http.MethodGet, path, token, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) ListApprovalRequests(ctx context.Context, token string) ([]entities.RemoteApprovalRequest, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_approval_requests", http.MethodGet, "/approval-requests/", token, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[entities.RemoteApprovalRequest](raw)
}

func (c *Client) ListParkings(ctx context.Context, token string) ([]entities.RemoteParking, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_parkings", http.MethodGet, "/parking/", token, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[entities.RemoteParking](raw)
}

func (c *Client) GetParking(ctx context.Context, token, id string) (*entities.RemoteParking, error) {
	var p entities.RemoteParking
	if err := c.do(ctx, "get_parking", http.MethodGet, parkingPath(id), token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateParking(ctx context.Context, token string, p entities.RemoteParking) (*entities.RemoteParking, error) {
	var created entities.RemoteParking
	if err := c.do(ctx, "create_parking", http.MethodPost, "/parking/", token, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateParking(ctx context.Context, token, id string, p entities.RemoteParking) (*entities.RemoteParking, error) {
	var updated entities.RemoteParking
	if err := c.do(ctx, "update_parking", http.MethodPut, parkingPath(id), token, p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteParking(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete_parking", http.MethodDelete, parkingPath(id), token, nil, nil)
}

// ImageUpload is a file forwarded to /parking/{id}/upload_image/. Data is a
// byte slice so a retried attempt can send it again.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	Principal   *bool
}

func (c *Client) UploadParkingImage(ctx context.Context, token, id string, img ImageUpload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imagen"; filename=%q`, img.Filename))
	header.Set("Content-Type", img.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return apperrors.Internal("failed to build image upload", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return apperrors.Internal("failed to build image upload", err)
	}
	if img.Principal != nil {
		if err := w.WriteField("es_principal", strconv.FormatBool(*img.Principal)); err != nil {
			return apperrors.Internal("failed to build image upload", err)
		}
	}
	if err := w.Close(); err != nil {
		return apperrors.Internal("failed to build image upload", err)
	}

	req, err := c.newRawRequest(ctx, http.MethodPost, parkingPath(id)+"upload_image/", token, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.doRequest(req, "upload_parking_image", nil)
}

// RecentReservations lists the latest reservations across the owner's lots.
func (c *Client) RecentReservations(ctx context.Context, token string) ([]entities.RecentReservation, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "recent_reservations", http.MethodGet, "/reservations/recent/", token, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[entities.RecentReservation](raw)
}

func (c *Client) ActiveReservationCount(ctx context.Context, token string) (int64, error) {
	n, err := c.getNumber(ctx, "active_reservation_count", "/reservations/active/count/", token, "count", "total")
	return int64(n), err
}

func (c *Client) RevenueToday(ctx context.Context, token string) (float64, error) {
	return c.getNumber(ctx, "revenue_today", "/reservations/revenue/today/", token, "total", "revenue", "amount")
}

func (c *Client) RevenueMonthly(ctx context.Context, token string) (float64, error) {
	return c.getNumber(ctx, "revenue_monthly", "/reservations/revenue/monthly/", token, "total", "revenue", "amount")
}

// getNumber reads a bare number, a numeric string or an object holding the
// number under one of keys. An empty body is 0.
func (c *Client) getNumber(ctx context.Context, operation, path, token string, keys ...string) (float64, error) {
	var raw json.RawMessage
	if err := c.do(ctx, operation, http.MethodGet, path, token, nil, &raw); err != nil {
		return 0, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '{' {
		var fields map[string]entities.FlexFloat
		if err := json.Unmarshal(raw, &fields); err != nil {
			return 0, apperrors.Wrap(apperrors.KindBadResponse, "failed to decode remote number", err)
		}
		for _, key := range keys {
			if v, ok := fields[key]; ok {
				return float64(v), nil
			}
		}
		return 0, apperrors.New(apperrors.KindBadResponse, "remote answer has none of "+strings.Join(keys, ", "))
	}
	var n entities.FlexFloat
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, apperrors.Wrap(apperrors.KindBadResponse, "failed to decode remote number", err)
	}
	return float64(n), nil
}

// Health calls the unauthenticated health endpoint. A body reporting a
// status other than ok counts as the backend being down.
func (c *Client) Health(ctx context.Context) error {
	var health entities.RemoteHealth
	if err := c.do(ctx, "health", http.MethodGet, "/health/", "", nil, &health); err != nil {
		return err
	}
	if !health.Healthy() {
		return apperrors.New(apperrors.KindRemoteUnavailable, "remote backend reports status "+health.Status)
	}
	return nil
}

func parkingPath(id string) string {
	return "/parking/" + url.PathEscape(id) + "/"
}

func (c *Client) do(ctx context.Context, operation, method, path, token string, body, result any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	return c.doRequest(req, operation, result)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindMapping, "failed to marshal request body", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := c.newRawRequest(ctx, method, path, token, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) newRawRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.Internal("failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Parkea-Local-Panel/"+c.panelID)
	req.Header.Set("X-Panel-Local-Id", c.panelID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doRequest(req *http.Request, operation string, result any) error {
	logger.ExternalServiceCall(serviceName, operation, "method", req.Method, "path", req.URL.Path)

	err := c.exchange(req, result)
	logger.ExternalServiceResult(serviceName, operation, err)
	if err != nil {
		metrics.RecordRemoteCall(operation, string(apperrors.KindOf(err)))
	} else {
		metrics.RecordRemoteCall(operation, "ok")
	}
	return err
}

func (c *Client) exchange(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return apperrors.Wrap(apperrors.KindCancelled, "remote call cancelled", ctxErr)
		}
		return apperrors.Wrap(apperrors.KindRemoteUnavailable, "remote backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindRemoteUnavailable, "failed to read remote response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, body)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		e := apperrors.Wrap(apperrors.KindBadResponse, "remote backend returned an unreadable response", err)
		e.RemoteStatus = resp.StatusCode
		return e
	}
	return nil
}

// classify turns a non-2xx response into a typed error.
func classify(status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	var e *apperrors.HTTPError
	switch {
	case status == http.StatusUnauthorized:
		e = apperrors.New(apperrors.KindUnauthorized, "remote backend rejected the session token")
	case status == http.StatusForbidden:
		e = apperrors.New(apperrors.KindForbidden, "remote backend denied access")
	case status == http.StatusNotFound:
		e = apperrors.New(apperrors.KindNotFound, "resource not found on remote backend")
	case status >= 500:
		e = apperrors.New(apperrors.KindRemoteUnavailable, fmt.Sprintf("remote backend error (status %d)", status))
	default:
		msg := text
		if msg == "" {
			msg = fmt.Sprintf("remote backend rejected the request (status %d)", status)
		}
		e = apperrors.New(apperrors.KindBadRequest, msg)
	}
	e.RemoteStatus = status
	return e
}

// DecodeList accepts a bare JSON array, a {"results": [...]} envelope or a
// single object, which is treated as a one-element list. An envelope whose
// results are null is an empty list.
func DecodeList[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	switch raw[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperrors.Wrap(apperrors.KindBadResponse, "failed to decode remote list", err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, apperrors.Wrap(apperrors.KindBadResponse, "failed to decode remote object", err)
		}
		if results, ok := fields["results"]; ok {
			results = bytes.TrimSpace(results)
			if len(results) > 0 && results[0] != '[' && !bytes.Equal(results, []byte("null")) {
				return nil, apperrors.Wrap(apperrors.KindBadResponse, "remote list results is not an array", stderrors.New(string(results)))
			}
			return DecodeList[T](results)
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, apperrors.Wrap(apperrors.KindBadResponse, "failed to decode remote object", err)
		}
		return []T{item}, nil
	default:
		return nil, apperrors.Wrap(apperrors.KindBadResponse, "unexpected remote list payload", stderrors.New(string(raw)))
	}
}
