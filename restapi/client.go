// Package restapi implements the sessionkit Backend interface over the
// MiraiWorks JSON/HTTP auth API. It owns transport, serialization, and
// status-to-taxonomy error mapping; it never retries and never touches
// session state.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/miraiworks/sessionkit"
)

const (
	loginPath           = "/api/auth/login"
	registerPath        = "/api/auth/register"
	mePath              = "/api/auth/me"
	refreshPath         = "/api/auth/refresh"
	verifyTwoFactorPath = "/api/auth/verify-2fa"
	forgotPasswordPath  = "/api/auth/forgot-password"
	resetPasswordPath   = "/api/auth/reset-password"
	logoutPath          = "/api/auth/logout"
)

// Client talks to the MiraiWorks auth API. It satisfies
// [sessionkit.Backend].
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    zerolog.Logger
}

var _ sessionkit.Backend = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Any timeout must
// then come from the replacement; this layer enforces none of its own.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the request logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the given API configuration.
func New(cfg sessionkit.APIConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api base url required")
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "sessionkit"
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type verifyTwoFactorRequest struct {
	MFAToken string `json:"mfa_token"`
	Code     string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         *sessionkit.User `json:"user"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int64            `json:"expires_in"`
	MFARequired  bool             `json:"mfa_required"`
	MFAToken     string           `json:"mfa_token"`
}

func (r *sessionResponse) toLoginResult() *sessionkit.LoginResult {
	return &sessionkit.LoginResult{
		User:              r.User,
		AccessToken:       r.AccessToken,
		RefreshToken:      r.RefreshToken,
		ExpiresIn:         r.ExpiresIn,
		TwoFactorRequired: r.MFARequired,
		TwoFactorToken:    r.MFAToken,
	}
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) Login(ctx context.Context, creds sessionkit.Credentials) (*sessionkit.LoginResult, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, loginPath, loginRequest{Email: creds.Email, Password: creds.Password}, "", &out)
	if err != nil {
		return nil, rekindUnauthorized(err, sessionkit.ErrInvalidCredentials)
	}
	return out.toLoginResult(), nil
}

func (c *Client) Register(ctx context.Context, req sessionkit.RegisterRequest) (*sessionkit.LoginResult, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, registerPath, req, "", &out); err != nil {
		return nil, err
	}
	return out.toLoginResult(), nil
}

func (c *Client) Me(ctx context.Context, accessToken string) (*sessionkit.User, error) {
	var out sessionkit.User
	if err := c.do(ctx, http.MethodGet, mePath, nil, accessToken, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*sessionkit.RefreshResult, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, refreshPath, refreshRequest{RefreshToken: refreshToken}, "", &out); err != nil {
		return nil, err
	}
	return &sessionkit.RefreshResult{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
	}, nil
}

func (c *Client) VerifyTwoFactor(ctx context.Context, challengeToken, code string) (*sessionkit.LoginResult, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, verifyTwoFactorPath, verifyTwoFactorRequest{MFAToken: challengeToken, Code: code}, "", &out)
	if err != nil {
		return nil, rekindUnauthorized(err, sessionkit.ErrTwoFactorInvalid)
	}
	return out.toLoginResult(), nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, forgotPasswordPath, forgotPasswordRequest{Email: email}, "", nil)
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) error {
	return c.do(ctx, http.MethodPost, resetPasswordPath, resetPasswordRequest{Token: resetToken, Password: password}, "", nil)
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, logoutPath, nil, accessToken, nil)
}

// do performs one request. Transport failures map to ErrNetwork; 4xx/5xx
// responses map to the taxonomy via apiError. The response body is
// decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("backend request failed")
		return fmt.Errorf("%s %s: %w", method, path, sessionkit.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("backend request")

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return apiError(resp.StatusCode, er)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// apiError maps an HTTP error response to the taxonomy: 401 is
// Unauthorized, 5xx is a backend outage, and every other 4xx is a
// request the backend rejected, surfaced with its field messages.
func apiError(status int, er errorResponse) *sessionkit.APIError {
	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = sessionkit.ErrUnauthorized
	case status >= 500:
		kind = sessionkit.ErrBackendUnavailable
	default:
		kind = sessionkit.ErrValidation
	}
	return sessionkit.NewAPIError(kind, status, er.Message, er.Errors)
}

// rekindUnauthorized re-maps Unauthorized responses on credential
// endpoints: there a 401 means the submitted credentials were rejected,
// not that a held token expired.
func rekindUnauthorized(err error, kind error) error {
	var apiErr *sessionkit.APIError
	if errors.As(err, &apiErr) && errors.Is(err, sessionkit.ErrUnauthorized) {
		return sessionkit.NewAPIError(kind, apiErr.Status, apiErr.Message, apiErr.Fields)
	}
	return err
}
