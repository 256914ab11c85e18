package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const apiTokenHeader = "X-API-Token"

var (
	ErrUnknownCard = errors.New("unknown card")
	ErrUnavailable = errors.New("server unavailable")
)

// APIError carries a non-2xx answer from the attendance API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// Client talks to the attendance API on behalf of a reader station.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type User struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	LoggedIn bool   `json:"loggedIn"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Health reports whether the server and its database answer.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) LookupUser(ctx context.Context, rfidKey string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/users?rfidKey="+url.QueryEscape(rfidKey), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnknownCard
	}

	body, err := decode(resp)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body.Data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

func (c *Client) SignIn(ctx context.Context, rfidKey string) error {
	return c.attendance(ctx, "/api/attendance/sign-in", rfidKey)
}

func (c *Client) SignOut(ctx context.Context, rfidKey string) error {
	return c.attendance(ctx, "/api/attendance/sign-out", rfidKey)
}

func (c *Client) attendance(ctx context.Context, path, rfidKey string) error {
	resp, err := c.do(ctx, http.MethodPost, path, map[string]string{"rfidKey": rfidKey})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = decode(resp)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set(apiTokenHeader, c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func decode(resp *http.Response) (*apiResponse, error) {
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "unreadable response"}
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: body.Message}
	}
	return &body, nil
}
