package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/livedesk/livedesk/internal/api"
)

const requestTimeout = 15 * time.Second

// Client is the REST client for the LiveDesk server. It implements the
// persistence interface the workspace package consumes.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given server base URL, e.g.
// "http://localhost:8080". Call Login before any authenticated request.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Token returns the bearer token obtained by Login
func (c *Client) Token() string {
	return c.token
}

// Login authenticates and stores the returned token for later requests
func (c *Client) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", api.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// GetTicket fetches the full ticket aggregate
func (c *Client) GetTicket(ctx context.Context, ticketID uint) (*api.TicketResponse, error) {
	var resp api.TicketResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d", ticketID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTickets fetches one page of the ticket list
func (c *Client) ListTickets(ctx context.Context, page, perPage int) (*api.TicketListResponse, error) {
	var resp api.TicketListResponse
	path := fmt.Sprintf("/api/tickets?page=%d&per_page=%d", page, perPage)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTicket creates a ticket and returns its full aggregate
func (c *Client) CreateTicket(ctx context.Context, req api.CreateTicketRequest) (*api.TicketResponse, error) {
	var resp api.TicketResponse
	if err := c.do(ctx, http.MethodPost, "/api/tickets", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTicketField updates one scalar field of a ticket
func (c *Client) UpdateTicketField(ctx context.Context, ticketID uint, field, value string) error {
	path := fmt.Sprintf("/api/tickets/%d", ticketID)
	return c.do(ctx, http.MethodPut, path, api.UpdateTicketFieldRequest{Field: field, Value: value}, nil)
}

// LinkTickets links two tickets bidirectionally
func (c *Client) LinkTickets(ctx context.Context, ticketID, otherID uint) error {
	path := fmt.Sprintf("/api/tickets/%d/links/%d", ticketID, otherID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// UnlinkTickets removes the link between two tickets
func (c *Client) UnlinkTickets(ctx context.Context, ticketID, otherID uint) error {
	path := fmt.Sprintf("/api/tickets/%d/links/%d", ticketID, otherID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// AddDeviceToTicket links a device to a ticket
func (c *Client) AddDeviceToTicket(ctx context.Context, ticketID, deviceID uint) error {
	path := fmt.Sprintf("/api/tickets/%d/devices/%d", ticketID, deviceID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// RemoveDeviceFromTicket unlinks a device from a ticket
func (c *Client) RemoveDeviceFromTicket(ctx context.Context, ticketID, deviceID uint) error {
	path := fmt.Sprintf("/api/tickets/%d/devices/%d", ticketID, deviceID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetDeviceByID fetches one device record
func (c *Client) GetDeviceByID(ctx context.Context, deviceID uint) (api.Device, error) {
	var resp api.Device
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/devices/%d", deviceID), nil, &resp); err != nil {
		return api.Device{}, err
	}
	return resp, nil
}

// UpdateDevice updates fields of a device record
func (c *Client) UpdateDevice(ctx context.Context, deviceID uint, fields map[string]string) error {
	path := fmt.Sprintf("/api/devices/%d", deviceID)
	return c.do(ctx, http.MethodPut, path, api.UpdateDeviceRequest{Fields: fields}, nil)
}

// AddTicketToProject adds a ticket to a project
func (c *Client) AddTicketToProject(ctx context.Context, projectID, ticketID uint) error {
	path := fmt.Sprintf("/api/projects/%d/tickets/%d", projectID, ticketID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// RemoveTicketFromProject removes a ticket from a project
func (c *Client) RemoveTicketFromProject(ctx context.Context, projectID, ticketID uint) error {
	path := fmt.Sprintf("/api/projects/%d/tickets/%d", projectID, ticketID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateComment posts a comment and returns the created record
func (c *Client) CreateComment(ctx context.Context, ticketID uint, content string) (api.Comment, error) {
	var resp api.Comment
	path := fmt.Sprintf("/api/tickets/%d/comments", ticketID)
	if err := c.do(ctx, http.MethodPost, path, api.CreateCommentRequest{Content: content}, &resp); err != nil {
		return api.Comment{}, err
	}
	return resp, nil
}

// DeleteComment removes a comment from a ticket
func (c *Client) DeleteComment(ctx context.Context, ticketID, commentID uint) error {
	path := fmt.Sprintf("/api/tickets/%d/comments/%d", ticketID, commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one JSON request. body and out may be nil. Non-2xx
// responses are decoded through the server's error envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr api.ErrorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
	}
	return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
}
