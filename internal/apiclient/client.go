// Package apiclient is the kiosk's HTTP client for the attendance backend:
// session control, user and history reads, registration, and CSV export.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"
)

// UserSummary is one registered user in the listing.
type UserSummary struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// HistoryRecord is one attendance log row.
type HistoryRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Time       string `json:"time"`
	Date       string `json:"date"`
}

// UserHistory is the per-user attendance summary behind the detail view.
type UserHistory struct {
	Name                 string  `json:"name"`
	RollNumber           string  `json:"roll_number"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	History              []struct {
		Time string `json:"time"`
		Date string `json:"date"`
	} `json:"history"`
	AttendedDates []string `json:"attended_dates"`
	Department    string   `json:"department"`
	Role          string   `json:"role"`
}

// RegisterRequest enrolls a new user with a captured frame.
type RegisterRequest struct {
	Name       string
	RollNumber string
	Department string
	Role       string
	FrameData  string // data URL
}

// Client calls the attendance backend. It is safe for concurrent use; the
// admin handlers and the session loop share one instance.
type Client struct {
	BaseURL  string
	DeviceID string
	HTTP     *http.Client

	mu     sync.Mutex
	tokens TokenPair
}

// New creates a client with a configurable timeout.
func New(baseURL, deviceID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

// RegisterDevice obtains a device token pair from the backend. Called at
// startup and again whenever the access token nears expiry.
func (c *Client) RegisterDevice(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerLocked(ctx)
}

// registerLocked performs the registration call. c.mu must be held; keeping it
// across the call means concurrent requests near expiry refresh at most once.
func (c *Client) registerLocked(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"device_id": c.DeviceID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/devices/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("device register failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("device register error %s", resp.Status)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode register response: %w", err)
	}
	c.tokens = TokenPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		AccessExp:    expiryOf(out.AccessToken),
	}
	return nil
}

// Token returns the current access token, for the push channel handshake.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.AccessToken
}

// StartAttendance begins a recognition session on the backend.
func (c *Client) StartAttendance(ctx context.Context) error {
	return c.post(ctx, "/start_attendance")
}

// StopAttendance ends the recognition session.
func (c *Client) StopAttendance(ctx context.Context) error {
	return c.post(ctx, "/stop_attendance")
}

// Users lists registered users.
func (c *Client) Users(ctx context.Context) ([]UserSummary, error) {
	var out []UserSummary
	if err := c.getJSON(ctx, "/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the most recent attendance records.
func (c *Client) History(ctx context.Context) ([]HistoryRecord, error) {
	var out []HistoryRecord
	if err := c.getJSON(ctx, "/history", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserHistory returns the attendance summary for one user.
func (c *Client) UserHistory(ctx context.Context, userID string) (*UserHistory, error) {
	var out UserHistory
	if err := c.getJSON(ctx, "/get_user_history?user_id="+userID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportCSV downloads the full attendance export.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	req, err := c.request(ctx, http.MethodGet, "/export", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("export error %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// RegisterUser enrolls a user from a captured frame.
func (c *Client) RegisterUser(ctx context.Context, r RegisterRequest) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("name", r.Name)
	_ = w.WriteField("roll_number", r.RollNumber)
	_ = w.WriteField("department", r.Department)
	_ = w.WriteField("role", r.Role)
	_ = w.WriteField("frame", r.FrameData)
	w.Close()

	req, err := c.request(ctx, http.MethodPost, "/register", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode register response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("register rejected: %s", out.Message)
	}
	return nil
}

// DeleteUser removes a user and their attendance records.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	req, err := c.request(ctx, http.MethodDelete, "/delete_user/"+userID, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("delete error %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := c.request(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error %s: %s", resp.Status, string(body))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error %s: %s", resp.Status, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// request builds an authenticated request, re-registering the device first if
// the access token is missing or near expiry.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// accessToken returns a usable access token, refreshing it under the lock so
// only one caller re-registers while the rest wait for its result.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tokens.valid(time.Now()) {
		if err := c.registerLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.tokens.AccessToken, nil
}
