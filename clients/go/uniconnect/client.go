// Package uniconnect provides a client for the UniConnect campus messaging
// API: channel discovery, membership, message history, and live updates.
package uniconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Client is a UniConnect API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// NewClient creates a new client. token may be empty for read-only use.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// doRequest performs an HTTP request and decodes the error envelope on
// non-2xx responses.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("uniconnect error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Channel represents a channel in the directory.
type Channel struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Type           string  `json:"type"`
	Scope          string  `json:"scope"`
	SubjectName    *string `json:"subject_name,omitempty"`
	OrganizationID *int64  `json:"organization_id,omitempty"`
}

// Channel type and scope values as returned by the server.
const (
	TypeCampus     = "campus"
	TypeSubject    = "subject"
	TypeGlobal     = "global"
	TypeStudyGroup = "study_group"

	ScopeCampus = "campus"
	ScopeGlobal = "global"
)

// ChannelsResponse is the response from listing channels.
type ChannelsResponse struct {
	Channels []Channel `json:"channels"`
	Total    int       `json:"total"`
}

// ListChannels lists all channels, ordered by name.
func (c *Client) ListChannels(ctx context.Context) (*ChannelsResponse, error) {
	respBody, err := c.doRequest(ctx, "GET", "/channels", nil)
	if err != nil {
		return nil, err
	}

	var resp ChannelsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Message represents a stored message.
type Message struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessagesResponse is the response from listing a channel's messages.
type MessagesResponse struct {
	ChannelID int64     `json:"channel_id"`
	Messages  []Message `json:"messages"`
}

// ListMessages returns a channel's messages, ascending by creation time.
// Soft-deleted rows are filtered server-side.
func (c *Client) ListMessages(ctx context.Context, channelID int64) (*MessagesResponse, error) {
	respBody, err := c.doRequest(ctx, "GET", fmt.Sprintf("/channels/%d/messages", channelID), nil)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MemberCountResponse is the response from the member count endpoint.
type MemberCountResponse struct {
	ChannelID int64 `json:"channel_id"`
	Count     int64 `json:"count"`
}

// MemberCount returns how many users have joined a channel.
func (c *Client) MemberCount(ctx context.Context, channelID int64) (int64, error) {
	respBody, err := c.doRequest(ctx, "GET", fmt.Sprintf("/channels/%d/members/count", channelID), nil)
	if err != nil {
		return 0, err
	}

	var resp MemberCountResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// JoinResponse is the response from joining a channel.
type JoinResponse struct {
	ChannelID int64 `json:"channel_id"`
	Joined    bool  `json:"joined"`
}

// JoinChannel records membership in a channel. code is required for study
// groups and ignored otherwise. Joining an already-joined channel is a no-op
// server-side.
func (c *Client) JoinChannel(ctx context.Context, channelID int64, code string) (*JoinResponse, error) {
	var body []byte
	if code != "" {
		body, _ = json.Marshal(map[string]string{"code": code})
	}

	respBody, err := c.doRequest(ctx, "POST", fmt.Sprintf("/channels/%d/join", channelID), body)
	if err != nil {
		return nil, err
	}

	var resp JoinResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MembershipsResponse lists the caller's joined channel ids.
type MembershipsResponse struct {
	ChannelIDs []int64 `json:"channel_ids"`
}

// ListMemberships returns the ids of the channels the caller has joined.
func (c *Client) ListMemberships(ctx context.Context) ([]int64, error) {
	respBody, err := c.doRequest(ctx, "GET", "/memberships", nil)
	if err != nil {
		return nil, err
	}

	var resp MembershipsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.ChannelIDs, nil
}

// PostMessageResponse is the response from posting a message.
type PostMessageResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostMessage sends a message into a channel.
func (c *Client) PostMessage(ctx context.Context, channelID int64, content string) (*PostMessageResponse, error) {
	body, _ := json.Marshal(map[string]string{"content": content})

	respBody, err := c.doRequest(ctx, "POST", fmt.Sprintf("/channels/%d/messages", channelID), body)
	if err != nil {
		return nil, err
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveProfiles resolves sender ids to display names in one batch call.
// Unknown ids are absent from the returned map.
func (c *Client) ResolveProfiles(ctx context.Context, ids []string) (map[string]string, error) {
	body, _ := json.Marshal(map[string][]string{"ids": ids})

	respBody, err := c.doRequest(ctx, "POST", "/profiles/resolve", body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Profiles map[string]string `json:"profiles"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

// Profile represents a user profile.
type Profile struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
}

// GetProfile returns one profile by id.
func (c *Client) GetProfile(ctx context.Context, id string) (*Profile, error) {
	respBody, err := c.doRequest(ctx, "GET", "/profiles/"+id, nil)
	if err != nil {
		return nil, err
	}

	var resp Profile
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Organization represents a campus organization.
type Organization struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	EmailDomain string `json:"email_domain"`
}

// GetOrganization returns one organization by id.
func (c *Client) GetOrganization(ctx context.Context, id int64) (*Organization, error) {
	respBody, err := c.doRequest(ctx, "GET", fmt.Sprintf("/organizations/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var resp Organization
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	respBody, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
