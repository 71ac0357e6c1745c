// Package backend is the REST client of the Money Wrapped API. It backs the
// terminal client: the data store, the debate responder and the chat replier.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/insight"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// ErrUnavailable wraps transport failures, non-2xx responses and undecodable bodies.
var ErrUnavailable = errors.New("backend unavailable")

const defaultTimeout = 30 * time.Second

// Client talks to the API served by cmd/api.
type Client struct {
	http *resty.Client
}

// New creates a client rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	return &Client{http: client}
}

type personaRequest struct {
	Question    string   `json:"question"`
	Personas    []string `json:"personas"`
	Context     string   `json:"context"`
	MessageType string   `json:"messageType"`
}

type personaResponse struct {
	Persona   string `json:"persona"`
	Character string `json:"character"`
	Response  string `json:"response"`
}

type chatRequest struct {
	Message   string `json:"message"`
	Character string `json:"character"`
	Persona   string `json:"persona"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Character string `json:"character"`
}

// FetchSnapshot loads the financial summary of userID.
func (c *Client) FetchSnapshot(ctx context.Context, userID string) (*finance.Snapshot, error) {
	var out finance.Snapshot
	if err := c.do(ctx, resty.MethodGet, "/financial-summary", userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSettings loads the privacy settings of userID.
func (c *Client) FetchSettings(ctx context.Context, userID string) (finance.Settings, error) {
	var out finance.Settings
	if err := c.do(ctx, resty.MethodGet, "/privacy-settings", userID, nil, &out); err != nil {
		return finance.Settings{}, err
	}
	return out, nil
}

// SavePrivacyLevel stores the privacy level of userID.
func (c *Client) SavePrivacyLevel(ctx context.Context, userID string, level finance.PrivacyLevel) error {
	body := map[string]string{"level": string(level)}
	return c.do(ctx, resty.MethodPost, "/privacy-settings", userID, body, nil)
}

// SaveCategories stores the category selection of userID.
func (c *Client) SaveCategories(ctx context.Context, userID string, selected []string) error {
	if selected == nil {
		selected = []string{}
	}
	body := map[string][]string{"selected": selected}
	return c.do(ctx, resty.MethodPost, "/categories", userID, body, nil)
}

// Share asks the server for a share link.
func (c *Client) Share(ctx context.Context, userID, kind string) (finance.ShareResult, error) {
	var out finance.ShareResult
	body := map[string]string{"kind": kind}
	if err := c.do(ctx, resty.MethodPost, "/share", userID, body, &out); err != nil {
		return finance.ShareResult{}, err
	}
	return out, nil
}

// Transactions lists the raw transactions of userID.
func (c *Client) Transactions(ctx context.Context, userID string) ([]finance.Transaction, error) {
	var out []finance.Transaction
	if err := c.do(ctx, resty.MethodGet, "/transactions", userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insights fetches the server-side projection of the snapshot at level.
func (c *Client) Insights(ctx context.Context, userID string, level finance.PrivacyLevel) (*insight.Insights, error) {
	var out insight.Insights
	req := c.http.R().SetContext(ctx).SetQueryParam("level", string(level))
	if err := c.send(req, resty.MethodGet, "/insights", userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Personas lists the persona catalog served by the API.
func (c *Client) Personas(ctx context.Context) ([]persona.Persona, error) {
	var out []persona.Persona
	if err := c.do(ctx, resty.MethodGet, "/personas", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Respond generates one debate turn through /persona-response.
func (c *Client) Respond(ctx context.Context, req debate.TurnRequest) (string, error) {
	body := personaRequest{
		Question:    req.Question,
		Personas:    []string{req.Persona.Type.Titled()},
		Context:     req.Context,
		MessageType: string(req.Round),
	}
	var out personaResponse
	if err := c.do(ctx, resty.MethodPost, "/persona-response", "", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Reply answers a chat message through /chat. The server keeps no history for
// this endpoint, so history is not sent.
func (c *Client) Reply(ctx context.Context, p *persona.Persona, _ []chat.Message, userMessage string) (string, error) {
	body := chatRequest{Message: userMessage}
	if p != nil {
		body.Character = p.Character
		body.Persona = string(p.Type)
	}
	var out chatResponse
	if err := c.do(ctx, resty.MethodPost, "/chat", "", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) do(ctx context.Context, method, path, userID string, body, result any) error {
	return c.send(c.http.R().SetContext(ctx), method, path, userID, body, result)
}

func (c *Client) send(req *resty.Request, method, path, userID string, body, result any) error {
	if userID != "" {
		req.SetQueryParam("userId", userID)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		// resty skips decoding for non-JSON content types, which would leave
		// result zeroed with a nil error.
		req.SetResult(result).ForceContentType("application/json")
	}
	var apiErr utils.ErrorResponse
	req.SetError(&apiErr)

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUnavailable, method, path, resp.StatusCode(), msg)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %s %s: unexpected status %d", ErrUnavailable, method, path, resp.StatusCode())
	}
	return nil
}
