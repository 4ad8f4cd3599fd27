package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// GatewayFactory ходит в HTTP-шлюз сессий (sidecar поверх MTProto).
// В dry-run режиме запросов нет — как у SMS-клиента.
type GatewayFactory struct {
	BaseURL string
	APIKey  string
	DryRun  bool
	client  *http.Client
}

func NewGatewayFactory(baseURL, apiKey string, dryRun bool) *GatewayFactory {
	return &GatewayFactory{
		BaseURL: baseURL,
		APIKey:  apiKey,
		DryRun:  dryRun,
		client:  &http.Client{},
	}
}

func (f *GatewayFactory) Connect(ctx context.Context, phone, session string) (Client, error) {
	if f.DryRun || f.APIKey == "dry-run" {
		log.Printf("[gateway][dry-run] connect phone=%s session=%s", phone, session)
		return &dryRunClient{phone: phone, session: session}, nil
	}
	c := &gatewayClient{factory: f, phone: phone, session: session}
	if err := c.call(ctx, "connect", nil, nil); err != nil {
		return nil, fmt.Errorf("gateway connect: %w", err)
	}
	return c, nil
}

type gatewayClient struct {
	factory *GatewayFactory
	phone   string
	session string
}

type gatewayResp struct {
	Ok     bool            `json:"ok"`
	Error  string          `json:"error"`
	Desc   string          `json:"description"`
	Result json.RawMessage `json:"result"`
}

// call — POST {base}/sessions/{session}/{method} c JSON-телом.
func (c *gatewayClient) call(ctx context.Context, method string, body map[string]any, out any) error {
	url := fmt.Sprintf("%s/sessions/%s/%s", c.factory.BaseURL, c.session, method)
	if body == nil {
		body = map[string]any{}
	}
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.factory.APIKey)

	resp, err := c.factory.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var api gatewayResp
	if err := json.Unmarshal(respBody, &api); err != nil {
		return fmt.Errorf("parse gateway response (status=%d): %w", resp.StatusCode, err)
	}
	if !api.Ok {
		return mapError(api.Error, api.Desc)
	}
	if out != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("parse gateway result: %w", err)
		}
	}
	return nil
}

func (c *gatewayClient) SendCode(ctx context.Context, phone string) error {
	return c.call(ctx, "sendCode", map[string]any{"phone": phone}, nil)
}

func (c *gatewayClient) SignIn(ctx context.Context, phone, code string) error {
	return c.call(ctx, "signIn", map[string]any{"phone": phone, "code": code}, nil)
}

func (c *gatewayClient) SetPassword(ctx context.Context, password, hint string) error {
	return c.call(ctx, "setPassword", map[string]any{"password": password, "hint": hint}, nil)
}

func (c *gatewayClient) ExportSession(ctx context.Context) (string, error) {
	var out struct {
		StringSession string `json:"string_session"`
	}
	if err := c.call(ctx, "exportSession", nil, &out); err != nil {
		return "", err
	}
	return out.StringSession, nil
}

func (c *gatewayClient) ActiveSessions(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.call(ctx, "authorizations", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Close — best-effort disconnect; ошибки не должны затенять основной результат.
func (c *gatewayClient) Close() error {
	return c.call(context.Background(), "disconnect", nil, nil)
}

// dryRunClient имитирует благополучный аккаунт с одной сессией.
type dryRunClient struct {
	phone   string
	session string
}

func (c *dryRunClient) SendCode(ctx context.Context, phone string) error {
	log.Printf("[gateway][dry-run] sendCode phone=%s", phone)
	return nil
}

func (c *dryRunClient) SignIn(ctx context.Context, phone, code string) error {
	log.Printf("[gateway][dry-run] signIn phone=%s code=%s", phone, code)
	return nil
}

func (c *dryRunClient) SetPassword(ctx context.Context, password, hint string) error {
	log.Printf("[gateway][dry-run] setPassword hint=%q", hint)
	return nil
}

func (c *dryRunClient) ExportSession(ctx context.Context) (string, error) {
	return "dry-run-session-" + c.session, nil
}

func (c *dryRunClient) ActiveSessions(ctx context.Context) (int, error) {
	return 1, nil
}

func (c *dryRunClient) Close() error {
	log.Printf("[gateway][dry-run] disconnect session=%s", c.session)
	return nil
}
