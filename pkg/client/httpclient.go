package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// HttpClient talks JSON to one of the services. Non-2xx responses are
// returned as responses, not errors.
type HttpClient struct {
	BaseURL string
	rest    *resty.Client
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
}

type Response struct {
	*http.Response
	Body []byte
}

type Metadata struct {
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) ToString() string {
	return fmt.Sprintf("%d %s", r.StatusCode, string(r.Body))
}

func (c *HttpClient) GET(path string) (*Response, error) {
	return c.do(c.rest.R(), http.MethodGet, path)
}

func (c *HttpClient) POST(path string, body any) (*Response, error) {
	return c.do(c.jsonRequest(body, nil), http.MethodPost, path)
}

func (c *HttpClient) PUT(path string, body any) (*Response, error) {
	return c.do(c.jsonRequest(body, nil), http.MethodPut, path)
}

func (c *HttpClient) PATCH(path string, body any) (*Response, error) {
	return c.do(c.jsonRequest(body, nil), http.MethodPatch, path)
}

func (c *HttpClient) DELETE(path string) (*Response, error) {
	return c.do(c.rest.R(), http.MethodDelete, path)
}

func (c *HttpClient) POSTWithHeaders(path string, body any, headers map[string]string) (*Response, error) {
	return c.do(c.jsonRequest(body, headers), http.MethodPost, path)
}

func (c *HttpClient) POSTRaw(path string, rawBody []byte) (*Response, error) {
	return c.do(c.jsonRequest(rawBody, nil), http.MethodPost, path)
}

func (c *HttpClient) PATCHRaw(path string, rawBody []byte) (*Response, error) {
	return c.do(c.jsonRequest(rawBody, nil), http.MethodPatch, path)
}

func (c *HttpClient) jsonRequest(body any, headers map[string]string) *resty.Request {
	req := c.rest.R().
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}
	return req
}

func (c *HttpClient) do(req *resty.Request, method, path string) (*Response, error) {
	resp, err := req.SetContext(context.Background()).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return &Response{
		Response: resp.RawResponse,
		Body:     resp.Body(),
	}, nil
}

func (c *HttpClient) WaitForHealthy(maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.rest.R().Get("/health")
		if err == nil && resp.StatusCode() == http.StatusOK {
			return nil
		}
		<-ticker.C
	}

	return fmt.Errorf("service did not become healthy within %v", maxWait)
}

func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return fmt.Sprintf("failed to unmarshal error: %v", err)
	}

	if errResp.Message != "" {
		return errResp.Message
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return errResp.Code
}

func decodeData(resp *Response, target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper: %s: %w", resp.ToString(), err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data: %s: %w", resp.ToString(), err)
	}
	return nil
}

func decodePage(resp *Response, target any) (*Metadata, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
		Metadata
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode paginated response: %s: %w", resp.ToString(), err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return nil, fmt.Errorf("could not decode page data: %s: %w", resp.ToString(), err)
	}
	return &wrapper.Metadata, nil
}
