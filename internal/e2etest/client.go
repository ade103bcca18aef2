package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type Client struct {
	client   *http.Client
	url      string
	username string
	password string
}

// NewClient creates an HTTP client with a cookie jar. Requests carry basic auth credentials when password is set.
func NewClient(url, username, password string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, fmt.Errorf("create unsafe cookie jar: %w", err)
	}
	return &Client{
		client:   &http.Client{Jar: jar},
		url:      url,
		username: username,
		password: password,
	}, nil
}

// WithCredentials returns a client sharing nothing with c except the server URL.
func (c *Client) WithCredentials(username, password string) (*Client, error) {
	return NewClient(c.url, username, password)
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		if resp, err = c.client.Do(req); err == nil {
			if err = resp.Body.Close(); err != nil {
				return fmt.Errorf("close response body: %w", err)
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, fmt.Errorf("create request with context: %w", err)
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	var (
		err  error
		resp *http.Response
		doc  *goquery.Document
	)
	if resp, err = c.Get(ctx, urlPath); err != nil {
		return nil, fmt.Errorf("client get: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// GetJSON fetches a URL and decodes the JSON body into v. The status code is returned whether or not decoding
// succeeded.
func (c *Client) GetJSON(ctx context.Context, urlPath string, v any) (int, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return 0, fmt.Errorf("new request with context: %w", err)
	}
	return c.doJSON(req, v)
}

// PostJSON posts body encoded as JSON and decodes the response into v.
func (c *Client) PostJSON(ctx context.Context, urlPath string, body any, v any) (int, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal body: %w", err)
	}
	req, err := c.newRequestWithContext(ctx, http.MethodPost, urlPath, bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("new request with context: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, v)
}

func (c *Client) doJSON(req *http.Request, v any) (int, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if req, err = http.NewRequestWithContext(ctx, method, c.url+urlPath, body); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// SubmitForm submits a form in the doc identified with action formActionUrlPath and returns the response document.
// The current values of the named inputs and selects of the form are sent. formFields is a map of label text to
// value overriding the input or select the label belongs to.
func (c *Client) SubmitForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	formFields map[string]string,
) (*goquery.Document, error) {
	form, err := FindForm(doc, formActionURLPath)
	if err != nil {
		return nil, fmt.Errorf("find form: %w", err)
	}

	formData := neturl.Values{}
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		if typ, _ := input.Attr("type"); typ == "checkbox" {
			if _, checked := input.Attr("checked"); !checked {
				return
			}
		}
		name, _ := input.Attr("name")
		value, _ := input.Attr("value")
		formData.Set(name, value)
	})
	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		value, _ := sel.Find("option[selected]").Attr("value")
		formData.Set(name, value)
	})

	for labelText, value := range formFields {
		var name string
		if name, err = fieldNameForLabel(form, labelText); err != nil {
			return nil, err
		}
		formData.Set(name, value)
	}

	req, err := c.newRequestWithContext(ctx, http.MethodPost, formActionURLPath, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request with context: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	newDoc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	newDoc.Url = resp.Request.URL
	return newDoc, nil
}

func fieldNameForLabel(form *goquery.Selection, labelText string) (string, error) {
	field, err := FindField(form, labelText)
	if err != nil {
		return "", fmt.Errorf("find field for label %s: %w", labelText, err)
	}
	name, exists := field.Attr("name")
	if !exists {
		return "", fmt.Errorf("field has no name attribute (label: %s)", labelText)
	}
	return name, nil
}
