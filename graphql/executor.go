package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultHTTPTimeout bounds every GraphQL round trip.
const defaultHTTPTimeout = 30 * time.Second

// TokenProvider supplies a valid bearer token for a principal. Implemented by
// oauth.Manager; the executor never reads the token store directly, so it
// cannot observe an in-flight refresh.
type TokenProvider interface {
	ValidToken(ctx context.Context, principalID string) (string, error)
}

// HTTPError reports a non-2xx status from the GraphQL endpoint.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql: endpoint returned status %d", e.StatusCode)
}

// DecodingError reports a response body that was not the expected JSON shape.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("graphql: decoding response: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// ErrorDetail is one entry of a GraphQL response's top-level errors array.
type ErrorDetail struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Result is the decoded outcome of one GraphQL call. Errors may be populated
// alongside partial Data; neither implies a transport failure.
type Result struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorDetail   `json:"errors,omitempty"`
}

// DecodeData unmarshals the data payload into v. Returns a *DecodingError
// when data is absent or malformed.
func (r *Result) DecodeData(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return &DecodingError{Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return &DecodingError{Err: err}
	}
	return nil
}

// Err folds the error list into a single Go error when the result carries
// errors and no usable data, for callers that treat that combination as
// failure. Returns nil otherwise.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	if len(r.Data) != 0 && string(r.Data) != "null" {
		return nil
	}
	return fmt.Errorf("graphql: %s", r.Errors[0].Message)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithHTTPClient sets a custom HTTP client for GraphQL requests.
func WithHTTPClient(client *http.Client) ExecutorOption {
	return func(e *Executor) {
		e.httpClient = client
	}
}

// Executor performs authenticated GraphQL calls for one endpoint.
type Executor struct {
	endpoint   string
	tokens     TokenProvider
	httpClient *http.Client
}

// NewExecutor creates an Executor posting to the given GraphQL endpoint.
func NewExecutor(endpoint string, tokens TokenProvider, opts ...ExecutorOption) (*Executor, error) {
	if endpoint == "" {
		return nil, errors.New("graphql: endpoint cannot be empty")
	}
	if tokens == nil {
		return nil, errors.New("graphql: token provider cannot be nil")
	}

	e := &Executor{
		endpoint:   endpoint,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// request is the wire shape of a GraphQL POST body.
type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Execute performs one authenticated GraphQL call on behalf of the principal.
//
// Token acquisition failures propagate unchanged (e.g.
// oauth.ErrNotAuthenticated). A non-2xx status fails with *HTTPError, an
// undecodable body with *DecodingError. A 2xx response with a top-level
// errors array is a successful Result carrying those errors.
func (e *Executor) Execute(ctx context.Context, principalID, query string, variables map[string]any) (*Result, error) {
	access, err := e.tokens.ValidToken(ctx, principalID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("graphql: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graphql: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("graphql: reading response: %w", err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DecodingError{Err: err}
	}
	return &result, nil
}
