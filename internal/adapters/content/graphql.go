package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/pkg/logger"
	"github.com/okian/playmedia/pkg/metrics"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 16 << 20
	tokenHeader     = "X-GQL-Token"
)

// Option configures a GraphQLClient.
type Option func(*GraphQLClient)

// WithToken sets the preview API token.
func WithToken(token string) Option {
	return func(c *GraphQLClient) { c.token = token }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *GraphQLClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *GraphQLClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *GraphQLClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// GraphQLClient is a Source backed by the content service GraphQL API.
type GraphQLClient struct {
	endpoint string
	token    string
	http     *http.Client
	logger   logger.Logger
}

// NewGraphQLClient creates a client for endpoint.
func NewGraphQLClient(endpoint string, opts ...Option) *GraphQLClient {
	c := &GraphQLClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("content")
	}
	return c
}

type gqlRequest struct {
	Query string `json:"query"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError       `json:"errors"`
}

// query posts q and decodes the data member into out.
func (c *GraphQLClient) query(ctx context.Context, kind model.Kind, q string, out any) error {
	start := time.Now()
	defer func() {
		metrics.RecordFetchLatency(string(kind), time.Since(start).Seconds())
	}()

	body, err := sonic.Marshal(gqlRequest{Query: q})
	if err != nil {
		return fmt.Errorf("%w: encode query: %w", ErrDecode, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("content", "request")
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordErrorByComponent("content", "status")
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var envelope gqlResponse
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		c.logger.Error(ctx, "graphql query returned errors",
			logger.String("kind", string(kind)),
			logger.Strings("errors", msgs),
		)
		metrics.RecordErrorByComponent("content", "graphql")
		return fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrDecode)
	}
	if err := sonic.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// Athletes implements Source.
func (c *GraphQLClient) Athletes(ctx context.Context) (model.Collection, error) {
	var res results[athleteDoc]
	if err := c.query(ctx, model.KindAthlete, athletesQuery, &res); err != nil {
		return nil, err
	}
	out := make(model.Collection, 0, len(res.Data.Results))
	for _, d := range res.Data.Results {
		out = append(out, d.entity())
	}
	return out, nil
}

// Sports implements Source.
func (c *GraphQLClient) Sports(ctx context.Context) (model.Collection, error) {
	var res results[sportDoc]
	if err := c.query(ctx, model.KindSport, sportsQuery, &res); err != nil {
		return nil, err
	}
	out := make(model.Collection, 0, len(res.Data.Results))
	for _, d := range res.Data.Results {
		out = append(out, d.entity())
	}
	return out, nil
}

// Media implements Source.
func (c *GraphQLClient) Media(ctx context.Context) (model.Collection, error) {
	var res results[mediaDoc]
	if err := c.query(ctx, model.KindMedia, mediaQuery, &res); err != nil {
		return nil, err
	}
	out := make(model.Collection, 0, len(res.Data.Results))
	for _, d := range res.Data.Results {
		out = append(out, d.entity())
	}
	return out, nil
}
