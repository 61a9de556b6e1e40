/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/retry"
)

const (
	pushPath = "/sync/push"
	pullPath = "/sync/pull"

	maxResponseBytes = 32 << 20
)

var (
	// ErrUnexpectedResponse is returned when the server answered with a body
	// that could not be decoded or that did not report success.
	ErrUnexpectedResponse = errors.New("unexpected response from server")
)

// ResponseError is returned when the server rejected a request.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error returns the message of the server.
func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// rpcClient sends sync requests over HTTP/JSON.
type rpcClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      retry.Options
	logger     *zap.SugaredLogger
}

func newRPCClient(rpcAddr string, options Options, logger *zap.SugaredLogger) *rpcClient {
	baseURL := strings.TrimRight(rpcAddr, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &rpcClient{
		baseURL:    baseURL,
		token:      options.Token,
		httpClient: options.HTTPClient,
		retry: retry.Options{
			MaxRetries:   options.MaxRetries,
			BaseInterval: options.RetryBaseInterval,
			MaxInterval:  options.RetryMaxInterval,
		},
		logger: logger,
	}
}

func (c *rpcClient) push(ctx context.Context, req *types.PushRequest) (*types.PushResponse, error) {
	res := &types.PushResponse{}
	if err := c.post(ctx, pushPath, req, res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("push: %w", ErrUnexpectedResponse)
	}
	return res, nil
}

func (c *rpcClient) pull(ctx context.Context, req *types.PullRequest) (*types.PullResponse, error) {
	res := &types.PullResponse{}
	if err := c.post(ctx, pullPath, req, res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("pull: %w", ErrUnexpectedResponse)
	}
	return res, nil
}

// post sends req to the given path and decodes the response into res. It
// retries with exponential backoff while the server is unreachable or
// overloaded.
func (c *rpcClient) post(ctx context.Context, path string, req any, res any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	attempt := 0
	return retry.WithExponentialBackoff(ctx, c.retry, func() (int, error) {
		attempt++
		if attempt > 1 {
			c.logger.Debugf("retry %s, attempt %d", path, attempt)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return 0, fmt.Errorf("new %s request: %w", path, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return 0, fmt.Errorf("post %s: %w", path, err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				c.logger.Warnf("close %s response: %v", path, err)
			}
		}()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read %s response: %w", path, err)
		}

		if resp.StatusCode != http.StatusOK {
			errRes := types.ErrorResponse{}
			if err := json.Unmarshal(payload, &errRes); err != nil || errRes.Error == "" {
				errRes.Error = http.StatusText(resp.StatusCode)
			}
			return resp.StatusCode, &ResponseError{
				StatusCode: resp.StatusCode,
				Code:       errRes.Code,
				Message:    errRes.Error,
			}
		}

		if err := json.Unmarshal(payload, res); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, ErrUnexpectedResponse)
		}
		return resp.StatusCode, nil
	})
}
