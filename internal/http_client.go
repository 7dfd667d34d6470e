// Copyright 2018 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package internal contains functionality that is only accessible from
// within the token manager.
package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// identityToolkitMarker identifies requests bound for the Firebase
// verify-assertion endpoint, which takes a verbatim JSON body instead of
// a percent-encoded form body.
const identityToolkitMarker = "identitytoolkit"

// HTTPClient issues the token exchanges against the identity provider
// and Firebase endpoints. For every request exactly one of a response
// and an error is returned, and the error always carries one of the
// Status codes.
type HTTPClient struct {
	Client *http.Client
}

// Response contains the status, headers and raw body of an exchange
// that made it past the error classification.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Post sends body to the given URL. A URL targeting the Firebase
// verify-assertion endpoint gets the body verbatim with JSON headers;
// any other body is percent-encoded and sent as a form. A non-nil v
// receives the parsed JSON response; passing nil skips parsing for
// endpoints whose body is ignored.
func (c *HTTPClient) Post(ctx context.Context, url, body string, v interface{}) (*Response, error) {
	payload := body
	contentType := "application/x-www-form-urlencoded"
	jsonBody := strings.Contains(url, identityToolkitMarker)
	if jsonBody {
		contentType = "application/json"
	} else {
		payload = EncodeForm(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
	if err != nil {
		return nil, AuthErrorf(InternalError, "failed to build POST request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if jsonBody {
		req.Header.Set("Accept", "application/json")
	}
	req.ContentLength = int64(len(payload))

	return c.do(req, v)
}

// Get issues a bearer-authorized GET against the given URL and parses
// the JSON response into v.
func (c *HTTPClient) Get(ctx context.Context, url, accessToken string, v interface{}) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, AuthErrorf(InternalError, "failed to build GET request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, v)
}

func (c *HTTPClient) do(req *http.Request, v interface{}) (*Response, error) {
	hr, err := c.Client.Do(req)
	if err != nil {
		return nil, AuthErrorf(NetworkError, "%s error: %v", req.Method, err)
	}
	defer hr.Body.Close()

	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, AuthErrorf(NetworkError,
			"failed to read response with status: %d: %v", hr.StatusCode, err)
	}

	resp := &Response{
		Status: hr.StatusCode,
		Header: hr.Header,
		Body:   body,
	}
	if hr.StatusCode < http.StatusOK || hr.StatusCode >= http.StatusMultipleChoices {
		return nil, AuthErrorf(OAuthServerError,
			"received status code: %d, and response body: %s", hr.StatusCode, string(body))
	}

	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return nil, AuthErrorf(BadResponse, "JSON parse error: %v", err)
		}
	}
	return resp, nil
}

// PrettyJSON re-indents a JSON document for inclusion in BAD_RESPONSE
// messages. Invalid input is returned as-is.
func PrettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
