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

package internal

import (
	"errors"
	"fmt"
)

// Status represents the terminal conditions an auth flow can surface to
// its caller. The OK case is the nil error.
type Status string

const (
	// BadRequest indicates an invalid input from the caller.
	BadRequest Status = "BAD_REQUEST"

	// OAuthServerError indicates a non-2xx response from the identity
	// provider or the Firebase auth endpoint.
	OAuthServerError Status = "OAUTH_SERVER_ERROR"

	// NetworkError indicates a transport-level failure.
	NetworkError Status = "NETWORK_ERROR"

	// BadResponse indicates a response body that is not valid JSON, or a
	// valid document missing a required field.
	BadResponse Status = "BAD_RESPONSE"

	// UserCancelled indicates the user dismissed the enrollment overlay,
	// denied the OAuth consent, or the web surface disconnected.
	UserCancelled Status = "USER_CANCELLED"

	// InternalError indicates a local cache or store failure, or a code
	// path that should be impossible.
	InternalError Status = "INTERNAL_ERROR"
)

// AuthError is an error type carrying one of the flow status codes.
type AuthError struct {
	Status  Status
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// NewAuthError creates a new AuthError from the given status and message.
func NewAuthError(status Status, msg string) *AuthError {
	return &AuthError{Status: status, Message: msg}
}

// AuthErrorf creates a new AuthError from the given status and format string.
func AuthErrorf(status Status, format string, args ...interface{}) *AuthError {
	return NewAuthError(status, fmt.Sprintf(format, args...))
}

// HasStatus checks if the given error carries the specified status code.
func HasStatus(err error, status Status) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Status == status
}

// ProfileError wraps a failure to fetch profile attributes for an
// otherwise successfully enrolled account. The account accompanying a
// ProfileError is valid; only its display attributes are missing.
type ProfileError struct {
	Err error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile attributes unavailable: %v", e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}
