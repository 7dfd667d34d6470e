// Copyright 2020 Google Inc. All Rights Reserved.
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

// Package errorutils provides functions for checking and handling error conditions.
package errorutils

import (
	"errors"

	"github.com/modular-auth/tokenmanager/internal"
)

// IsBadRequest checks if the given error was due to an invalid caller input.
func IsBadRequest(err error) bool {
	return internal.HasStatus(err, internal.BadRequest)
}

// IsOAuthServerError checks if the given error was caused by a non-2xx response
// from the identity provider or Firebase.
//
// The error message contains the status code and the server's response body.
func IsOAuthServerError(err error) bool {
	return internal.HasStatus(err, internal.OAuthServerError)
}

// IsNetworkError checks if the given error was caused by a transport failure.
func IsNetworkError(err error) bool {
	return internal.HasStatus(err, internal.NetworkError)
}

// IsBadResponse checks if the given error was caused by a response that is not
// valid JSON or is missing a required field.
func IsBadResponse(err error) bool {
	return internal.HasStatus(err, internal.BadResponse)
}

// IsUserCancelled checks if the given error was caused by the user dismissing
// the enrollment overlay or denying the OAuth consent.
func IsUserCancelled(err error) bool {
	return internal.HasStatus(err, internal.UserCancelled)
}

// IsInternal checks if the given error was caused by a local cache or store
// failure, or an impossible code path.
func IsInternal(err error) bool {
	return internal.HasStatus(err, internal.InternalError)
}

// IsProfileUnavailable checks if the given error only reflects a failed
// profile-attribute fetch. The account returned alongside such an error is
// fully provisioned and usable.
func IsProfileUnavailable(err error) bool {
	var pe *internal.ProfileError
	return errors.As(err, &pe)
}
