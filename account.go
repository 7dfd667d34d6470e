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

package tokenmanager

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"

	"github.com/modular-auth/tokenmanager/internal"
)

// IdentityProvider identifies the backend that issues an account's
// credentials.
type IdentityProvider int

const (
	// IdentityProviderDev is the guest-mode provider: no credentials
	// are persisted and all tokens come back empty.
	IdentityProviderDev IdentityProvider = iota

	// IdentityProviderGoogle provisions accounts through Google OAuth.
	IdentityProviderGoogle
)

func (p IdentityProvider) String() string {
	switch p {
	case IdentityProviderDev:
		return "DEV"
	case IdentityProviderGoogle:
		return "GOOGLE"
	default:
		return "UNKNOWN"
	}
}

// TokenType selects which short-lived token a refresh request returns.
type TokenType int

const (
	// TokenTypeAccess selects the OAuth access token.
	TokenTypeAccess TokenType = iota

	// TokenTypeID selects the OpenID Connect ID token.
	TokenTypeID

	// TokenTypeFirebaseJWT identifies Firebase JWTs. They are minted by
	// their own flow; asking the OAuth refresh flow for one is an
	// internal error.
	TokenTypeFirebaseJWT
)

// Account is a local identity provisioned against an identity provider.
// The display attributes are populated from the user's profile and are
// empty strings when unknown, never absent.
type Account struct {
	ID               string
	IdentityProvider IdentityProvider
	DisplayName      string
	URL              string
	ImageURL         string
}

// generateAccountID draws a uniform 32-bit value from the cryptographic
// RNG and renders it in decimal.
//
// TODO: Check whether the id already exists in the credential store and
// redraw.
func generateAccountID() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", internal.AuthErrorf(internal.InternalError, "failed to generate account id: %v", err)
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(b[:])), 10), nil
}
