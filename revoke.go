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
	"context"
	"log"

	"github.com/modular-auth/tokenmanager/credstore"
	"github.com/modular-auth/tokenmanager/internal"
)

// revoke removes the account locally and, with revokeAll, asks the
// identity provider to invalidate the refresh token. Local removal
// happens first, so even a failed server revocation leaves the account
// unknown to later calls.
func (a *App) revoke(ctx context.Context, account *Account, revokeAll bool) error {
	if account == nil {
		return internal.NewAuthError(internal.BadRequest, "account is nil")
	}

	switch account.IdentityProvider {
	case IdentityProviderDev:
		// Guest mode; nothing to revoke.
		return nil
	case IdentityProviderGoogle:
	default:
		return internal.NewAuthError(internal.BadRequest, "unsupported identity provider")
	}

	refreshToken := a.creds.RefreshToken(account.ID, credstore.ProviderGoogle)
	if refreshToken == "" {
		// Maybe a guest account, or already removed.
		log.Printf("account %s not found in credential store", account.ID)
		return nil
	}

	a.cache.Evict(account.ID)
	if err := a.creds.Remove(account.ID); err != nil {
		return internal.AuthErrorf(internal.InternalError,
			"unable to delete persistent credentials for account %s: %v", account.ID, err)
	}

	if !revokeAll {
		return nil
	}

	// Invalidate the refresh and access tokens on the backend. The
	// response body carries no useful data and is ignored.
	url := a.revokeEndpoint + "?token=" + refreshToken
	if _, err := a.hc.Post(ctx, url, "", nil); err != nil {
		return err
	}
	return nil
}
