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
	"testing"
	"time"

	"github.com/modular-auth/tokenmanager/credstore"
	"github.com/modular-auth/tokenmanager/errorutils"
	"github.com/modular-auth/tokenmanager/tokencache"
)

func TestRemoveAccountRevokeAll(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "42", "refresh-42")
	env.app.cache.Put("42", tokencache.ShortLivedToken{
		CreationTime: time.Now().Unix(),
		ExpiresIn:    3600,
		AccessToken:  "a",
	})
	account := &Account{ID: "42", IdentityProvider: IdentityProviderGoogle}

	if err := env.app.RemoveAccount(context.Background(), account, true); err != nil {
		t.Fatalf("RemoveAccount() = %v", err)
	}

	// The file no longer lists the account.
	store := credstore.NewStore(env.credsPath)
	store.Load()
	if got := store.RefreshToken("42", credstore.ProviderGoogle); got != "" {
		t.Errorf("RefreshToken() after removal = %q; want empty", got)
	}
	if _, ok := env.app.cache.Lookup("42"); ok {
		t.Error("cache still holds tokens for the removed account")
	}

	// Exactly one revocation request, carrying the refresh token.
	_, _, _, revokeCalls := env.idp.counts()
	if revokeCalls != 1 {
		t.Errorf("revocation endpoint hit %d times; want 1", revokeCalls)
	}
	env.idp.mu.Lock()
	query := env.idp.lastRevokeQuery
	env.idp.mu.Unlock()
	if query != "token=refresh-42" {
		t.Errorf("revocation query = %q; want token=refresh-42", query)
	}

	// The account now behaves as a guest.
	provider := env.app.TokenProviderFactory("42").TokenProvider("test://consumer")
	token, err := provider.AccessToken(context.Background())
	if err != nil || token != "" {
		t.Errorf("AccessToken() after removal = (%q, %v); want (, nil)", token, err)
	}
}

func TestRemoveAccountLocalOnly(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "42", "refresh-42")
	account := &Account{ID: "42", IdentityProvider: IdentityProviderGoogle}

	if err := env.app.RemoveAccount(context.Background(), account, false); err != nil {
		t.Fatalf("RemoveAccount(revokeAll=false) = %v", err)
	}
	_, _, _, revokeCalls := env.idp.counts()
	if revokeCalls != 0 {
		t.Errorf("revocation endpoint hit %d times; want 0", revokeCalls)
	}
	if got := env.app.creds.RefreshToken("42", credstore.ProviderGoogle); got != "" {
		t.Errorf("RefreshToken() after local removal = %q; want empty", got)
	}
}

func TestRemoveAccountIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "42", "refresh-42")
	account := &Account{ID: "42", IdentityProvider: IdentityProviderGoogle}

	if err := env.app.RemoveAccount(context.Background(), account, false); err != nil {
		t.Fatalf("first RemoveAccount() = %v", err)
	}
	if err := env.app.RemoveAccount(context.Background(), account, false); err != nil {
		t.Fatalf("second RemoveAccount() = %v", err)
	}
}

func TestRemoveAccountNil(t *testing.T) {
	env := newTestEnv(t)
	err := env.app.RemoveAccount(context.Background(), nil, false)
	if !errorutils.IsBadRequest(err) {
		t.Fatalf("RemoveAccount(nil) = %v; want BAD_REQUEST", err)
	}
}

func TestRemoveAccountDev(t *testing.T) {
	env := newTestEnv(t)
	account := &Account{ID: "7", IdentityProvider: IdentityProviderDev}
	if err := env.app.RemoveAccount(context.Background(), account, true); err != nil {
		t.Fatalf("RemoveAccount(DEV) = %v; want nil", err)
	}
	_, _, _, revokeCalls := env.idp.counts()
	if revokeCalls != 0 {
		t.Errorf("DEV removal hit the revocation endpoint %d times; want 0", revokeCalls)
	}
}

func TestRemoveAccountUnknownProvider(t *testing.T) {
	env := newTestEnv(t)
	account := &Account{ID: "7", IdentityProvider: IdentityProvider(9)}
	err := env.app.RemoveAccount(context.Background(), account, true)
	if !errorutils.IsBadRequest(err) {
		t.Fatalf("RemoveAccount(unknown idp) = %v; want BAD_REQUEST", err)
	}
}

// A failed server-side revocation still removes the account locally.
func TestRemoveAccountServerErrorAfterLocalRemoval(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "42", "refresh-42")
	env.idp.mu.Lock()
	env.idp.revokeStatus = 500
	env.idp.mu.Unlock()
	account := &Account{ID: "42", IdentityProvider: IdentityProviderGoogle}

	err := env.app.RemoveAccount(context.Background(), account, true)
	if !errorutils.IsOAuthServerError(err) {
		t.Fatalf("RemoveAccount() = %v; want OAUTH_SERVER_ERROR", err)
	}
	if got := env.app.creds.RefreshToken("42", credstore.ProviderGoogle); got != "" {
		t.Errorf("local credentials survived a failed server revocation: %q", got)
	}

	// A second removal finds nothing and succeeds.
	if err := env.app.RemoveAccount(context.Background(), account, true); err != nil {
		t.Fatalf("second RemoveAccount() = %v; want nil", err)
	}
}
