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
	"strings"
	"time"

	"github.com/modular-auth/tokenmanager/credstore"
	"github.com/modular-auth/tokenmanager/internal"
	"github.com/modular-auth/tokenmanager/internal/operation"
	"github.com/modular-auth/tokenmanager/tokencache"
)

type enrollResult struct {
	code string
	err  error
}

// enroll drives the embedded web surface through the authorization-code
// dialog, intercepts the redirect carrying the code, and exchanges the
// code for a refresh token. It runs as one operation on the queue; the
// queue stays blocked while the user interacts with the surface.
func (a *App) enroll(ctx context.Context, account *Account) error {
	if a.launcher == nil || a.authContexts == nil {
		return internal.NewAuthError(internal.InternalError,
			"no web surface launcher or authentication context configured")
	}

	surface, err := a.launcher.Launch(ctx)
	if err != nil {
		return internal.AuthErrorf(internal.InternalError, "failed to launch web surface: %v", err)
	}
	authContext := a.authContexts.AuthenticationContext(account.ID)

	// The flow branches: the navigation delegate, the host disconnect
	// channel and the timeout all race to complete it. The holder lets
	// exactly one branch through; the winner sends exactly one result.
	holder := &operation.Holder{}
	results := make(chan enrollResult, 1)

	codePrefix := redirectURI + "?code="
	cancelPrefix := redirectURI + "?error=access_denied"

	surface.SetDelegate(func(url string) {
		if strings.HasPrefix(url, cancelPrefix) {
			// The user denied the OAuth permissions.
			if !holder.Claim() {
				return
			}
			authContext.StopOverlay()
			results <- enrollResult{err: internal.NewAuthError(internal.UserCancelled,
				"user cancelled OAuth flow")}
			return
		}
		if !strings.HasPrefix(url, codePrefix) {
			// The user is still authenticating inside the surface; let
			// the navigation pass.
			return
		}

		// The user accepted. Claiming the holder before StopOverlay
		// silences the disconnect branch, since tearing down the
		// overlay may close the host connection.
		if !holder.Claim() {
			return
		}
		authContext.StopOverlay()

		code := strings.TrimPrefix(url, codePrefix)
		// The redirect carries a trailing '#'.
		code = strings.TrimSuffix(code, "#")
		results <- enrollResult{code: code}
	})

	surface.ClearCookies()
	surface.SetURL(a.authURL())
	authContext.StartOverlay(surface)

	var timeout <-chan time.Time
	if a.enrollTimeout > 0 {
		timer := time.NewTimer(a.enrollTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var res enrollResult
	select {
	case res = <-results:
	case <-authContext.Disconnected():
		if holder.Claim() {
			res = enrollResult{err: internal.NewAuthError(internal.UserCancelled,
				"overlay cancelled by device shell")}
		} else {
			// A delegate branch won the race; wait for its result.
			res = <-results
		}
	case <-timeout:
		if holder.Claim() {
			authContext.StopOverlay()
			res = enrollResult{err: internal.NewAuthError(internal.UserCancelled,
				"enrollment timed out")}
		} else {
			res = <-results
		}
	case <-ctx.Done():
		if holder.Claim() {
			authContext.StopOverlay()
			res = enrollResult{err: internal.AuthErrorf(internal.UserCancelled,
				"enrollment cancelled: %v", ctx.Err())}
		} else {
			res = <-results
		}
	}
	if res.err != nil {
		return res.err
	}

	return a.exchangeAuthCode(ctx, account, res.code)
}

func (a *App) authURL() string {
	return a.authEndpoint +
		"?scope=" + strings.Join(oauthScopes, "+") +
		"&response_type=code&redirect_uri=" + redirectURI +
		"&client_id=" + a.clientID
}

// exchangeAuthCode trades the authorization code for a long-lived
// refresh token, persists it and seeds the short-lived token cache.
func (a *App) exchangeAuthCode(ctx context.Context, account *Account, code string) error {
	body := "code=" + code +
		"&redirect_uri=" + redirectURI +
		"&client_id=" + a.clientID +
		"&grant_type=authorization_code"

	var tokens oauthTokenResponse
	resp, err := a.hc.Post(ctx, a.tokenEndpoint, body, &tokens)
	if err != nil {
		return err
	}
	if tokens.RefreshToken == "" || tokens.AccessToken == "" {
		return internal.AuthErrorf(internal.BadResponse,
			"tokens returned from server do not contain refresh_token or access_token: %s",
			internal.PrettyJSON(resp.Body))
	}

	if err := a.creds.Upsert(account.ID, credstore.ProviderGoogle, tokens.RefreshToken); err != nil {
		return internal.AuthErrorf(internal.InternalError,
			"failed to persist credentials for account %s: %v", account.ID, err)
	}

	a.cache.Put(account.ID, tokencache.ShortLivedToken{
		CreationTime: a.clock.Now().Unix(),
		ExpiresIn:    tokens.ExpiresIn,
		AccessToken:  tokens.AccessToken,
		IDToken:      tokens.IDToken,
	})
	return nil
}
