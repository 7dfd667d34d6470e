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
	"errors"
	"time"

	"golang.org/x/oauth2"

	"github.com/modular-auth/tokenmanager/verify"
)

// TokenProviderFactory vends per-consumer token providers for one
// account.
type TokenProviderFactory struct {
	accountID string
	app       *App
}

// TokenProviderFactory returns a factory bound to the given account.
func (a *App) TokenProviderFactory(accountID string) *TokenProviderFactory {
	return &TokenProviderFactory{accountID: accountID, app: a}
}

// TokenProvider returns a provider for the given consumer.
//
// TODO: The current implementation is agnostic about which consumer is
// requesting what token; applicationURL is accepted but unused.
func (f *TokenProviderFactory) TokenProvider(applicationURL string) *TokenProvider {
	_ = applicationURL
	return &TokenProvider{accountID: f.accountID, app: f.app}
}

// TokenProvider vends short-lived tokens for one account. All methods
// run on the app's serialized operation queue; calls block until their
// operation completes. Unprovisioned (guest) accounts yield empty
// tokens without error.
type TokenProvider struct {
	accountID string
	app       *App
}

// AccessToken returns a fresh OAuth access token.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	return p.refresh(ctx, TokenTypeAccess)
}

// IDToken returns a fresh OpenID Connect ID token.
func (p *TokenProvider) IDToken(ctx context.Context) (string, error) {
	return p.refresh(ctx, TokenTypeID)
}

func (p *TokenProvider) refresh(ctx context.Context, tokenType TokenType) (string, error) {
	var token string
	var err error
	p.app.queue.Run("GoogleOAuthTokens", func() {
		token, err = p.app.refreshOAuthToken(ctx, p.accountID, tokenType)
	})
	return token, err
}

// FirebaseAuthToken returns a Firebase JWT for the given api key. The
// account's ID token is refreshed first; the Firebase exchange only
// runs when that succeeds.
func (p *TokenProvider) FirebaseAuthToken(ctx context.Context, apiKey string) (*FirebaseToken, error) {
	idToken, err := p.IDToken(ctx)
	if err != nil {
		return nil, err
	}

	var token *FirebaseToken
	p.app.queue.Run("GoogleFirebaseTokens", func() {
		token, err = p.app.refreshFirebaseToken(ctx, p.accountID, apiKey, idToken)
	})
	return token, err
}

// ClientID returns the OAuth client id the manager enrolls with.
func (p *TokenProvider) ClientID() string {
	return p.app.clientID
}

// VerifyIDToken checks an ID token's signature and claims against
// Google's published JWKS and this manager's client id.
func (p *TokenProvider) VerifyIDToken(ctx context.Context, idToken string) (*verify.Token, error) {
	v, err := p.app.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return v.VerifyToken(idToken)
}

// TokenSource adapts the provider to golang.org/x/oauth2 so the vended
// access tokens can feed any client built on that package.
func (p *TokenProvider) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, provider: p}
}

type tokenSource struct {
	ctx      context.Context
	provider *TokenProvider
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := ts.provider.AccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, errors.New("account is not provisioned")
	}

	token := &oauth2.Token{AccessToken: accessToken}
	if t, ok := ts.provider.app.cache.Lookup(ts.provider.accountID); ok {
		token.Expiry = time.Unix(t.CreationTime+t.ExpiresIn, 0)
	}
	return token, nil
}
