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

	"github.com/modular-auth/tokenmanager/credstore"
	"github.com/modular-auth/tokenmanager/internal"
	"github.com/modular-auth/tokenmanager/tokencache"
)

// oauthTokenResponse is the document returned by the Google token
// endpoint for both the authorization-code and refresh-token grants.
type oauthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// refreshOAuthToken returns the requested short-lived token for the
// account, minting a fresh pair from the stored refresh token when the
// cache misses. Accounts without a stored refresh token are guests and
// get an empty token without error.
func (a *App) refreshOAuthToken(ctx context.Context, accountID string, tokenType TokenType) (string, error) {
	if accountID == "" {
		return "", internal.NewAuthError(internal.BadRequest, "account id is empty")
	}

	refreshToken := a.creds.RefreshToken(accountID, credstore.ProviderGoogle)
	if refreshToken == "" {
		// TODO: Differentiate between deleted users, users that are not
		// provisioned and guest-mode users; for now all of them get the
		// empty token.
		return "", nil
	}

	if t, ok := a.cache.Lookup(accountID); ok {
		return oauthTokenField(t, tokenType)
	}

	body := "refresh_token=" + refreshToken +
		"&client_id=" + a.clientID +
		"&grant_type=refresh_token"

	var tokens oauthTokenResponse
	resp, err := a.hc.Post(ctx, a.tokenEndpoint, body, &tokens)
	if err != nil {
		return "", err
	}
	if tokens.AccessToken == "" {
		return "", internal.AuthErrorf(internal.BadResponse,
			"tokens returned from server do not contain access_token: %s",
			internal.PrettyJSON(resp.Body))
	}
	if tokenType == TokenTypeID && tokens.IDToken == "" {
		return "", internal.AuthErrorf(internal.BadResponse,
			"tokens returned from server do not contain id_token: %s",
			internal.PrettyJSON(resp.Body))
	}

	t := tokencache.ShortLivedToken{
		CreationTime: a.clock.Now().Unix(),
		ExpiresIn:    tokens.ExpiresIn,
		AccessToken:  tokens.AccessToken,
		IDToken:      tokens.IDToken,
	}
	a.cache.Put(accountID, t)

	return oauthTokenField(t, tokenType)
}

func oauthTokenField(t tokencache.ShortLivedToken, tokenType TokenType) (string, error) {
	switch tokenType {
	case TokenTypeAccess:
		return t.AccessToken, nil
	case TokenTypeID:
		return t.IDToken, nil
	default:
		return "", internal.NewAuthError(internal.InternalError, "invalid token type")
	}
}
