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
	"encoding/json"
	"strconv"

	"github.com/modular-auth/tokenmanager/internal"
	"github.com/modular-auth/tokenmanager/tokencache"
)

// FirebaseToken is a short-lived Firebase credential minted from a
// Google ID token. Guest accounts get one with empty fields.
type FirebaseToken struct {
	IDToken string
	LocalID string
	Email   string
}

type verifyAssertionRequest struct {
	PostBody            string `json:"postBody"`
	ReturnIDPCredential bool   `json:"returnIdpCredential"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
	RequestURI          string `json:"requestUri"`
}

type verifyAssertionResponse struct {
	IDToken   string `json:"idToken"`
	LocalID   string `json:"localId"`
	Email     string `json:"email"`
	ExpiresIn string `json:"expiresIn"`
}

// refreshFirebaseToken exchanges the account's ID token for a Firebase
// JWT scoped to the given api key, consulting the per-key cache first.
func (a *App) refreshFirebaseToken(ctx context.Context, accountID, apiKey, idToken string) (*FirebaseToken, error) {
	if accountID == "" {
		return nil, internal.NewAuthError(internal.BadRequest, "account id is empty")
	}
	if apiKey == "" {
		return nil, internal.NewAuthError(internal.BadRequest, "firebase api key is empty")
	}
	if idToken == "" {
		// TODO: Differentiate between deleted users, users that are not
		// provisioned and guest-mode users; for now all of them get a
		// token with empty fields.
		return &FirebaseToken{}, nil
	}

	if t, ok := a.cache.LookupFirebase(accountID, apiKey); ok {
		return &FirebaseToken{IDToken: t.IDToken, LocalID: t.LocalID, Email: t.Email}, nil
	}

	reqBody, err := json.Marshal(verifyAssertionRequest{
		PostBody:            "id_token=" + idToken + "&providerId=google.com",
		ReturnIDPCredential: true,
		ReturnSecureToken:   true,
		RequestURI:          "http://localhost",
	})
	if err != nil {
		return nil, internal.AuthErrorf(internal.InternalError, "failed to encode request: %v", err)
	}

	url := a.firebaseEndpoint + "?key=" + internal.EncodeForm(apiKey)
	var vr verifyAssertionResponse
	resp, err := a.hc.Post(ctx, url, string(reqBody), &vr)
	if err != nil {
		return nil, err
	}
	if vr.IDToken == "" || vr.LocalID == "" || vr.Email == "" || vr.ExpiresIn == "" {
		return nil, internal.AuthErrorf(internal.BadResponse,
			"firebase token returned from server is missing idToken, localId, email or expiresIn: %s",
			internal.PrettyJSON(resp.Body))
	}
	expiresIn, err := strconv.ParseInt(vr.ExpiresIn, 10, 64)
	if err != nil {
		return nil, internal.AuthErrorf(internal.BadResponse,
			"firebase token carries a non-decimal expiresIn: %s",
			internal.PrettyJSON(resp.Body))
	}

	a.cache.PutFirebase(accountID, apiKey, tokencache.FirebaseToken{
		CreationTime: a.clock.Now().Unix(),
		ExpiresIn:    expiresIn,
		IDToken:      vr.IDToken,
		LocalID:      vr.LocalID,
		Email:        vr.Email,
	})
	return &FirebaseToken{IDToken: vr.IDToken, LocalID: vr.LocalID, Email: vr.Email}, nil
}
