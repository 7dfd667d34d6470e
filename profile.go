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
)

// profileResponse holds the optional attributes of the people-get
// document. Absent fields decode to empty strings, which is exactly
// what an Account stores for unknown attributes.
type profileResponse struct {
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
	Image       struct {
		URL string `json:"url"`
	} `json:"image"`
}

// fetchProfile populates the account's display attributes from the
// people-get endpoint using the cached access token. The attributes are
// non-essential: a missing account or access token leaves the account
// unchanged and succeeds, and the caller demotes a returned error to a
// warning on the otherwise-valid account.
func (a *App) fetchProfile(ctx context.Context, account *Account) error {
	if account == nil {
		return nil
	}

	t, ok := a.cache.Lookup(account.ID)
	if !ok {
		// Maybe a guest account.
		log.Printf("account %s has no cached access token; skipping profile fetch", account.ID)
		return nil
	}

	var attrs profileResponse
	if _, err := a.hc.Get(ctx, a.peopleEndpoint, t.AccessToken, &attrs); err != nil {
		return err
	}

	account.DisplayName = attrs.DisplayName
	account.URL = attrs.URL
	account.ImageURL = attrs.Image.URL
	return nil
}
