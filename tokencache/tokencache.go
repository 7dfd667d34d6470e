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

// Package tokencache holds the short-lived credentials minted by the
// identity provider and by Firebase. The cache is process-local and
// lost on restart. Entries expire ExpiryPadding ahead of the server-set
// lifetime so callers refresh proactively; a stale entry is
// indistinguishable from an absent one.
package tokencache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/modular-auth/tokenmanager/internal"
)

// ExpiryPadding adjusts the token expiration window by a small amount
// to proactively refresh tokens before the expiry time limit is
// reached.
const ExpiryPadding = 600 * time.Second

// firebase entries are keyed accountID + keySep + apiKey. The separator
// cannot appear in account ids (decimal strings) so prefix scans are
// unambiguous.
const keySep = "\x00"

// ShortLivedToken is the access/ID token pair minted from a refresh
// token.
type ShortLivedToken struct {
	// CreationTime is the wall-clock fetch time in seconds since epoch.
	CreationTime int64
	// ExpiresIn is the lifetime in seconds as returned by the identity
	// provider.
	ExpiresIn   int64
	AccessToken string
	IDToken     string
}

// FirebaseToken is a Firebase JWT minted from an ID token, cached per
// (account, firebase api key).
type FirebaseToken struct {
	CreationTime int64
	ExpiresIn    int64
	IDToken      string
	LocalID      string
	Email        string
}

// Cache indexes short-lived tokens by account id and Firebase tokens by
// (account id, api key).
type Cache struct {
	clock    internal.Clock
	tokens   *gocache.Cache
	firebase *gocache.Cache
}

// New creates an empty cache. Freshness checks use the given clock;
// passing nil selects the system clock.
func New(clock internal.Clock) *Cache {
	if clock == nil {
		clock = internal.SystemClock
	}
	return &Cache{
		clock:    clock,
		tokens:   gocache.New(gocache.NoExpiration, 0),
		firebase: gocache.New(gocache.NoExpiration, 0),
	}
}

// Put stores the account's short-lived token, replacing any previous
// one. Firebase tokens derived from the previous OAuth grant are
// dropped.
func (c *Cache) Put(accountID string, t ShortLivedToken) {
	c.tokens.Set(accountID, t, gocache.NoExpiration)
	c.dropFirebase(accountID)
}

// Lookup returns the account's short-lived token if present and fresh.
// Stale entries are evicted and reported absent.
func (c *Cache) Lookup(accountID string) (ShortLivedToken, bool) {
	v, ok := c.tokens.Get(accountID)
	if !ok {
		return ShortLivedToken{}, false
	}
	t := v.(ShortLivedToken)
	if !c.fresh(t.CreationTime, t.ExpiresIn) {
		c.tokens.Delete(accountID)
		return ShortLivedToken{}, false
	}
	return t, true
}

// PutFirebase stores a Firebase token under (accountID, apiKey).
func (c *Cache) PutFirebase(accountID, apiKey string, t FirebaseToken) {
	c.firebase.Set(accountID+keySep+apiKey, t, gocache.NoExpiration)
}

// LookupFirebase returns the Firebase token cached for (accountID,
// apiKey) if present and fresh.
func (c *Cache) LookupFirebase(accountID, apiKey string) (FirebaseToken, bool) {
	key := accountID + keySep + apiKey
	v, ok := c.firebase.Get(key)
	if !ok {
		return FirebaseToken{}, false
	}
	t := v.(FirebaseToken)
	if !c.fresh(t.CreationTime, t.ExpiresIn) {
		c.firebase.Delete(key)
		return FirebaseToken{}, false
	}
	return t, true
}

// Evict removes the account's short-lived token and every Firebase
// token derived from it.
func (c *Cache) Evict(accountID string) {
	c.tokens.Delete(accountID)
	c.dropFirebase(accountID)
}

func (c *Cache) dropFirebase(accountID string) {
	prefix := accountID + keySep
	for key := range c.firebase.Items() {
		if strings.HasPrefix(key, prefix) {
			c.firebase.Delete(key)
		}
	}
}

func (c *Cache) fresh(creationTime, expiresIn int64) bool {
	now := c.clock.Now().Unix()
	return now-creationTime < expiresIn-int64(ExpiryPadding/time.Second)
}
