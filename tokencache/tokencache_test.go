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

package tokencache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/modular-auth/tokenmanager/internal"
)

func TestLookupFreshness(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	clock := &internal.MockClock{Timestamp: now}
	c := New(clock)

	c.Put("a", ShortLivedToken{
		CreationTime: now.Unix(),
		ExpiresIn:    3600,
		AccessToken:  "at",
		IDToken:      "it",
	})

	cases := []struct {
		name    string
		advance time.Duration
		want    bool
	}{
		{"immediately", 0, true},
		{"just inside the pad", 3600*time.Second - ExpiryPadding - time.Second, true},
		{"at the pad boundary", 3600*time.Second - ExpiryPadding, false},
		{"past expiry", 3700 * time.Second, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock.Timestamp = now.Add(tc.advance)
			_, ok := c.Lookup("a")
			if ok != tc.want {
				t.Errorf("Lookup() fresh = %v; want %v", ok, tc.want)
			}
		})
	}
}

func TestStaleEntryIsEvicted(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	clock := &internal.MockClock{Timestamp: now}
	c := New(clock)

	c.Put("a", ShortLivedToken{CreationTime: now.Unix() - 3100, ExpiresIn: 3600, AccessToken: "old"})
	if _, ok := c.Lookup("a"); ok {
		t.Fatal("Lookup() returned a token older than expires_in - pad")
	}
	// A second lookup must also miss; the stale entry is gone.
	if _, ok := c.Lookup("a"); ok {
		t.Error("stale entry survived its first lookup")
	}
}

func TestPutResetsFirebaseTokens(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	clock := &internal.MockClock{Timestamp: now}
	c := New(clock)

	c.Put("a", ShortLivedToken{CreationTime: now.Unix(), ExpiresIn: 3600})
	c.PutFirebase("a", "key1", FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 3600, IDToken: "f1"})
	c.PutFirebase("a", "key2", FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 3600, IDToken: "f2"})
	c.Put("b", ShortLivedToken{CreationTime: now.Unix(), ExpiresIn: 3600})
	c.PutFirebase("b", "key1", FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 3600, IDToken: "fb"})

	// A fresh OAuth grant for "a" drops only "a"'s derived tokens.
	c.Put("a", ShortLivedToken{CreationTime: now.Unix(), ExpiresIn: 3600, AccessToken: "new"})

	if _, ok := c.LookupFirebase("a", "key1"); ok {
		t.Error("firebase token for (a, key1) survived an OAuth refresh")
	}
	if _, ok := c.LookupFirebase("a", "key2"); ok {
		t.Error("firebase token for (a, key2) survived an OAuth refresh")
	}
	got, ok := c.LookupFirebase("b", "key1")
	if !ok {
		t.Fatal("firebase token for (b, key1) was dropped by an unrelated refresh")
	}
	want := FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 3600, IDToken: "fb"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("firebase token mismatch (-want +got):\n%s", diff)
	}
}

func TestEvict(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	clock := &internal.MockClock{Timestamp: now}
	c := New(clock)

	c.Put("a", ShortLivedToken{CreationTime: now.Unix(), ExpiresIn: 3600, AccessToken: "at"})
	c.PutFirebase("a", "key", FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 3600, IDToken: "f"})

	c.Evict("a")
	if _, ok := c.Lookup("a"); ok {
		t.Error("short-lived token survived eviction")
	}
	if _, ok := c.LookupFirebase("a", "key"); ok {
		t.Error("firebase token survived eviction")
	}
}

func TestFirebaseFreshnessIsPerKey(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	clock := &internal.MockClock{Timestamp: now}
	c := New(clock)

	c.PutFirebase("a", "short", FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 700, IDToken: "s"})
	c.PutFirebase("a", "long", FirebaseToken{CreationTime: now.Unix(), ExpiresIn: 7200, IDToken: "l"})

	clock.Timestamp = now.Add(200 * time.Second)
	if _, ok := c.LookupFirebase("a", "short"); ok {
		t.Error("token with 700s lifetime should be stale 200s in (pad is 600s)")
	}
	if _, ok := c.LookupFirebase("a", "long"); !ok {
		t.Error("token with 7200s lifetime should still be fresh")
	}
}
