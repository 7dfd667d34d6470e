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

// Package tokenmanager provisions user accounts against an identity
// provider and vends short-lived access, ID and Firebase tokens to
// in-process clients.
//
// Accounts are enrolled interactively through an embedded web surface,
// long-lived refresh tokens are persisted in a verified on-disk store,
// and the short-lived tokens minted from them live in an in-memory
// cache that refreshes 600 seconds ahead of expiry. All flows run one
// at a time on a serialized operation queue.
package tokenmanager

import (
	"context"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/transport"

	"github.com/modular-auth/tokenmanager/credstore"
	"github.com/modular-auth/tokenmanager/internal"
	"github.com/modular-auth/tokenmanager/internal/operation"
	"github.com/modular-auth/tokenmanager/tokencache"
	"github.com/modular-auth/tokenmanager/verify"
	"github.com/modular-auth/tokenmanager/webview"
)

// NOTE: We are currently using a single client id. This is temporary
// and will change in the future.
const clientID = "934259141868-rejmm4ollj1bs7th1vg2ur6antpbug79.apps.googleusercontent.com"

const (
	googleOAuthAuthEndpoint   = "https://accounts.google.com/o/oauth2/v2/auth"
	googleOAuthTokenEndpoint  = "https://www.googleapis.com/oauth2/v4/token"
	googleRevokeTokenEndpoint = "https://accounts.google.com/o/oauth2/revoke"
	googlePeopleGetEndpoint   = "https://www.googleapis.com/plus/v1/people/me"
	firebaseAuthEndpoint      = "https://www.googleapis.com/identitytoolkit/v3/relyingparty/verifyAssertion"

	redirectURI = "com.google.fuchsia.auth:/oauth2redirect"

	defaultCredentialsFile = "/data/v2/creds.db"
)

var oauthScopes = []string{
	"openid",
	"email",
	"https://www.googleapis.com/auth/admin.directory.user.readonly",
	"https://www.googleapis.com/auth/assistant",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/contacts",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/plus.login",
	"https://www.googleapis.com/auth/calendar.readonly",
}

// Config carries the deployment-specific pieces of an App. The zero
// value is usable for token refresh and revocation; interactive
// enrollment additionally needs a Launcher and an
// AuthenticationContextProvider (see App.Initialize).
type Config struct {
	// CredentialsFile overrides the default on-disk credential store
	// path.
	CredentialsFile string

	// Launcher starts the embedded web surface for interactive
	// enrollment.
	Launcher webview.Launcher

	// EnrollTimeout bounds the interactive enrollment wait. Zero means
	// no timeout.
	EnrollTimeout time.Duration
}

// App is the owning core object: it holds the credential store, the
// token cache and the operation queue, and implements the account
// provisioning and token flows.
type App struct {
	clientID string

	// Endpoints are initialized from the package constants; tests point
	// them at local servers.
	authEndpoint     string
	tokenEndpoint    string
	revokeEndpoint   string
	peopleEndpoint   string
	firebaseEndpoint string
	jwksEndpoint     string

	enrollTimeout time.Duration

	hc       *internal.HTTPClient
	clock    internal.Clock
	creds    *credstore.Store
	cache    *tokencache.Cache
	queue    *operation.Queue
	launcher webview.Launcher

	authContexts webview.AuthenticationContextProvider

	verifierOnce sync.Once
	verifier     *verify.Verifier
	verifierErr  error
}

// New creates an App and loads the credential store. The HTTP transport
// is built from the given client options; tests typically pass
// option.WithHTTPClient.
func New(ctx context.Context, conf *Config, opts ...option.ClientOption) (*App, error) {
	if conf == nil {
		conf = &Config{}
	}

	co := []option.ClientOption{option.WithoutAuthentication()}
	co = append(co, opts...)
	hc, _, err := transport.NewHTTPClient(ctx, co...)
	if err != nil {
		return nil, err
	}

	path := conf.CredentialsFile
	if path == "" {
		path = defaultCredentialsFile
	}
	store := credstore.NewStore(path)
	store.Load()

	clock := internal.SystemClock
	return &App{
		clientID:         clientID,
		authEndpoint:     googleOAuthAuthEndpoint,
		tokenEndpoint:    googleOAuthTokenEndpoint,
		revokeEndpoint:   googleRevokeTokenEndpoint,
		peopleEndpoint:   googlePeopleGetEndpoint,
		firebaseEndpoint: firebaseAuthEndpoint,
		jwksEndpoint:     verify.JWKSURL,
		enrollTimeout:    conf.EnrollTimeout,
		hc:               &internal.HTTPClient{Client: hc},
		clock:            clock,
		creds:            store,
		cache:            tokencache.New(clock),
		queue:            operation.NewQueue(),
		launcher:         conf.Launcher,
	}, nil
}

// Initialize hands the app the capability used to request overlay
// display during enrollment. It must be called before the first
// AddAccount for a non-guest provider.
func (a *App) Initialize(p webview.AuthenticationContextProvider) {
	a.authContexts = p
}

// Close stops the operation queue. In-flight operations finish; no new
// ones may be submitted.
func (a *App) Close() {
	a.queue.Close()
}

// AddAccount provisions a new account with the given identity provider.
// DEV accounts are guest-mode: they carry empty attributes, persist
// nothing, and later token requests yield empty tokens. GOOGLE accounts
// run the interactive authorization-code flow on the operation queue
// and persist the resulting refresh token.
//
// When only the follow-up profile fetch fails, the enrolled account is
// returned together with the error; errorutils.IsProfileUnavailable
// distinguishes that case from a failed enrollment.
func (a *App) AddAccount(ctx context.Context, idp IdentityProvider) (*Account, error) {
	id, err := generateAccountID()
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:               id,
		IdentityProvider: idp,
	}

	switch idp {
	case IdentityProviderDev:
		return account, nil
	case IdentityProviderGoogle:
		var enrollErr error
		a.queue.Run("GoogleUserCreds", func() {
			enrollErr = a.enroll(ctx, account)
		})
		if enrollErr != nil {
			return nil, enrollErr
		}

		var profileErr error
		a.queue.Run("GoogleProfileAttributes", func() {
			profileErr = a.fetchProfile(ctx, account)
		})
		if profileErr != nil {
			return account, &internal.ProfileError{Err: profileErr}
		}
		return account, nil
	default:
		return nil, internal.NewAuthError(internal.BadRequest, "unrecognized identity provider")
	}
}

// RemoveAccount destroys the account: its cached tokens are evicted and
// its refresh token removed from the store. With revokeAll the refresh
// token is additionally revoked on the identity provider, best-effort.
// Removing an unknown or guest account succeeds.
func (a *App) RemoveAccount(ctx context.Context, account *Account, revokeAll bool) error {
	var err error
	a.queue.Run("GoogleRevokeTokens", func() {
		err = a.revoke(ctx, account, revokeAll)
	})
	return err
}

// idTokenVerifier lazily builds the JWKS-backed verifier so flows that
// never verify tokens never fetch keys.
func (a *App) idTokenVerifier(ctx context.Context) (*verify.Verifier, error) {
	a.verifierOnce.Do(func() {
		a.verifier, a.verifierErr = verify.NewVerifier(ctx, a.clientID, a.jwksEndpoint)
	})
	return a.verifier, a.verifierErr
}
