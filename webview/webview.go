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

// Package webview defines the contracts between the token manager and
// the embedded web surface used for interactive enrollment. The surface
// itself, the windowing host that presents it and the process that runs
// it are external collaborators; the enrollment flow only needs the
// operations below.
package webview

import "context"

// NavigationDelegate observes every outgoing navigation the surface is
// about to perform. The enrollment flow uses it to intercept the OAuth
// redirect before the surface follows it.
type NavigationDelegate func(url string)

// Surface is an embedded web view the enrollment flow drives through
// the authorization-code dialog.
type Surface interface {
	// ClearCookies drops existing session state so the user always sees
	// the provider's sign-in page.
	ClearCookies()

	// SetURL navigates the surface to the given URL.
	SetURL(url string)

	// SetDelegate registers the delegate that receives every outgoing
	// navigation URL. It must be set before SetURL.
	SetDelegate(d NavigationDelegate)
}

// Launcher starts the web surface subprocess and returns its surface
// handle.
type Launcher interface {
	Launch(ctx context.Context) (Surface, error)
}

// AuthenticationContext is the host-side capability that presents a
// surface to the user as an overlay.
type AuthenticationContext interface {
	// StartOverlay asks the host to display the surface.
	StartOverlay(s Surface)

	// StopOverlay tears the overlay down. Safe to call after the host
	// already disconnected.
	StopOverlay()

	// Disconnected is closed when the host tears the overlay down on
	// its own, for example when the user dismisses it. An enrollment in
	// flight completes as cancelled.
	Disconnected() <-chan struct{}
}

// AuthenticationContextProvider hands out a per-account authentication
// context. The token manager receives one at initialization.
type AuthenticationContextProvider interface {
	AuthenticationContext(accountID string) AuthenticationContext
}
