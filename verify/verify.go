// Copyright 2019 Google Inc. All Rights Reserved.
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

// Package verify validates Google ID tokens against Google's published
// JWKS.
package verify

import (
	"context"
	"errors"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// JWKSURL is the URL of the JWKS used to verify Google ID tokens.
const JWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

const (
	googleIssuer      = "accounts.google.com"
	googleIssuerHTTPS = "https://accounts.google.com"
)

var (
	// ErrIncorrectAlgorithm is returned when the token is signed with a non-RS256 algorithm.
	ErrIncorrectAlgorithm = errors.New("token has incorrect algorithm")
	// ErrTokenClaims is returned when the token claims cannot be decoded.
	ErrTokenClaims = errors.New("token has incorrect claims")
	// ErrTokenAudience is returned when the token audience does not match the client id.
	ErrTokenAudience = errors.New("token has incorrect audience")
	// ErrTokenIssuer is returned when the token issuer is not Google's OAuth service.
	ErrTokenIssuer = errors.New("token has incorrect issuer")
	// ErrTokenSubject is returned when the token subject is empty or missing.
	ErrTokenSubject = errors.New("token has empty or missing subject")
)

// Token represents a verified Google ID token.
type Token struct {
	Iss   string
	Sub   string
	Aud   []string
	Exp   time.Time
	Iat   time.Time
	Email string
}

// Verifier checks ID-token signatures and claims for one OAuth client.
type Verifier struct {
	clientID string
	jwks     *keyfunc.JWKS
}

// NewVerifier fetches the JWKS at jwksURL and returns a verifier bound
// to the given client id. The JWKS is cached by the keyfunc layer.
func NewVerifier(ctx context.Context, clientID, jwksURL string) (*Verifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx: ctx,
	})
	if err != nil {
		return nil, err
	}

	return &Verifier{
		clientID: clientID,
		jwks:     jwks,
	}, nil
}

// VerifyToken verifies the given ID token.
//
// VerifyToken considers an ID token string to be valid if all the following conditions are met:
//   - The token string is a valid RS256 JWT.
//   - The JWT is not expired, and it has been issued some time in the past.
//   - The JWT carries Google's issuer and this client's audience.
//   - The JWT has a non-empty subject.
//   - The JWT is signed by a key in Google's published JWKS.
func (v *Verifier) VerifyToken(token string) (*Token, error) {
	// The standard JWT parser also validates the expiration of the token
	// so we do not need dedicated code for that.
	decoded, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Header["alg"] != "RS256" {
			return nil, ErrIncorrectAlgorithm
		}
		return v.jwks.Keyfunc(t)
	})
	if err != nil {
		return nil, err
	}

	claims, ok := decoded.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenClaims
	}

	aud := audienceList(claims["aud"])
	if !contains(aud, v.clientID) {
		return nil, ErrTokenAudience
	}

	iss, _ := claims["iss"].(string)
	if iss != googleIssuer && iss != googleIssuerHTTPS {
		return nil, ErrTokenIssuer
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrTokenSubject
	}

	email, _ := claims["email"].(string)
	out := &Token{
		Iss:   iss,
		Sub:   sub,
		Aud:   aud,
		Email: email,
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.Exp = time.Unix(int64(exp), 0)
	}
	if iat, ok := claims["iat"].(float64); ok {
		out.Iat = time.Unix(int64(iat), 0)
	}
	return out, nil
}

// audienceList normalizes the aud claim, which Google issues as a
// single string but the JWT spec also allows as an array.
func audienceList(aud interface{}) []string {
	switch v := aud.(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func contains(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}
