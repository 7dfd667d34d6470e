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

package internal

import (
	"fmt"
	"strings"
)

// EncodeForm percent-encodes a pre-formed request body. Alphanumerics
// and '-', '_', '.', '=', '&', '+' pass through unchanged so that a
// body already shaped as key=value pairs round-trips; every other byte
// becomes an uppercase %XX escape. Note this is not a general URL
// encoder: it must only be applied to bodies and query values, never to
// whole URLs.
func EncodeForm(value string) string {
	var escaped strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isFormByte(c) {
			escaped.WriteByte(c)
			continue
		}
		fmt.Fprintf(&escaped, "%%%02X", c)
	}
	return escaped.String()
}

func isFormByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '=' || c == '&' || c == '+':
		return true
	}
	return false
}
