/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"

	"biosvideo/internal/config"
)

// ReadInput loads the markup file named by in and returns it as UTF-8 with
// surrounding whitespace trimmed. in.Encoding is a WHATWG label such as
// "utf-8" or "windows-1252"; older files often carry the § escape as the
// single Latin-1 byte 0xA7. The text is otherwise kept as written unless
// in.NFC is set.
func ReadInput(in config.InputConfig) (string, error) {
	raw, err := os.ReadFile(in.Path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return DecodeInput(raw, in.Encoding, in.NFC)
}

// DecodeInput is ReadInput without the file access.
func DecodeInput(raw []byte, encoding string, nfc bool) (string, error) {
	if strings.TrimSpace(encoding) == "" {
		encoding = "utf-8"
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return "", fmt.Errorf("input encoding %q: %w", encoding, err)
	}
	text, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode input as %s: %w", encoding, err)
	}
	s := string(text)
	if nfc {
		// Composing changes how many Char tokens, and so frames, a
		// decomposed sequence produces.
		s = norm.NFC.String(s)
	}
	return strings.TrimSpace(s), nil
}
