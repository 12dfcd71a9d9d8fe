// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package codec implements the TSP wire envelope: a stream of
// self-delimiting, selector-prefixed fields ("CESR-like" framing).
package codec

import "errors"

var (
	ErrMalformedSelector = errors.New("codec: malformed selector")
	ErrTruncated         = errors.New("codec: truncated field")
	ErrUnknownVersion    = errors.New("codec: unknown version")
	ErrUnknownSelector   = errors.New("codec: unknown selector")
	ErrUnknownPayload    = errors.New("codec: unknown payload type")
	ErrTrailingBytes     = errors.New("codec: trailing bytes after signature")
	ErrMissingSignature  = errors.New("codec: missing or malformed signature")
	ErrInvalidSchemeCombo = errors.New("codec: invalid scheme combination")
	ErrOversizeField     = errors.New("codec: field exceeds maximum size")
)
