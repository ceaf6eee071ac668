// go-k0risp
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-k0risp.
//
// go-k0risp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-k0risp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-k0risp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package detection

import (
	"fmt"
	"path"
	"strings"
)

// DefaultBlocklist returns USB devices that expose a serial port but are
// never wired to a target, e.g. modems. Format: VID:PID in hexadecimal
// (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		// Add adapters that misbehave with DTR/RTS reset wiring here
	}
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = normalizeVIDPID(vidpid)
	if vidpid == "" {
		return false
	}

	for _, blocked := range blocklist {
		if normalizeVIDPID(blocked) == vidpid {
			return true
		}
	}
	return false
}

// FormatVIDPID joins separate vendor and product ids as VID:PID, or returns
// an empty string if either is missing
func FormatVIDPID(vid, pid string) string {
	vid = strings.TrimSpace(vid)
	pid = strings.TrimSpace(pid)
	if !isHex(vid) || !isHex(pid) {
		return ""
	}
	return strings.ToUpper(vid + ":" + pid)
}

// ValidateBlocklist checks that every entry has the VID:PID form
func ValidateBlocklist(blocklist []string) error {
	for _, entry := range blocklist {
		if normalizeVIDPID(entry) == "" {
			return fmt.Errorf("invalid blocklist entry %q, want VID:PID", entry)
		}
	}
	return nil
}

func normalizeVIDPID(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return ""
	}
	return FormatVIDPID(parts[0], parts[1])
}

// isHex checks if a string contains only hexadecimal characters.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// IsPathIgnored reports whether devicePath names one of ignorePaths.
// Windows COM names match without regard to case or the \\.\ prefix, and
// a macOS callout device (/dev/cu.*) matches its dial-in twin (/dev/tty.*).
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	key := portKey(devicePath)
	if key == "" {
		return false
	}

	for _, ignored := range ignorePaths {
		if k := portKey(ignored); k != "" && k == key {
			return true
		}
	}
	return false
}

// portKey reduces a port name to the form used for comparisons
func portKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.TrimPrefix(name, `\\.\`)
	if strings.HasPrefix(name, "/") {
		name = path.Clean(name)
	}
	name = strings.ToLower(name)

	if rest, ok := strings.CutPrefix(name, "/dev/cu."); ok {
		name = "/dev/tty." + rest
	}
	return name
}
