// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragment

import "strings"

// PixelReturnSemantic is the portable pixel shader color output. Each
// dialect maps it to its native render target semantic in the preamble.
const PixelReturnSemantic = "PIXEL_RETURN_SEMANTIC"

// Fixed machine semantics without an index suffix.
var machineSemantics = map[string]struct{}{
	"POSITION":          {},
	"PSIZE":             {},
	"FOG":               {},
	"DEPTH":             {},
	"VFACE":             {},
	"VPOS":              {},
	PixelReturnSemantic: {},
}

// Machine semantics that accept a numeric index suffix, e.g. TEXCOORD3.
var indexedSemantics = []string{
	"COLOR",
	"TEXCOORD",
	"NORMAL",
	"TANGENT",
	"BINORMAL",
	"BLENDINDICES",
	"BLENDWEIGHT",
	"POSITION",
}

// IsMachineSemantic reports whether s names a hardware-recognized value
// rather than a stage-local one.
func IsMachineSemantic(s string) bool {
	if s == "" {
		return false
	}
	u := strings.ToUpper(s)
	if strings.HasPrefix(u, "SV_") {
		return true
	}
	if _, ok := machineSemantics[u]; ok {
		return true
	}
	for _, prefix := range indexedSemantics {
		if rest, ok := strings.CutPrefix(u, prefix); ok && isDigits(rest) {
			return true
		}
	}
	return false
}

// CanonicalSemantic returns the key under which a semantic is tracked.
// Machine semantics compare case-insensitively, SV_POSITION shares the
// POSITION slot across stages, and an indexed semantic without an index
// is slot 0, so TEXCOORD and TEXCOORD0 are one key.
func CanonicalSemantic(s string) string {
	if !IsMachineSemantic(s) {
		return s
	}
	u := strings.ToUpper(s)
	switch u {
	case "SV_POSITION", "POSITION0":
		return "POSITION"
	case "POSITION":
		return u
	case "SV_TARGET":
		return "SV_TARGET0"
	}
	for _, prefix := range indexedSemantics {
		if u == prefix {
			return u + "0"
		}
	}
	return u
}

// IsSystemValue reports whether the semantic is generated by the pipeline
// itself (SV_InstanceID, SV_DispatchThreadID, ...) and therefore never
// produced by an upstream stage.
func IsSystemValue(s string) bool {
	u := strings.ToUpper(s)
	return strings.HasPrefix(u, "SV_") && u != "SV_POSITION" && !strings.HasPrefix(u, "SV_TARGET")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
