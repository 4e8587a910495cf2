// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragment

import "strings"

// TypeTag is the storage class of a type token.
type TypeTag uint8

const (
	TagUnknown TypeTag = iota
	TagBool
	TagInt
	TagUint
	TagFloat
	TagVector2
	TagVector3
	TagVector4
	TagMatrix
	TagSpline
	TagTexture
	TagSampler
)

// String returns the tag name used in layout tables.
func (t TypeTag) String() string {
	switch t {
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagUint:
		return "uint"
	case TagFloat:
		return "float"
	case TagVector2:
		return "vector2"
	case TagVector3:
		return "vector3"
	case TagVector4:
		return "vector4"
	case TagMatrix:
		return "matrix"
	case TagSpline:
		return "spline"
	case TagTexture:
		return "texture"
	case TagSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// IsResource reports whether values of the tag are bound as textures or
// samplers rather than packed into uniform storage.
func (t TypeTag) IsResource() bool {
	return t == TagTexture || t == TagSampler
}

// IsVector reports whether the tag is a 2 to 4 component vector.
func (t TypeTag) IsVector() bool {
	return t == TagVector2 || t == TagVector3 || t == TagVector4
}

// Components returns the number of 32-bit components of a scalar or vector.
func (t TypeTag) Components() int {
	switch t {
	case TagBool, TagInt, TagUint, TagFloat:
		return 1
	case TagVector2:
		return 2
	case TagVector3:
		return 3
	case TagVector4:
		return 4
	default:
		return 0
	}
}

// SplinePoints is the number of control points of a spline uniform.
const SplinePoints = 5

// ParseTypeTag classifies a type token such as "float3", "uint", "float4x4",
// "spline" or "Texture2D".
func ParseTypeTag(token string) TypeTag {
	t := strings.TrimSpace(token)
	lower := strings.ToLower(t)

	switch {
	case lower == "spline":
		return TagSpline
	case strings.HasPrefix(lower, "texture") || strings.HasPrefix(lower, "rwtexture"):
		return TagTexture
	case strings.HasPrefix(lower, "sampler"):
		return TagSampler
	}

	base, dims := splitScalar(lower)
	if base == "" {
		return TagUnknown
	}
	switch {
	case strings.Contains(dims, "x"):
		return TagMatrix
	case dims == "" || dims == "1":
		switch base {
		case "bool":
			return TagBool
		case "int":
			return TagInt
		case "uint":
			return TagUint
		default:
			return TagFloat
		}
	case dims == "2":
		return TagVector2
	case dims == "3":
		return TagVector3
	case dims == "4":
		return TagVector4
	default:
		return TagUnknown
	}
}

// ScalarBase returns the scalar base of a numeric type token: one of
// "bool", "int", "uint", "float", or "" when the token is not numeric.
func ScalarBase(token string) string {
	base, _ := splitScalar(strings.ToLower(strings.TrimSpace(token)))
	return base
}

// splitScalar splits "float4x4" into ("float", "4x4").
func splitScalar(token string) (base, dims string) {
	for _, b := range [...]string{"bool", "uint", "int", "float", "half"} {
		if rest, ok := strings.CutPrefix(token, b); ok {
			if b == "half" {
				b = "float"
			}
			return b, rest
		}
	}
	return "", ""
}
