// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

/*
Package fragfile reads fragments, declarations and effect graphs from HCL
definition files.

A file holds any number of blocks:

	declaration "Camera" {
	  body = "#define VIEW_PROJ view_proj"
	  uniform "view_proj" {
	    type = "float4x4"
	    rate = "pass"
	  }
	}

	fragment "Tint" {
	  includes = ["Camera"]
	  param "c" {
	    type = "float4"
	  }
	  param "tint" {
	    type = "float4"
	    kind = "uniform"
	    rate = "object"
	  }
	  param "r" {
	    type = "float4"
	    kind = "out"
	  }
	  body = "r = c * tint;"
	}

	graph "Tinted" {
	  macros = { FOG = true }
	  node "color" {
	    fragment = "ConstColor"
	  }
	  node "tint" {
	    fragment = "Tint"
	    input "c" {
	      from = "color"
	    }
	  }
	  roots = ["tint"]
	}

Parameter kinds default to "in" for fragments and "uniform" for
declarations; rates default to "pass". Graph nodes are added in block
order and may only read from nodes declared above them.
*/
package fragfile
