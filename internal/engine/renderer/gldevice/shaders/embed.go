// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MeshVertexShader transforms, and optionally skins, every built-in program.
//
//go:embed mesh.vert
var MeshVertexShader string

// MeshFragmentShader shades with the surface, texture and light block.
//
//go:embed mesh.frag
var MeshFragmentShader string

// DepthVertexShader is the shadow pass vertex shader.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader writes depth only.
//
//go:embed depth.frag
var DepthFragmentShader string
