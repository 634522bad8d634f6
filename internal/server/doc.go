// Package server implements the MCP (Model Context Protocol) server for color
// replacement.
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Colors:
//   - color_parse: Validate and normalize a color spec
//   - color_distance: Perceptual distance between two colors
//   - color_presets: List named rule sets
//
// Source Images:
//   - image_load, image_dimensions: Metadata
//   - image_sample_color, image_sample_colors_multi: Eyedropper
//   - image_dominant_colors: Palette extraction
//
// Workspace:
//   - workspace_add_image, workspace_remove_image: Edit the image set
//   - workspace_set_rules: Replace the rule set, or apply a preset
//   - workspace_status: Rules and per-image processing state
//   - workspace_preview: Scaled PNG of one processed image
//   - workspace_export: PNG for one image, zip archive for several
//   - workspace_reset: Clear images and restore the default rule
//
// Every change to the workspace reprocesses all images in the background.
// Tools that read outputs (preview, export, status with wait) block until the
// latest processing has settled or their timeout elapses.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
