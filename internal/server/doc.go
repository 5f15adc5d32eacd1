// Package server implements the MCP (Model Context Protocol) server for
// thermal hotspot detection.
//
// The server exposes the hotspot pipeline as JSON-RPC 2.0 tools so that
// MCP-compatible clients can analyze drone thermal imagery, tune the
// detection settings interactively and run folder batches.
//
// # Protocol
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
// Analysis:
//   - thermal_analyze: Hotspot regions, threshold and optional overlay preview
//   - thermal_process_folder: Batch a folder and return its report
//
// Configuration:
//   - thermal_get_config: Current detection settings
//   - thermal_update_config: Change settings for later calls
//   - thermal_palette: The false-color palette as hex strings
//   - thermal_cache_clear: Drop decoded images from the cache
//
// Tabular data:
//   - thermal_baseline: Rolling-baseline detector for CSV readings
//
// # Image Caching
//
// Decoded images are cached by path, so re-running thermal_analyze with
// different settings does not decode the file again. Batch runs bypass the
// cache. Use thermal_cache_clear after a file changes on disk.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Unknown keys passed to thermal_update_config are not errors; they are
// logged and listed as warnings in the result.
//
// # Usage
//
//	proc := pipeline.New(pipeline.DefaultConfig(), logger)
//	srv := server.New(proc, logger, version)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
