// Package server implements the MCP (Model Context Protocol) server for
// size-targeted image compression.
//
// This package provides a JSON-RPC 2.0 server that exposes the compression
// engine through the MCP protocol, so any MCP-compatible plugin host can
// invoke it synchronously and stream back per-image results.
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
//   - compress_image: compress an ordered batch of image sources toward a
//     target byte size; returns per image either an informational message
//     or the compressed payload plus {filename, mime_type, size} metadata
//   - image_info: decode one source and report format, dimensions, alpha
//     presence, and byte size
//
// # Batch Semantics
//
// The compress_image response preserves input order. Each image runs inside
// an isolated failure boundary: an unsupported MIME type, a failed download,
// or an encoding error produces an informational message for that image and
// the batch continues. Only a missing or empty batch aborts as a whole.
//
// # Error Handling
//
// Protocol-level problems are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Per-image failures are never protocol errors; they are part of the
// ordered result stream.
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(config.Load())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
