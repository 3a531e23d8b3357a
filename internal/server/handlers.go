package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sizewise/compress-mcp/internal/compress"
	"github.com/sizewise/compress-mcp/internal/fetch"
	"github.com/sizewise/compress-mcp/pkg/metrics"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "compress_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool output in MCP's content format: an ordered
// list of text entries (informational messages, result metadata) and image
// entries (base64 payloads). Tool execution errors return a JSON-RPC error
// response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	content, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) ([]ContentItem, error) {
	switch name {
	case "compress_image":
		return s.handleCompressImage(args)
	case "image_info":
		return s.handleImageInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// imageSource is one entry of a compress_image batch: either a reference
// (url + declared MIME type) or inline base64 bytes.
type imageSource struct {
	URL      string `json:"url"`
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

type compressImageArgs struct {
	// Images stays raw so a wrong-shaped value is a validation message,
	// not a protocol error.
	Images       json.RawMessage `json:"images"`
	TargetSizeMB float64         `json:"target_size_mb"`
	HostURL      string          `json:"host_url"`
}

// resultMeta is the metadata text entry emitted after each binary result.
type resultMeta struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	Compressed bool   `json:"compressed"`
	Source     string `json:"source_filename,omitempty"`
}

// handleCompressImage runs the size-targeted compressor over an ordered
// batch. Each image is processed inside its own failure boundary: a
// validation, fetch, or encoding problem yields an informational message
// for that image and the batch continues. Only a missing batch aborts.
func (s *Server) handleCompressImage(args json.RawMessage) ([]ContentItem, error) {
	var a compressImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid compress_image arguments: %w", err)
	}

	var images []imageSource
	if len(a.Images) > 0 && string(a.Images) != "null" {
		if err := json.Unmarshal(a.Images, &images); err != nil {
			return []ContentItem{infoMessage("expected a list of image files")}, nil
		}
	}
	if len(images) == 0 {
		return []ContentItem{infoMessage("no image files provided")}, nil
	}

	targetBytes := int64(a.TargetSizeMB * 1024 * 1024)

	var content []ContentItem
	for _, src := range images {
		payload, skip := s.loadSource(src, a.HostURL)
		if skip != nil {
			metrics.RecordSkip()
			content = append(content, *skip)
			continue
		}

		start := time.Now()
		result, err := compressOne(payload, targetBytes)
		if err != nil {
			log.Printf("compression failed for %q: %v", src.Filename, err)
			metrics.RecordCompression("error", "", time.Since(start).Seconds(), len(payload), 0)
			content = append(content, infoMessage(fmt.Sprintf("failed to compress image: %v", err)))
			continue
		}

		status := "success"
		if !result.Compressed {
			status = "passthrough"
		}
		metrics.RecordCompression(status, result.Format.Ext(),
			time.Since(start).Seconds(), len(payload), len(result.Bytes))

		meta := resultMeta{
			Filename:   result.Filename,
			MimeType:   result.Format.MimeType(),
			Size:       result.Size,
			Compressed: result.Compressed,
			Source:     src.Filename,
		}
		content = append(content,
			ContentItem{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(result.Bytes),
				MimeType: result.Format.MimeType(),
			},
			ContentItem{Type: "text", Text: marshalJSON(meta)},
		)
	}

	return content, nil
}

// compressOne decodes one payload and runs the per-image orchestration.
func compressOne(payload []byte, targetBytes int64) (*compress.Result, error) {
	src, err := compress.Decode(payload)
	if err != nil {
		return nil, err
	}
	return compress.Process(compress.Request{
		Source:      src,
		TargetBytes: targetBytes,
	})
}

// loadSource resolves one image source into raw bytes. A non-nil skip
// message means the image must be reported and skipped, not processed.
func (s *Server) loadSource(src imageSource, hostURL string) ([]byte, *ContentItem) {
	switch {
	case src.Data != "":
		payload, err := base64.StdEncoding.DecodeString(src.Data)
		if err != nil {
			msg := infoMessage(fmt.Sprintf("invalid base64 image data: %v", err))
			return nil, &msg
		}
		return payload, nil

	case src.URL != "":
		if !fetch.Allowed(src.MimeType) {
			msg := infoMessage(fmt.Sprintf("unsupported file type: %s", src.MimeType))
			return nil, &msg
		}

		url, err := fetch.ResolveURL(src.URL, hostURL)
		if err != nil {
			msg := infoMessage(fmt.Sprintf("failed to download image: %v", err))
			return nil, &msg
		}

		payload, err := s.fetcher.Get(context.Background(), url)
		metrics.RecordFetch(err)
		if err != nil {
			msg := infoMessage(fmt.Sprintf("failed to download image: %v", err))
			return nil, &msg
		}

		// The declared type can lie; sniff the payload before decoding.
		if sniffed := fetch.Sniff(payload); !fetch.Allowed(sniffed) {
			msg := infoMessage(fmt.Sprintf("unsupported file type: %s", sniffed))
			return nil, &msg
		}
		return payload, nil

	default:
		msg := infoMessage("unsupported image source: neither url nor data given")
		return nil, &msg
	}
}

type imageInfoArgs struct {
	Image   imageSource `json:"image"`
	HostURL string      `json:"host_url"`
}

// imageInfoResult describes one decoded source.
type imageInfoResult struct {
	Format    string `json:"format"`
	MimeType  string `json:"mime_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	HasAlpha  bool   `json:"has_alpha"`
	SizeBytes int64  `json:"size_bytes"`
}

func (s *Server) handleImageInfo(args json.RawMessage) ([]ContentItem, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid image_info arguments: %w", err)
	}

	payload, skip := s.loadSource(a.Image, a.HostURL)
	if skip != nil {
		return []ContentItem{*skip}, nil
	}

	src, err := compress.Decode(payload)
	if err != nil {
		return []ContentItem{infoMessage(fmt.Sprintf("failed to decode image: %v", err))}, nil
	}

	info := imageInfoResult{
		Format:    src.Format.Ext(),
		MimeType:  src.Format.MimeType(),
		Width:     src.Width,
		Height:    src.Height,
		HasAlpha:  src.HasAlpha,
		SizeBytes: int64(len(payload)),
	}
	return []ContentItem{{Type: "text", Text: marshalJSON(info)}}, nil
}

// infoMessage wraps an informational per-image message in a text entry.
func infoMessage(text string) ContentItem {
	return ContentItem{Type: "text", Text: marshalJSON(map[string]string{"result": text})}
}

// marshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func marshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
