package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "compress_image",
			Description: "Compress one or more images so each encoded output lands at or near a target byte size. Returns, per input image and in input order, either an informational message or the compressed file with metadata. A failure on one image never aborts the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"images": map[string]interface{}{
						"type":        "array",
						"items":       imageSourceSchema(),
						"description": "Ordered batch of image sources",
					},
					"target_size_mb": map[string]interface{}{
						"type":        "number",
						"description": "Target size in mebibytes. Zero or negative means no target: a single high-fidelity normalizing pass",
						"default":     0,
					},
					"host_url": map[string]interface{}{
						"type":        "string",
						"description": "Base URL for resolving relative image urls",
					},
				},
				"required": []string{"images"},
			},
		},
		{
			Name:        "image_info",
			Description: "Decode a single image source and return its format, pixel dimensions, alpha presence, and encoded byte size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageSourceSchema(),
					"host_url": map[string]interface{}{
						"type":        "string",
						"description": "Base URL for resolving a relative image url",
					},
				},
				"required": []string{"image"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// imageSourceSchema describes one image source: either a reference (url +
// mime_type) or inline base64 bytes.
func imageSourceSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Image location: absolute http(s) URL, or a path resolved against host_url",
			},
			"data": map[string]interface{}{
				"type":        "string",
				"description": "Raw image bytes, base64-encoded. Alternative to url",
			},
			"mime_type": map[string]interface{}{
				"type":        "string",
				"description": "Declared MIME type (image/jpeg, image/png, image/gif, image/webp, image/bmp)",
			},
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "Original filename, echoed back in result metadata when present",
			},
		},
	}
}
