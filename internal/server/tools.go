package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageProperties are the two ways every single-image tool receives its input.
func imageProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image bytes, used when path is empty. A data: URL prefix is accepted.",
		},
	}
}

// pairProperties describe the slider piece and its background.
func pairProperties() map[string]interface{} {
	return map[string]interface{}{
		"target_path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the slider piece image",
		},
		"target_image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded slider piece, used when target_path is empty",
		},
		"background_path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the background image",
		},
		"background_image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded background, used when background_path is empty",
		},
	}
}

// classifyProperties adds the recognition switches to the image inputs.
func classifyProperties() map[string]interface{} {
	props := imageProperties()
	props["model"] = map[string]interface{}{
		"type":        "string",
		"description": "Recognition model: beta (default), old, or diy for the custom model",
		"enum":        []string{"beta", "old", "diy"},
		"default":     DefaultModel,
	}
	props["png_fix"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Paint fully transparent pixels white before recognition (three-channel models only)",
		"default":     false,
	}
	props["color_filter"] = map[string]interface{}{
		"type":        "array",
		"description": "Keep only pixels of these named colors before recognition",
		"items": map[string]interface{}{
			"type": "string",
			"enum": []string{"red", "blue", "green", "yellow", "orange", "purple", "cyan", "black", "white", "gray"},
		},
	}
	props["hsv_ranges"] = hsvRangesProperty()
	return props
}

func hsvRangesProperty() map[string]interface{} {
	hsv := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"h": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 180},
			"s": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 255},
			"v": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 255},
		},
	}
	return map[string]interface{}{
		"type":        "array",
		"description": "Inclusive HSV boxes (OpenCV scale: hue 0-180). Takes precedence over color names.",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"min": hsv,
				"max": hsv,
			},
			"required": []string{"min", "max"},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	probability := classifyProperties()
	probability["range"] = map[string]interface{}{
		"type":        "string",
		"description": "Charset range: a single digit 0-7 selects a built-in set (0 digits, 1 lowercase, 2 uppercase, 3 lower+upper, 4 lower+digits, 5 upper+digits, 6 all alphanumerics, 7 model symbols outside a-z A-Z 0-9); any other text lists the allowed characters",
	}
	probability["range_symbols"] = map[string]interface{}{
		"type":        "array",
		"description": "Exact symbol list to report, in order. Overrides range.",
		"items":       map[string]interface{}{"type": "string"},
	}

	bbox := classifyProperties()
	bbox["bboxes"] = map[string]interface{}{
		"type":        "array",
		"description": "Regions to recognize as inclusive [x1, y1, x2, y2] pixel boxes",
		"items": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "integer", "minimum": 0},
			"minItems": 4,
			"maxItems": 4,
		},
	}
	bbox["detect"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Run captcha_detect first when bboxes is empty",
		"default":     false,
	}

	detect := imageProperties()
	detect["annotate"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also return the image with the boxes drawn and numbered",
		"default":     false,
	}
	detect["box_color"] = map[string]interface{}{
		"type":        "string",
		"description": "Box color as hex (#RRGGBB or #RRGGBBAA)",
		"default":     "#FF0000",
	}

	slide := pairProperties()
	slide["simple"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Match the piece as-is instead of cropping its transparent margin first",
		"default":     false,
	}

	filter := imageProperties()
	filter["colors"] = map[string]interface{}{
		"type":        "array",
		"description": "Named colors to keep",
		"items":       map[string]interface{}{"type": "string"},
	}
	filter["hsv_ranges"] = hsvRangesProperty()

	edge := imageProperties()
	edge["threshold_low"] = map[string]interface{}{
		"type":        "integer",
		"description": "Canny low threshold",
		"default":     100,
	}
	edge["threshold_high"] = map[string]interface{}{
		"type":        "integer",
		"description": "Canny high threshold",
		"default":     200,
	}

	ocrProps := imageProperties()
	ocrProps["language"] = map[string]interface{}{
		"type":        "string",
		"description": "Tesseract language code",
		"default":     "eng",
	}
	ocrProps["whitelist"] = map[string]interface{}{
		"type":        "string",
		"description": "Characters Tesseract may output",
	}
	ocrProps["range"] = map[string]interface{}{
		"type":        "string",
		"description": "Build the whitelist from a charset range selector (same syntax as captcha_charset_ranges)",
	}
	ocrProps["whitelist_model"] = map[string]interface{}{
		"type":        "string",
		"description": "Use the single-character symbols of this model as the whitelist, or resolve range against them",
	}
	ocrProps["color_filter"] = classifyProperties()["color_filter"]
	ocrProps["hsv_ranges"] = hsvRangesProperty()

	return []Tool{
		// Recognition
		{
			Name:        "captcha_classify",
			Description: "Recognize the text of a captcha image with an ONNX model. Returns the decoded string.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": classifyProperties(),
			},
		},
		{
			Name:        "captcha_classify_probability",
			Description: "Recognize a captcha and return per-position softmax probabilities over the charset, optionally restricted to a range. Official models only.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": probability,
			},
		},
		{
			Name:        "captcha_classify_bbox",
			Description: "Crop each bounding box out of the image and recognize it. Pair with captcha_detect for click captchas.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": bbox,
			},
		},
		{
			Name:        "captcha_charset_ranges",
			Description: "Expand a charset range selector into its symbol list. With a model, can also set or clear that model's default probability range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"model": map[string]interface{}{
						"type":        "string",
						"description": "Model whose symbols resolve range 7 and whose default range is set or cleared",
					},
					"range": probability["range"],
					"set": map[string]interface{}{
						"type":        "boolean",
						"description": "Store the range as the model's default for probability calls",
						"default":     false,
					},
					"clear": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop the model's default range",
						"default":     false,
					},
				},
			},
		},

		// Detection
		{
			Name:        "captcha_detect",
			Description: "Locate characters or icons in a click captcha. Returns inclusive [x1, y1, x2, y2] boxes in source pixel coordinates.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detect,
			},
		},

		// Slider
		{
			Name:        "captcha_slide_match",
			Description: "Find where a slider piece fits in its background by edge template matching. Returns the matched box and the target's top-left offset.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": slide,
			},
		},
		{
			Name:        "captcha_slide_compare",
			Description: "Locate the gap by diffing a background with the gap against the same background without it. Both images must have equal size.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pairProperties(),
			},
		},

		// Preprocessing
		{
			Name:        "captcha_color_filter",
			Description: "Keep only pixels within named colors or HSV boxes, paint the rest white, and return the result as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": filter,
			},
		},
		{
			Name:        "captcha_edge_detect",
			Description: "Run Canny edge detection and return the binary edge map as base64 PNG. Shows what captcha_slide_match compares.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": edge,
			},
		},

		// Fallback OCR
		{
			Name:        "captcha_ocr_tesseract",
			Description: "Read a single text line with Tesseract. Useful when no model fits the captcha style.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": ocrProps,
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
