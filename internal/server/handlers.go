package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	"github.com/ironsheep/captcha-tools-mcp/internal/detection"
	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	"github.com/ironsheep/captcha-tools-mcp/internal/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/ocr"
	"github.com/ironsheep/captcha-tools-mcp/internal/slide"
	"github.com/ironsheep/captcha-tools-mcp/internal/solver"
)

// DefaultModel is used when a classify call names no model.
const DefaultModel = "beta"

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "captcha_classify", "captcha_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Pipeline failures carry their error code and details in the data field.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if s.debug {
		log.Printf("tool %s finished in %s (error: %v)", params.Name, time.Since(start), err)
	}
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", errorData(err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads image bytes from a path or inline base64
//  4. Calls the solver, slide, imaging or ocr function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "captcha_classify":
		return s.handleClassify(args)
	case "captcha_classify_probability":
		return s.handleClassifyProbability(args)
	case "captcha_classify_bbox":
		return s.handleClassifyBBox(args)
	case "captcha_charset_ranges":
		return s.handleCharsetRanges(args)

	// Detection
	case "captcha_detect":
		return s.handleDetect(args)

	// Slider
	case "captcha_slide_match":
		return s.handleSlideMatch(args)
	case "captcha_slide_compare":
		return s.handleSlideCompare(args)

	// Preprocessing
	case "captcha_color_filter":
		return s.handleColorFilter(args)
	case "captcha_edge_detect":
		return s.handleEdgeDetect(args)

	// Fallback OCR
	case "captcha_ocr_tesseract":
		return s.handleOCRTesseract(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

// errorData is the structured form of a CaptchaError, or the plain message.
func errorData(err error) interface{} {
	var ce *errors.CaptchaError
	if stderrors.As(err, &ce) {
		data := ce.ToMap()
		data["error"] = err.Error()
		return data
	}
	return err.Error()
}

func mustMarshalJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal result: %s"}`, err.Error())
	}
	return string(data)
}

// === Image Sources ===

// imageSource is the "path or image_base64" pair every single-image tool
// accepts.
type imageSource struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) loadSource(what string, path, b64 string) ([]byte, error) {
	switch {
	case path != "":
		return s.cache.Load(path)
	case b64 != "":
		return imaging.DecodeBase64(b64)
	default:
		return nil, fmt.Errorf("%s: path or image_base64 is required", what)
	}
}

func (s *Server) load(src imageSource) ([]byte, error) {
	return s.loadSource("image", src.Path, src.ImageBase64)
}

// pairSource names the two images of the slider tools.
type pairSource struct {
	TargetPath            string `json:"target_path"`
	TargetImageBase64     string `json:"target_image_base64"`
	BackgroundPath        string `json:"background_path"`
	BackgroundImageBase64 string `json:"background_image_base64"`
}

func (s *Server) loadPair(p pairSource) (target, background []byte, err error) {
	target, err = s.loadSource("target", p.TargetPath, p.TargetImageBase64)
	if err != nil {
		return nil, nil, err
	}
	background, err = s.loadSource("background", p.BackgroundPath, p.BackgroundImageBase64)
	if err != nil {
		return nil, nil, err
	}
	return target, background, nil
}

// === Recognition Handlers ===

func (s *Server) classifier(name string) (*solver.Classifier, error) {
	if name == "" {
		name = DefaultModel
	}
	c, ok := s.classifiers[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not configured (available: %v)", name, s.Models())
	}
	return c, nil
}

// filterArgs select an optional color filter. HSV ranges take precedence over
// color names.
type filterArgs struct {
	ColorFilter []string           `json:"color_filter"`
	HSVRanges   []imaging.HSVRange `json:"hsv_ranges"`
}

// filter returns nil when neither field is set.
func (a filterArgs) filter() (*imaging.ColorFilter, error) {
	switch {
	case len(a.HSVRanges) > 0:
		f := imaging.FilterFromRanges(a.HSVRanges)
		return &f, nil
	case len(a.ColorFilter) > 0:
		f, err := imaging.FilterFromNames(a.ColorFilter)
		if err != nil {
			return nil, err
		}
		return &f, nil
	}
	return nil, nil
}

// classifyArgs are the options shared by the classify tools.
type classifyArgs struct {
	imageSource
	filterArgs
	Model  string `json:"model"`
	PNGFix bool   `json:"png_fix"`
}

func (a classifyArgs) options() (solver.ClassifyOptions, error) {
	f, err := a.filter()
	if err != nil {
		return solver.ClassifyOptions{}, err
	}
	return solver.ClassifyOptions{PNGFix: a.PNGFix, Filter: f}, nil
}

type classifyResult struct {
	Model  string                    `json:"model"`
	Text   string                    `json:"text"`
	Source *imaging.DimensionsResult `json:"source"`
}

func (s *Server) handleClassify(args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := s.classifier(a.Model)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}

	dims, err := imaging.GetDimensions(data)
	if err != nil {
		return nil, err
	}

	text, err := c.Classify(context.Background(), data, opts)
	if err != nil {
		return nil, err
	}
	return &classifyResult{Model: modelName(a.Model), Text: text, Source: dims}, nil
}

type classifyProbabilityArgs struct {
	classifyArgs
	Range        string   `json:"range"`
	RangeSymbols []string `json:"range_symbols"`
}

// requestedRange picks an explicit symbol list over a range selector.
func requestedRange(selector string, symbols []string) *charset.Range {
	if len(symbols) > 0 {
		r := charset.ExplicitRange(symbols)
		return &r
	}
	if r, ok := charset.ParseRange(selector); ok {
		return &r
	}
	return nil
}

func (s *Server) handleClassifyProbability(args json.RawMessage) (interface{}, error) {
	var a classifyProbabilityArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := s.classifier(a.Model)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}

	return c.ClassifyProbability(context.Background(), data, solver.ProbabilityOptions{
		ClassifyOptions: opts,
		Range:           requestedRange(a.Range, a.RangeSymbols),
	})
}

type classifyBBoxArgs struct {
	classifyArgs
	BBoxes []detection.BBox `json:"bboxes"`
	// Detect runs the detector first when no boxes are given.
	Detect bool `json:"detect"`
}

type classifyBBoxResult struct {
	Model   string            `json:"model"`
	Count   int               `json:"count"`
	Results []solver.BBoxText `json:"results"`
}

func (s *Server) handleClassifyBBox(args json.RawMessage) (interface{}, error) {
	var a classifyBBoxArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := s.classifier(a.Model)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	boxes := a.BBoxes
	if len(boxes) == 0 && a.Detect {
		if s.detector == nil {
			return nil, fmt.Errorf("detector is not configured")
		}
		if boxes, err = s.detector.Detect(ctx, data); err != nil {
			return nil, err
		}
	}

	results, err := c.ClassifyBBoxes(ctx, data, boxes, opts)
	if err != nil {
		return nil, err
	}
	return &classifyBBoxResult{Model: modelName(a.Model), Count: len(results), Results: results}, nil
}

type charsetRangesArgs struct {
	Model string `json:"model"`
	Range string `json:"range"`
	// Set stores the range as the model's default probability range.
	Set bool `json:"set"`
	// Clear drops the model's default probability range.
	Clear bool `json:"clear"`
}

type charsetRangesResult struct {
	Range   string   `json:"range,omitempty"`
	Model   string   `json:"model,omitempty"`
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

func (s *Server) handleCharsetRanges(args json.RawMessage) (interface{}, error) {
	var a charsetRangesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var c *solver.Classifier
	if a.Model != "" || a.Set || a.Clear {
		var err error
		if c, err = s.classifier(a.Model); err != nil {
			return nil, err
		}
	}

	if a.Clear {
		c.ClearRanges()
		return &charsetRangesResult{Model: modelName(a.Model), Symbols: []string{}}, nil
	}

	r, ok := charset.ParseRange(a.Range)
	if !ok {
		if c == nil {
			return nil, fmt.Errorf("range is required")
		}
		// No selector: report the model's current default.
		symbols := c.Ranges()
		if symbols == nil {
			symbols = []string{}
		}
		return &charsetRangesResult{Model: modelName(a.Model), Symbols: symbols, Count: len(symbols)}, nil
	}

	var symbols []string
	var err error
	switch {
	case c == nil:
		symbols, err = charset.Resolve(r, nil)
	case a.Set:
		if err = c.SetRanges(r); err == nil {
			symbols = c.Ranges()
		}
	default:
		symbols, err = c.CalcRanges(r)
	}
	if err != nil {
		return nil, err
	}

	result := &charsetRangesResult{Range: r.Kind.String(), Symbols: symbols, Count: len(symbols)}
	if c != nil {
		result.Model = modelName(a.Model)
	}
	return result, nil
}

// === Detection Handlers ===

type detectArgs struct {
	imageSource
	// Annotate returns the input with the boxes drawn on it.
	Annotate bool   `json:"annotate"`
	BoxColor string `json:"box_color"`
}

type detectResult struct {
	Count     int                    `json:"count"`
	BBoxes    []detection.BBox       `json:"bboxes"`
	Annotated *imaging.OverlayResult `json:"annotated,omitempty"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.detector == nil {
		return nil, fmt.Errorf("detector is not configured")
	}
	if a.BoxColor == "" {
		a.BoxColor = "#FF0000"
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	boxes, err := s.detector.DetectImage(context.Background(), img)
	if err != nil {
		return nil, err
	}
	if boxes == nil {
		boxes = []detection.BBox{}
	}

	result := &detectResult{Count: len(boxes), BBoxes: boxes}
	if a.Annotate {
		overlay, err := imaging.DrawBoxes(img, detection.Rects(boxes), true, a.BoxColor)
		if err != nil {
			return nil, err
		}
		result.Annotated = overlay
	}
	return result, nil
}

// === Slider Handlers ===

type slideMatchArgs struct {
	pairSource
	// Simple skips transparent-margin cropping of the target.
	Simple bool `json:"simple"`
}

func (s *Server) handleSlideMatch(args json.RawMessage) (interface{}, error) {
	var a slideMatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	target, background, err := s.loadPair(a.pairSource)
	if err != nil {
		return nil, err
	}
	if a.Simple {
		return slide.SimpleMatch(target, background)
	}
	return slide.Match(target, background)
}

type slideCompareResult struct {
	Point slide.Point `json:"point"`
	X     uint32      `json:"x"`
	Y     uint32      `json:"y"`
}

func (s *Server) handleSlideCompare(args json.RawMessage) (interface{}, error) {
	var a pairSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	target, background, err := s.loadPair(a)
	if err != nil {
		return nil, err
	}
	p, err := slide.Compare(target, background)
	if err != nil {
		return nil, err
	}
	return &slideCompareResult{Point: p, X: p.X, Y: p.Y}, nil
}

// === Preprocessing Handlers ===

type colorFilterArgs struct {
	imageSource
	Colors    []string           `json:"colors"`
	HSVRanges []imaging.HSVRange `json:"hsv_ranges"`
}

func (s *Server) handleColorFilter(args json.RawMessage) (interface{}, error) {
	var a colorFilterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var filter imaging.ColorFilter
	switch {
	case len(a.HSVRanges) > 0:
		filter = imaging.FilterFromRanges(a.HSVRanges)
	case len(a.Colors) > 0:
		f, err := imaging.FilterFromNames(a.Colors)
		if err != nil {
			return nil, err
		}
		filter = f
	default:
		return nil, fmt.Errorf("colors or hsv_ranges is required")
	}

	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	filtered, err := filter.ApplyBytes(data)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(filtered)
}

type edgeDetectArgs struct {
	imageSource
	ThresholdLow  int `json:"threshold_low"`
	ThresholdHigh int `json:"threshold_high"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = slide.CannyLow
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = slide.CannyHigh
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}

// === OCR Handlers ===

type ocrTesseractArgs struct {
	imageSource
	filterArgs
	Language  string `json:"language"`
	Whitelist string `json:"whitelist"`
	// Range builds the whitelist from a charset range selector.
	Range string `json:"range"`
	// WhitelistModel restricts output to a configured model's symbols, or
	// resolves Range against them.
	WhitelistModel string `json:"whitelist_model"`
}

// whitelist derives the Tesseract whitelist when none is given verbatim.
func (s *Server) whitelist(a ocrTesseractArgs) (string, error) {
	if a.Whitelist != "" {
		return a.Whitelist, nil
	}

	var c *solver.Classifier
	if a.WhitelistModel != "" {
		var err error
		if c, err = s.classifier(a.WhitelistModel); err != nil {
			return "", err
		}
	}

	r, ok := charset.ParseRange(a.Range)
	switch {
	case ok && c != nil:
		symbols, err := c.CalcRanges(r)
		if err != nil {
			return "", err
		}
		return ocr.Whitelist(symbols), nil
	case ok:
		symbols, err := charset.Resolve(r, nil)
		if err != nil {
			return "", err
		}
		return ocr.Whitelist(symbols), nil
	case c != nil:
		return ocr.Whitelist(c.Charset().Charset), nil
	}
	return "", nil
}

func (s *Server) handleOCRTesseract(args json.RawMessage) (interface{}, error) {
	var a ocrTesseractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = ocr.DefaultLanguage
	}
	whitelist, err := s.whitelist(a)
	if err != nil {
		return nil, err
	}
	data, err := s.ocrInput(a)
	if err != nil {
		return nil, err
	}
	return ocr.Recognize(data, ocr.Options{Language: a.Language, Whitelist: whitelist})
}

// ocrInput loads the image and, when a filter is requested, re-encodes the
// filtered pixels as PNG for Tesseract.
func (s *Server) ocrInput(a ocrTesseractArgs) ([]byte, error) {
	f, err := a.filter()
	if err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return data, nil
	}
	filtered, err := f.ApplyBytes(data)
	if err != nil {
		return nil, err
	}
	return imaging.PNGBytes(filtered)
}

func modelName(name string) string {
	if name == "" {
		return DefaultModel
	}
	return name
}
