package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	"github.com/ironsheep/captcha-tools-mcp/internal/detection"
	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/solver"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

var testSymbols = []string{"", "a", "b", "c", "1", "+"}

// fixedText returns a runner whose row t peaks at dominant[t].
func fixedText(dominant []int) model.RunnerFunc {
	return func(in tensor.Tensor) ([]tensor.Output, error) {
		classes := len(testSymbols)
		data := make([]float32, len(dominant)*classes)
		for r, d := range dominant {
			data[r*classes+d] = 5
		}
		out, err := tensor.NewFloatOutput([]int64{int64(len(dominant)), 1, int64(classes)}, data)
		return []tensor.Output{out}, err
	}
}

func testPool(t *testing.T, run model.RunnerFunc) *model.Pool {
	t.Helper()
	pool, err := model.NewPool(1, func() (model.Runner, error) { return run, nil })
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func testClassifierKind(t *testing.T, kind model.Kind, run model.RunnerFunc) *solver.Classifier {
	t.Helper()
	cfg, err := charset.New(false, -1, 16, 1, testSymbols)
	if err != nil {
		t.Fatalf("charset.New failed: %v", err)
	}
	return solver.NewClassifier(testPool(t, run), cfg, kind)
}

func testClassifier(t *testing.T, run model.RunnerFunc) *solver.Classifier {
	return testClassifierKind(t, model.Official, run)
}

// testDetector reports a single box at (80,40)-(88,48) in letterbox space.
func testDetector(t *testing.T) *solver.Detector {
	t.Helper()
	geom := detection.DefaultGeometry()
	return solver.NewDetector(testPool(t, func(tensor.Tensor) ([]tensor.Output, error) {
		data := make([]float32, geom.Len()*6)
		copy(data[(5*52+10)*6:], []float32{0.5, 0.5, 0, 0, 1, 1})
		out, err := tensor.NewFloatOutput([]int64{1, int64(geom.Len()), 6}, data)
		return []tensor.Output{out}, err
	}))
}

func createTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImageFile writes img as PNG in a per-test directory and returns its path
func createTestImageFile(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, encodePNG(t, img), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the decoded result text.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("result is not a JSON object: %v", err)
	}
	return decoded, nil
}

func errorCode(e *MCPError) string {
	data, ok := e.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := data["error_code"].(string)
	return code
}

func TestHandleToolsCall_Classify(t *testing.T) {
	s := New(WithClassifier("beta", testClassifier(t, fixedText([]int{1, 1, 0, 2, 4}))))
	imgPath := createTestImageFile(t, "captcha.png", createTestImage(64, 32, color.White))

	result, mcpErr := callTool(t, s, "captcha_classify", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["text"] != "ab1" {
		t.Errorf("text: got %v, want ab1", result["text"])
	}
	if result["model"] != "beta" {
		t.Errorf("model: got %v, want beta", result["model"])
	}
	source, _ := result["source"].(map[string]interface{})
	if source["width"] != float64(64) || source["height"] != float64(32) {
		t.Errorf("source: got %v, want 64x32", result["source"])
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache should hold the file, has %d entries", s.cache.Len())
	}
}

func TestHandleToolsCall_ClassifyBase64(t *testing.T) {
	s := New(WithClassifier("old", testClassifier(t, fixedText([]int{3}))))
	b64 := base64.StdEncoding.EncodeToString(encodePNG(t, createTestImage(40, 20, color.White)))

	result, mcpErr := callTool(t, s, "captcha_classify", map[string]interface{}{
		"image_base64": "data:image/png;base64," + b64,
		"model":        "old",
		"color_filter": []string{"red", "blue"},
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["text"] != "c" {
		t.Errorf("text: got %v, want c", result["text"])
	}
	if s.cache.Len() != 0 {
		t.Error("inline images should not be cached")
	}
}

func TestHandleToolsCall_ClassifyErrors(t *testing.T) {
	s := New(WithClassifier("beta", testClassifier(t, fixedText([]int{1}))))
	imgPath := createTestImageFile(t, "captcha.png", createTestImage(20, 10, color.White))

	tests := []struct {
		name     string
		args     map[string]interface{}
		contains string
		code     string
	}{
		{"unconfigured model", map[string]interface{}{"path": imgPath, "model": "diy"}, "not configured", ""},
		{"no image", map[string]interface{}{}, "path or image_base64 is required", ""},
		{"bad color", map[string]interface{}{"path": imgPath, "color_filter": []string{"mauve"}}, "unknown color", ""},
		{"undecodable", map[string]interface{}{"image_base64": base64.StdEncoding.EncodeToString([]byte("not an image"))}, "", "IMAGE_DECODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, "captcha_classify", tt.args)
			if mcpErr == nil {
				t.Fatal("expected error")
			}
			if mcpErr.Code != -32000 {
				t.Errorf("Code: got %d, want -32000", mcpErr.Code)
			}
			if tt.code != "" && errorCode(mcpErr) != tt.code {
				t.Errorf("error_code: got %q, want %q", errorCode(mcpErr), tt.code)
			}
			if tt.contains != "" {
				msg, _ := mcpErr.Data.(string)
				if !strings.Contains(msg, tt.contains) {
					t.Errorf("data %q should contain %q", mcpErr.Data, tt.contains)
				}
			}
		})
	}
}

func TestHandleToolsCall_ClassifyProbability(t *testing.T) {
	s := New(WithClassifier("beta", testClassifier(t, fixedText([]int{2, 4}))))
	imgPath := createTestImageFile(t, "captcha.png", createTestImage(32, 16, color.White))

	result, mcpErr := callTool(t, s, "captcha_classify_probability", map[string]interface{}{
		"path":  imgPath,
		"range": "0",
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}

	symbols, _ := result["charset"].([]interface{})
	// Ten digits and the blank sentinel
	if len(symbols) != 11 {
		t.Errorf("charset: got %d symbols, want 11", len(symbols))
	}
	rows, _ := result["probability"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("probability: got %d rows, want 2", len(rows))
	}
	// "b" is not a digit, so its row reports -1 for every missing digit
	first := rows[0].([]interface{})
	if first[0] != float64(-1) {
		t.Errorf("missing symbol should be -1, got %v", first[0])
	}
}

func TestHandleToolsCall_ClassifyProbabilityCustomModel(t *testing.T) {
	s := New(WithClassifier("diy", testClassifierKind(t, model.Custom, fixedText([]int{1}))))
	imgPath := createTestImageFile(t, "captcha.png", createTestImage(32, 16, color.White))

	_, mcpErr := callTool(t, s, "captcha_classify_probability", map[string]interface{}{
		"path":  imgPath,
		"model": "diy",
	})
	if mcpErr == nil {
		t.Fatal("expected error for custom model")
	}
	if errorCode(mcpErr) != "UNSUPPORTED_OPERATION" {
		t.Errorf("error_code: got %q, want UNSUPPORTED_OPERATION", errorCode(mcpErr))
	}
}

func TestHandleToolsCall_ClassifyBBox(t *testing.T) {
	s := New(
		WithClassifier("beta", testClassifier(t, fixedText([]int{5}))),
		WithDetector(testDetector(t)),
	)
	imgPath := createTestImageFile(t, "click.png", createTestImage(416, 416, color.White))

	t.Run("explicit boxes", func(t *testing.T) {
		result, mcpErr := callTool(t, s, "captcha_classify_bbox", map[string]interface{}{
			"path":   imgPath,
			"bboxes": [][]int{{0, 0, 9, 9}, {100, 100, 140, 120}},
		})
		if mcpErr != nil {
			t.Fatalf("Unexpected error: %v", mcpErr)
		}
		if result["count"] != float64(2) {
			t.Errorf("count: got %v, want 2", result["count"])
		}
		results := result["results"].([]interface{})
		second := results[1].(map[string]interface{})
		if second["text"] != "+" {
			t.Errorf("text: got %v, want +", second["text"])
		}
		box := second["bbox"].([]interface{})
		if box[0] != float64(100) || box[3] != float64(120) {
			t.Errorf("bbox: got %v", box)
		}
	})

	t.Run("detect first", func(t *testing.T) {
		result, mcpErr := callTool(t, s, "captcha_classify_bbox", map[string]interface{}{
			"path":   imgPath,
			"detect": true,
		})
		if mcpErr != nil {
			t.Fatalf("Unexpected error: %v", mcpErr)
		}
		if result["count"] != float64(1) {
			t.Errorf("count: got %v, want 1", result["count"])
		}
	})

	t.Run("inverted box", func(t *testing.T) {
		_, mcpErr := callTool(t, s, "captcha_classify_bbox", map[string]interface{}{
			"path":   imgPath,
			"bboxes": [][]int{{10, 10, 5, 5}},
		})
		if mcpErr == nil {
			t.Fatal("expected error for inverted bbox")
		}
	})
}

func TestHandleToolsCall_Detect(t *testing.T) {
	s := New(WithDetector(testDetector(t)))
	imgPath := createTestImageFile(t, "click.png", createTestImage(416, 416, color.White))

	result, mcpErr := callTool(t, s, "captcha_detect", map[string]interface{}{
		"path":     imgPath,
		"annotate": true,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}

	boxes := result["bboxes"].([]interface{})
	if len(boxes) != 1 {
		t.Fatalf("bboxes: got %v, want one box", boxes)
	}
	want := []interface{}{float64(80), float64(40), float64(88), float64(48)}
	got := boxes[0].([]interface{})
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bbox: got %v, want %v", got, want)
			break
		}
	}

	annotated, ok := result["annotated"].(map[string]interface{})
	if !ok {
		t.Fatal("annotated image missing")
	}
	if annotated["box_count"] != float64(1) || annotated["mime_type"] != "image/png" {
		t.Errorf("annotated: got box_count=%v mime=%v", annotated["box_count"], annotated["mime_type"])
	}
}

func TestHandleToolsCall_DetectNotConfigured(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, "click.png", createTestImage(20, 20, color.White))

	_, mcpErr := callTool(t, s, "captcha_detect", map[string]interface{}{"path": imgPath})
	if mcpErr == nil {
		t.Fatal("expected error without a detector")
	}
	if msg, _ := mcpErr.Data.(string); !strings.Contains(msg, "not configured") {
		t.Errorf("data: got %v", mcpErr.Data)
	}
}

// sliderPair returns a white background with a black square at (60,20) and
// a piece holding the region (55,15)-(75,35) at offset (5,5) of a transparent
// canvas.
func sliderPair(t *testing.T) (piece, background string) {
	t.Helper()
	bg := createTestImage(100, 60, color.White)
	for y := 20; y < 30; y++ {
		for x := 60; x < 70; x++ {
			bg.Set(x, y, color.Black)
		}
	}
	pc := image.NewNRGBA(image.Rect(0, 0, 30, 30))
	for y := 15; y < 35; y++ {
		for x := 55; x < 75; x++ {
			pc.SetNRGBA(x-50, y-10, bg.NRGBAAt(x, y))
		}
	}
	return createTestImageFile(t, "piece.png", pc), createTestImageFile(t, "bg.png", bg)
}

func TestHandleToolsCall_SlideMatch(t *testing.T) {
	s := New()
	piece, bg := sliderPair(t)

	result, mcpErr := callTool(t, s, "captcha_slide_match", map[string]interface{}{
		"target_path":     piece,
		"background_path": bg,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["x1"] != float64(55) || result["y1"] != float64(15) {
		t.Errorf("match: got (%v, %v), want (55, 15)", result["x1"], result["y1"])
	}
	if result["target_x"] != float64(5) || result["target_y"] != float64(5) {
		t.Errorf("target offset: got (%v, %v), want (5, 5)", result["target_x"], result["target_y"])
	}
}

func TestHandleToolsCall_SlideMatchErrors(t *testing.T) {
	s := New()
	piece, bg := sliderPair(t)

	t.Run("missing background", func(t *testing.T) {
		_, mcpErr := callTool(t, s, "captcha_slide_match", map[string]interface{}{"target_path": piece})
		if mcpErr == nil {
			t.Fatal("expected error")
		}
		if msg, _ := mcpErr.Data.(string); !strings.Contains(msg, "background") {
			t.Errorf("data: got %v", mcpErr.Data)
		}
	})

	t.Run("piece larger than background", func(t *testing.T) {
		_, mcpErr := callTool(t, s, "captcha_slide_match", map[string]interface{}{
			"target_path":     bg,
			"background_path": piece,
			"simple":          true,
		})
		if mcpErr == nil {
			t.Fatal("expected error")
		}
		if errorCode(mcpErr) != "SIZE_MISMATCH" {
			t.Errorf("error_code: got %q, want SIZE_MISMATCH", errorCode(mcpErr))
		}
	})
}

func TestHandleToolsCall_SlideCompare(t *testing.T) {
	s := New()
	plain := createTestImage(50, 30, color.White)
	gapped := createTestImage(50, 30, color.White)
	for y := 10; y < 20; y++ {
		for x := 20; x < 30; x++ {
			gapped.Set(x, y, color.Black)
		}
	}

	result, mcpErr := callTool(t, s, "captcha_slide_compare", map[string]interface{}{
		"target_path":     createTestImageFile(t, "gap.png", gapped),
		"background_path": createTestImageFile(t, "full.png", plain),
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["x"] != float64(22) {
		t.Errorf("x: got %v, want 22", result["x"])
	}
	// Fifth differing row of column 20 is y=14
	if result["y"] != float64(9) {
		t.Errorf("y: got %v, want 9", result["y"])
	}
}

func TestHandleToolsCall_ColorFilter(t *testing.T) {
	s := New()
	img := createTestImage(10, 10, color.NRGBA{0, 0, 255, 255})
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	imgPath := createTestImageFile(t, "colors.png", img)

	result, mcpErr := callTool(t, s, "captcha_color_filter", map[string]interface{}{
		"path":   imgPath,
		"colors": []string{"red"},
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}

	raw, err := base64.StdEncoding.DecodeString(result["image_base64"].(string))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if r, g, b, _ := out.At(0, 0).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("red pixel should be kept, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := out.At(5, 5).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("blue pixel should be white, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}

	_, mcpErr = callTool(t, s, "captcha_color_filter", map[string]interface{}{"path": imgPath})
	if mcpErr == nil {
		t.Error("expected error without colors or hsv_ranges")
	}
}

func TestHandleToolsCall_EdgeDetect(t *testing.T) {
	s := New()
	img := createTestImage(40, 40, color.White)
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			img.Set(x, y, color.Black)
		}
	}

	result, mcpErr := callTool(t, s, "captcha_edge_detect", map[string]interface{}{
		"path": createTestImageFile(t, "square.png", img),
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["width"] != float64(40) || result["height"] != float64(40) {
		t.Errorf("size: got %vx%v, want 40x40", result["width"], result["height"])
	}
}

func TestHandleToolsCall_CharsetRanges(t *testing.T) {
	s := New(WithClassifier("beta", testClassifier(t, fixedText([]int{1}))))

	tests := []struct {
		name string
		args map[string]interface{}
		want []string
	}{
		{"digits", map[string]interface{}{"range": "0"}, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ""}},
		{"custom text", map[string]interface{}{"range": "aab"}, []string{"a", "b", ""}},
		{"model complement", map[string]interface{}{"range": "7", "model": "beta"}, []string{"+", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, mcpErr := callTool(t, s, "captcha_charset_ranges", tt.args)
			if mcpErr != nil {
				t.Fatalf("Unexpected error: %v", mcpErr)
			}
			got := result["symbols"].([]interface{})
			if len(got) != len(tt.want) {
				t.Fatalf("symbols: got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("symbols[%d]: got %v, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHandleToolsCall_CharsetRangesSetAndClear(t *testing.T) {
	c := testClassifier(t, fixedText([]int{1}))
	s := New(WithClassifier("beta", c))

	if _, mcpErr := callTool(t, s, "captcha_charset_ranges", map[string]interface{}{"range": "1", "set": true}); mcpErr != nil {
		t.Fatalf("set failed: %v", mcpErr)
	}
	if got := c.Ranges(); len(got) != 27 {
		t.Errorf("default range: got %d symbols, want 27", len(got))
	}

	if _, mcpErr := callTool(t, s, "captcha_charset_ranges", map[string]interface{}{"clear": true}); mcpErr != nil {
		t.Fatalf("clear failed: %v", mcpErr)
	}
	if c.Ranges() != nil {
		t.Errorf("default range should be cleared, got %v", c.Ranges())
	}

	_, mcpErr := callTool(t, s, "captcha_charset_ranges", map[string]interface{}{"range": "7"})
	if mcpErr == nil || errorCode(mcpErr) != "UNSUPPORTED_OPERATION" {
		t.Errorf("complement without a model should be unsupported, got %v", mcpErr)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %v", resp.Error)
	}
}

func TestExecuteTool_AllToolsDispatch(t *testing.T) {
	s := New()

	// Every listed tool must reach its handler; with no arguments each
	// handler fails on its own validation, never with "unknown tool".
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
			if err == nil {
				t.Fatalf("executeTool(%s) should fail without arguments", tool.Name)
			}
			if strings.Contains(err.Error(), "unknown tool") {
				t.Errorf("tool %s is listed but not dispatched", tool.Name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()

	_, err := s.executeTool("captcha_classify", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}

func TestServer_Whitelist(t *testing.T) {
	s := New(WithClassifier("beta", testClassifier(t, fixedText([]int{1}))))

	tests := []struct {
		name string
		args ocrTesseractArgs
		want string
	}{
		{"verbatim wins", ocrTesseractArgs{Whitelist: "xyz", Range: "0"}, "xyz"},
		{"range", ocrTesseractArgs{Range: "0"}, "0123456789"},
		{"model symbols", ocrTesseractArgs{WhitelistModel: "beta"}, "abc1+"},
		{"range against model", ocrTesseractArgs{WhitelistModel: "beta", Range: "7"}, "+"},
		{"nothing", ocrTesseractArgs{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.whitelist(tt.args)
			if err != nil {
				t.Fatalf("whitelist failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := s.whitelist(ocrTesseractArgs{WhitelistModel: "old"}); err == nil {
		t.Error("unconfigured model should fail")
	}
}

func TestServer_OCRInput(t *testing.T) {
	s := New()
	img := createTestImage(10, 10, color.NRGBA{0, 0, 255, 255})
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	imgPath := createTestImageFile(t, "colors.png", img)

	plain, err := s.ocrInput(ocrTesseractArgs{imageSource: imageSource{Path: imgPath}})
	if err != nil {
		t.Fatalf("ocrInput failed: %v", err)
	}
	if !bytes.Equal(plain, encodePNG(t, img)) {
		t.Error("unfiltered input should be the source bytes")
	}

	filtered, err := s.ocrInput(ocrTesseractArgs{
		imageSource: imageSource{Path: imgPath},
		filterArgs:  filterArgs{ColorFilter: []string{"red"}},
	})
	if err != nil {
		t.Fatalf("ocrInput failed: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(filtered))
	if err != nil {
		t.Fatalf("filtered input is not a PNG: %v", err)
	}
	if r, g, b, _ := out.At(0, 0).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("red pixel should be kept, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := out.At(5, 5).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("blue pixel should be white, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestHandleToolsCall_OCRTesseractBadColor(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, "captcha.png", createTestImage(10, 10, color.White))

	_, mcpErr := callTool(t, s, "captcha_ocr_tesseract", map[string]interface{}{
		"path":         imgPath,
		"color_filter": []string{"mauve"},
	})
	if mcpErr == nil {
		t.Fatal("expected error for an unknown color")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Code: got %d, want -32000", mcpErr.Code)
	}
	if msg, _ := mcpErr.Data.(string); !strings.Contains(msg, "unknown color") {
		t.Errorf("error should name the unknown color, got %v", mcpErr.Data)
	}
}
