package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/color-replace-mcp/internal/imaging"
	"github.com/ironsheep/color-replace-mcp/internal/logging"
	"github.com/ironsheep/color-replace-mcp/internal/replace"
)

// defaultWaitSeconds bounds how long a tool waits for outstanding processing.
const defaultWaitSeconds = 60

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "workspace_set_rules").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		logging.Logger().Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	logging.Logger().Debug("tool call", "tool", params.Name, "elapsed", time.Since(start))

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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Colors
	case "color_parse":
		return s.handleColorParse(args)
	case "color_distance":
		return s.handleColorDistance(args)
	case "color_presets":
		return s.handleColorPresets(args)

	// Source images
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(args)

	// Workspace
	case "workspace_add_image":
		return s.handleWorkspaceAddImage(args)
	case "workspace_remove_image":
		return s.handleWorkspaceRemoveImage(args)
	case "workspace_set_rules":
		return s.handleWorkspaceSetRules(args)
	case "workspace_status":
		return s.handleWorkspaceStatus(args)
	case "workspace_preview":
		return s.handleWorkspacePreview(args)
	case "workspace_export":
		return s.handleWorkspaceExport(args)
	case "workspace_reset":
		return s.handleWorkspaceReset(args)

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

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// waitContext derives a deadline from a tool's timeout_seconds argument.
func waitContext(seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		seconds = defaultWaitSeconds
	}
	return context.WithTimeout(context.Background(), time.Duration(seconds)*time.Second)
}

// === Color Handlers ===

type colorParseArgs struct {
	Color string `json:"color"`
}

type colorParseResult struct {
	Input       string `json:"input"`
	Normalized  string `json:"normalized"`
	Transparent bool   `json:"transparent"`
	RGBA        struct {
		R uint8 `json:"r"`
		G uint8 `json:"g"`
		B uint8 `json:"b"`
		A uint8 `json:"a"`
	} `json:"rgba"`
}

func (s *Server) handleColorParse(args json.RawMessage) (interface{}, error) {
	var a colorParseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := s.colors.Decode(a.Color)
	if err != nil {
		return nil, err
	}

	res := colorParseResult{Input: a.Color, Transparent: c.Transparent()}
	res.Normalized = c.Hex()
	if c.Transparent() {
		res.Normalized = "transparent"
	}
	res.RGBA.R, res.RGBA.G, res.RGBA.B, res.RGBA.A = c.R, c.G, c.B, c.A
	return res, nil
}

type colorDistanceArgs struct {
	ColorA    string `json:"color_a"`
	ColorB    string `json:"color_b"`
	Tolerance *int   `json:"tolerance,omitempty"`
}

type colorDistanceResult struct {
	Distance float64 `json:"distance"`
	Matches  *bool   `json:"matches,omitempty"`
}

func (s *Server) handleColorDistance(args json.RawMessage) (interface{}, error) {
	var a colorDistanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ca, err := s.colors.Decode(a.ColorA)
	if err != nil {
		return nil, fmt.Errorf("color_a: %w", err)
	}
	cb, err := s.colors.Decode(a.ColorB)
	if err != nil {
		return nil, fmt.Errorf("color_b: %w", err)
	}

	res := colorDistanceResult{Distance: replace.Distance(ca, cb)}
	if a.Tolerance != nil {
		m := res.Distance <= float64(*a.Tolerance)/100
		res.Matches = &m
	}
	return res, nil
}

type presetInfo struct {
	Name  string          `json:"name"`
	Rules replace.RuleSet `json:"rules"`
}

func (s *Server) handleColorPresets(json.RawMessage) (interface{}, error) {
	names := replace.PresetNames()
	out := make([]presetInfo, 0, len(names))
	for _, name := range names {
		rules, err := replace.Preset(name)
		if err != nil {
			return nil, err
		}
		out = append(out, presetInfo{Name: name, Rules: rules})
	}
	return map[string]interface{}{"presets": out}, nil
}

// === Source Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleImageSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(img, points)
}

type imageDominantColorsArgs struct {
	Path   string `json:"path"`
	Count  int    `json:"count"`
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region,omitempty"`
}

func (s *Server) handleImageDominantColors(args json.RawMessage) (interface{}, error) {
	var a imageDominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var region *imaging.Region
	if a.Region != nil {
		region = &imaging.Region{X1: a.Region.X1, Y1: a.Region.Y1, X2: a.Region.X2, Y2: a.Region.Y2}
	}
	return imaging.DominantColors(img, a.Count, region)
}

// === Workspace Handlers ===

type workspaceAddImageArgs struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

func (s *Server) handleWorkspaceAddImage(args json.RawMessage) (interface{}, error) {
	var a workspaceAddImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.ws.AddImage(a.Path, a.Name)
}

type workspaceRemoveImageArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleWorkspaceRemoveImage(args json.RawMessage) (interface{}, error) {
	var a workspaceRemoveImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.ws.RemoveImage(a.ID); err != nil {
		return nil, err
	}
	return s.ws.Status(), nil
}

type workspaceSetRulesArgs struct {
	Rules  replace.RuleSet `json:"rules"`
	Preset string          `json:"preset,omitempty"`
}

type setRulesResult struct {
	Rules   replace.RuleSet `json:"rules"`
	Skipped []string        `json:"skipped_rules,omitempty"`
}

func (s *Server) handleWorkspaceSetRules(args json.RawMessage) (interface{}, error) {
	var a workspaceSetRulesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	rules := a.Rules
	if a.Preset != "" {
		preset, err := replace.Preset(a.Preset)
		if err != nil {
			return nil, err
		}
		rules = preset
	}

	if err := s.ws.SetRules(rules); err != nil {
		return nil, err
	}

	// the engine silently skips rules it cannot decode; tell the caller which
	res := setRulesResult{Rules: rules}
	for _, r := range rules {
		if _, err := s.colors.Decode(r.Source); err != nil {
			res.Skipped = append(res.Skipped, r.String())
			continue
		}
		if _, err := s.colors.Decode(r.Target); err != nil {
			res.Skipped = append(res.Skipped, r.String())
		}
	}
	return res, nil
}

type workspaceStatusArgs struct {
	Wait           bool `json:"wait"`
	TimeoutSeconds int  `json:"timeout_seconds"`
}

func (s *Server) handleWorkspaceStatus(args json.RawMessage) (interface{}, error) {
	var a workspaceStatusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Wait {
		ctx, cancel := waitContext(a.TimeoutSeconds)
		defer cancel()
		if err := s.ws.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for processing: %w", err)
		}
	}
	return s.ws.Status(), nil
}

type workspacePreviewArgs struct {
	ID             string `json:"id"`
	MaxWidth       int    `json:"max_width"`
	MaxHeight      int    `json:"max_height"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (s *Server) handleWorkspacePreview(args json.RawMessage) (interface{}, error) {
	var a workspacePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxWidth == 0 {
		a.MaxWidth = 512
	}
	if a.MaxHeight == 0 {
		a.MaxHeight = 512
	}

	ctx, cancel := waitContext(a.TimeoutSeconds)
	defer cancel()
	if err := s.ws.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for processing: %w", err)
	}

	out, err := s.ws.Output(a.ID)
	if err != nil {
		return nil, err
	}
	return imaging.Preview(out, a.MaxWidth, a.MaxHeight)
}

type workspaceExportArgs struct {
	OutputPath     string `json:"output_path,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type exportResult struct {
	Name       string   `json:"name"`
	MimeType   string   `json:"mime_type"`
	Path       string   `json:"path,omitempty"`
	SizeBytes  int      `json:"size_bytes"`
	Entries    []string `json:"entries,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
	DataBase64 string   `json:"data_base64,omitempty"`
}

func (s *Server) handleWorkspaceExport(args json.RawMessage) (interface{}, error) {
	var a workspaceExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	ctx, cancel := waitContext(a.TimeoutSeconds)
	defer cancel()

	art, skipped, err := s.ws.Export(ctx)
	if err != nil {
		return nil, err
	}

	res := exportResult{
		Name:      art.Name,
		MimeType:  art.MimeType,
		SizeBytes: len(art.Data),
		Entries:   art.Entries,
		Skipped:   skipped,
	}

	if a.OutputPath == "" {
		res.DataBase64 = base64.StdEncoding.EncodeToString(art.Data)
		return res, nil
	}

	path := a.OutputPath
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, art.Name)
	}
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	res.Path = path
	return res, nil
}

func (s *Server) handleWorkspaceReset(json.RawMessage) (interface{}, error) {
	s.ws.Reset()
	return s.ws.Status(), nil
}
