package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/njchilds90/golimits/limits"
	"github.com/njchilds90/golimits/symbolic"
)

// ToolRequest is an MCP-style tool call.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// ToolResponse carries either a result or an error message.
type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall dispatches one tool call. Problems with the call itself are
// reported in ToolResponse.Error; the HTTP status is always 200.
func (s *Server) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		str, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return str, nil
	}
	optString := func(key string) (string, error) {
		if _, ok := req.Params[key]; !ok {
			return "", nil
		}
		return getString(key)
	}
	getExpr := func(key string) (limits.Canonical, error) {
		raw, err := getString(key)
		if err != nil {
			return "", err
		}
		return s.analyzer.Prepare(ctx, raw)
	}
	getApproach := func() (limits.Point, limits.Direction, error) {
		raw, err := getString("point")
		if err != nil {
			return limits.Point{}, limits.Both, err
		}
		at, inferred, hasInferred, err := limits.ParseApproach(raw)
		if err != nil {
			return limits.Point{}, limits.Both, err
		}
		d, err := optString("direction")
		if err != nil {
			return limits.Point{}, limits.Both, err
		}
		requested, err := limits.ParseDirection(d)
		if err != nil {
			return limits.Point{}, limits.Both, err
		}
		return at, limits.ResolveDirection(requested, inferred, hasInferred), nil
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	respondValue := func(v limits.Value, expr limits.Canonical) ToolResponse {
		return ToolResponse{Result: v, String: v.Display, LaTeX: s.latex(ctx, expr)}
	}

	switch req.Tool {
	case "normalize":
		c, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		h, err := s.engine.Parse(ctx, c)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{"canonical": c, "tree": symbolic.ToMap(h)},
			String: string(c),
			LaTeX:  h.LaTeX(),
		}

	case "parse_approach":
		at, dir, err := getApproach()
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{"point": at, "direction": dir},
			String: limits.Approach(at, dir),
		}

	case "limit":
		c, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		at, dir, err := getApproach()
		if err != nil {
			return fail(err)
		}
		return respondValue(s.analyzer.Evaluator().Evaluate(ctx, c, at, dir), c)

	case "substitute":
		c, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		at, _, err := getApproach()
		if err != nil {
			return fail(err)
		}
		return respondValue(s.analyzer.Evaluator().Substitute(ctx, c, at), c)

	case "narrate":
		c, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		at, dir, err := getApproach()
		if err != nil {
			return fail(err)
		}
		v, steps := s.analyzer.Narrator().Narrate(ctx, c, at, dir)
		return ToolResponse{
			Result: map[string]interface{}{"value": v, "steps": steps},
			String: v.Display,
			LaTeX:  s.latex(ctx, c),
		}

	case "continuity":
		c, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		at, _, err := getApproach()
		if err != nil {
			return fail(err)
		}
		rep := s.analyzer.Classifier().Classify(ctx, c, at)
		return ToolResponse{Result: rep, String: string(rep.Kind), LaTeX: s.latex(ctx, c)}

	case "analyze":
		expr, err := getString("expr")
		if err != nil {
			return fail(err)
		}
		expr2, err := optString("expr2")
		if err != nil {
			return fail(err)
		}
		point, err := getString("point")
		if err != nil {
			return fail(err)
		}
		dir, err := optString("direction")
		if err != nil {
			return fail(err)
		}
		a, err := s.analyzer.Analyze(ctx, limits.Request{Expression: expr, Expression2: expr2, Point: point, Direction: dir})
		s.metrics.ObserveAnalysis(err)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: a, String: a.Results[0].Limit.Display, LaTeX: a.Results[0].LaTeX}

	case "examples":
		return ToolResponse{Result: limits.Examples()}

	case "mcp_spec":
		var spec interface{}
		_ = json.Unmarshal([]byte(MCPToolSpec()), &spec)
		return ToolResponse{Result: spec}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

func (s *Server) latex(ctx context.Context, c limits.Canonical) string {
	h, err := s.engine.Parse(ctx, c)
	if err != nil {
		return ""
	}
	return h.LaTeX()
}

// MCPToolSpec returns the tool schema for agent registration.
func MCPToolSpec() string {
	approach := map[string]string{"expr": "string", "point": "string", "direction": "string"}
	tools := []map[string]interface{}{
		ts("normalize", "Rewrite informal math (2x², √x, e^x, sin x, Ln x) into canonical form", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("parse_approach", "Parse an approach point such as 0, 0+, 2-, pi, 1/2, ∞, -inf", []string{"point"}, map[string]string{"point": "string", "direction": "string"}),
		ts("limit", "lim_{x→point} expr. direction is both, left or right; a +/- suffix on point wins", []string{"expr", "point"}, approach),
		ts("substitute", "Evaluate expr at a finite point", []string{"expr", "point"}, map[string]string{"expr": "string", "point": "string"}),
		ts("narrate", "Limit with a step-by-step explanation", []string{"expr", "point"}, approach),
		ts("continuity", "Classify continuity at a point: continuous, removable, jump or essential", []string{"expr", "point"}, map[string]string{"expr": "string", "point": "string"}),
		ts("analyze", "Full analysis of one or two expressions: limit, steps, continuity, plot samples", []string{"expr", "point"}, map[string]string{"expr": "string", "expr2": "string", "point": "string", "direction": "string"}),
		ts("examples", "Built-in example limits", []string{}, map[string]string{}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
