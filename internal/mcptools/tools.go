// Package mcptools expone el motor de evaluacion como herramientas MCP.
//
// Cada herramienta sigue el mismo patron: un struct con el servicio inyectado,
// Definition() con el esquema y Handle() que procesa el pedido.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"pathforge/internal/domain"
	"pathforge/internal/service"
)

// Register agrega todas las herramientas al servidor.
func Register(s *server.MCPServer, svc *service.AssessmentService) {
	start := NewStartTool(svc)
	s.AddTool(start.Definition(), start.Handle)

	answer := NewAnswerTool(svc)
	s.AddTool(answer.Definition(), answer.Handle)

	fit := NewEvaluateFitTool(svc)
	s.AddTool(fit.Definition(), fit.Handle)
}

// StartTool maneja assessment_start.
type StartTool struct {
	svc *service.AssessmentService
}

func NewStartTool(svc *service.AssessmentService) *StartTool {
	return &StartTool{svc: svc}
}

func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_start",
		mcp.WithDescription(
			"Start an adaptive career assessment. Returns a session_id and the first question. "+
				"Answer each question with assessment_answer using a score from 0 to 10.",
		),
		mcp.WithNumber("hours_per_week",
			mcp.Description("Hours per week available for learning"),
		),
		mcp.WithString("location",
			mcp.Description("Country or region code used for market data, e.g. US"),
		),
		mcp.WithString("current_skills",
			mcp.Description("Comma separated list of skills the learner already has"),
		),
		mcp.WithString("learning_style",
			mcp.Description("Preferred learning style: visual, hands_on, reading or any"),
		),
	)
}

func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefs := domain.LearnerPreferences{
		HoursPerWeek:  floatArg(req, "hours_per_week", 0),
		Location:      req.GetString("location", ""),
		LearningStyle: req.GetString("learning_style", ""),
		CurrentSkills: splitList(req.GetString("current_skills", "")),
	}
	view, err := t.svc.Start(ctx, prefs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start assessment: %v", err)), nil
	}
	return jsonResult(view)
}

// AnswerTool maneja assessment_answer.
type AnswerTool struct {
	svc *service.AssessmentService
}

func NewAnswerTool(svc *service.AssessmentService) *AnswerTool {
	return &AnswerTool{svc: svc}
}

func (t *AnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_answer",
		mcp.WithDescription(
			"Answer the pending question of an assessment session. Returns the next question "+
				"or, once the assessment converges, the final report.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by assessment_start"),
		),
		mcp.WithNumber("score",
			mcp.Required(),
			mcp.Description("Agreement with the question, from 0 (not at all) to 10 (completely)"),
		),
	)
}

func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if _, ok := req.GetArguments()["score"].(float64); !ok {
		return mcp.NewToolResultError("'score' is required"), nil
	}

	view, err := t.svc.Answer(ctx, id, floatArg(req, "score", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}
	return jsonResult(view)
}

// EvaluateFitTool maneja assessment_evaluate_fit.
type EvaluateFitTool struct {
	svc *service.AssessmentService
}

func NewEvaluateFitTool(svc *service.AssessmentService) *EvaluateFitTool {
	return &EvaluateFitTool{svc: svc}
}

func (t *EvaluateFitTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Evaluate how well a trait profile fits a career domain. Traits are scored 0 to 10."),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Domain name, e.g. research, engineering, law"),
		),
	}
	for _, tr := range domain.AllTraits() {
		opts = append(opts, mcp.WithNumber(string(tr), mcp.Description(fmt.Sprintf("%s score from 0 to 10", tr))))
	}
	return mcp.NewTool("assessment_evaluate_fit", opts...)
}

func (t *EvaluateFitTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("domain", "")
	if name == "" {
		return mcp.NewToolResultError("'domain' is required"), nil
	}
	profile := domain.Profile{}
	for _, tr := range domain.AllTraits() {
		profile[tr] = floatArg(req, string(tr), 0)
	}

	res := t.svc.EvaluateFit(name, profile)
	if res.Error != "" {
		return mcp.NewToolResultError(res.Error), nil
	}
	return jsonResult(res)
}

// floatArg lee un numero; JSON siempre llega como float64.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
