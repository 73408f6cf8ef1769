package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Queue     JobPusher
	Limits    Limits
	TTLs      TTLs
	RateLimit storage.RateLimit
}

// JobPusher hands a created job id to the worker pool.
type JobPusher interface {
	Push(id string) error
}

// NewMCPServer creates an MCP server exposing quiz submission and polling as
// tools for assistant callers.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"quizforge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("quizforge — generate multiple-choice quizzes from source text and poll for the finished artifact."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("create_quiz_job",
			mcp.WithDescription("Submit source text for asynchronous quiz generation. Returns a job id to poll with quiz_status."),
			mcp.WithString("owner", mcp.Description("Identifier of the submitting user"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Source text to generate questions from"), mcp.Required()),
			mcp.WithNumber("count", mcp.Description("Number of questions to generate"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Optional quiz title")),
		),
		mcpCreateQuizJob(deps),
	)

	s.AddTool(
		mcp.NewTool("quiz_status",
			mcp.WithDescription("Check the status of a quiz generation job."),
			mcp.WithString("job_id", mcp.Description("Job id returned by create_quiz_job"), mcp.Required()),
		),
		mcpQuizStatus(deps),
	)

	return s
}

func mcpCreateQuizJob(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, err := req.RequireString("owner")
		if err != nil {
			return mcpError("owner is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		count, err := req.RequireInt("count")
		if err != nil {
			return mcpError("count is required"), nil
		}

		if count < deps.Limits.MinQuestions || count > deps.Limits.MaxQuestions {
			return mcpError(fmt.Sprintf("count must be between %d and %d", deps.Limits.MinQuestions, deps.Limits.MaxQuestions)), nil
		}
		words := len(strings.Fields(text))
		if words < deps.Limits.MinSourceWords {
			return mcpError(fmt.Sprintf("source text has %d words, need at least %d", words, deps.Limits.MinSourceWords)), nil
		}

		allowed, err := deps.Store.AllowSubmission(owner, deps.RateLimit)
		if err != nil {
			return mcpError(fmt.Sprintf("checking rate limit: %v", err)), nil
		}
		if !allowed {
			return mcpError("submission limit reached, try again later"), nil
		}

		payload, err := json.Marshal(quiz.JobPayload{
			Title: req.GetString("title", ""),
			Count: count,
			Fragments: []quiz.Fragment{
				{Name: "mcp text", Text: text, WordCount: words, CharCount: utf8.RuneCountInString(text)},
			},
		})
		if err != nil {
			return mcpError(fmt.Sprintf("building job payload: %v", err)), nil
		}

		job := storage.Job{
			ID:          uuid.New().String(),
			Owner:       owner,
			PayloadJSON: string(payload),
			Status:      storage.StatusPending,
		}
		if err := deps.Store.CreateJob(job, deps.TTLs.Job); err != nil {
			return mcpError(fmt.Sprintf("saving job: %v", err)), nil
		}
		if err := deps.Queue.Push(job.ID); err != nil {
			return mcpError("queue is full, try again later"), nil
		}

		return mcpText(fmt.Sprintf("Created job %s, poll with quiz_status", job.ID)), nil
	}
}

func mcpQuizStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := req.RequireString("job_id")
		if err != nil {
			return mcpError("job_id is required"), nil
		}

		job, err := deps.Store.GetJob(jobID)
		if err != nil {
			return mcpError("job not found or expired"), nil
		}

		result := map[string]string{
			"id":     job.ID,
			"status": string(job.Status),
		}
		if job.Status == storage.StatusFailed {
			result["error"] = job.Error
		}
		if job.Status == storage.StatusCompleted && job.ArtifactPath != "" {
			result["artifact_url"] = "/artifacts/" + job.ID
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("encoding status: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
