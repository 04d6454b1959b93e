package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quizwire/quizwire/presenter"
	"github.com/quizwire/quizwire/quiz/service"
	"github.com/quizwire/quizwire/quiz/session"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"QuizWire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`QuizWire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

QuizWire runs timed trivia sessions, one independent session per channel key.
Each question is posted to the channel, counted down, then edited in place to
reveal the answer before the next question appears.

AVAILABLE TOOLS:
- list_quizzes: List the available question sets
- start_quiz: Start a quiz in a channel
- stop_quiz: Stop the channel's quiz
- pause_quiz: Pause the current countdown
- resume_quiz: Resume a paused countdown
- quiz_status: Progress, timer state, and recent errors for a channel
- channel_messages: Read the channel transcript
- list_sessions: List sessions across all channels
- get_settings / set_settings: Inspect and adjust the global quiz settings

Settings changes apply to quizzes started afterwards, not to running ones.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	channelProp := map[string]interface{}{
		"type":        "string",
		"description": "Channel key the quiz runs in",
	}

	// Question sets
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_quizzes",
		Description: "List the available question sets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListQuizzes)

	// Quiz control
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_quiz",
		Description: "Start a quiz in a channel with the current global settings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel": channelProp,
				"quiz": map[string]interface{}{
					"type":        "string",
					"description": "Name of the question set to run",
				},
			},
			Required: []string{"channel", "quiz"},
		},
	}, c.handleStartQuiz)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_quiz",
		Description: "Stop the channel's running quiz",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel": channelProp,
			},
			Required: []string{"channel"},
		},
	}, c.handleStopQuiz)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause_quiz",
		Description: "Pause the channel's quiz, freezing the countdown in place",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel": channelProp,
			},
			Required: []string{"channel"},
		},
	}, c.handlePauseQuiz)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resume_quiz",
		Description: "Resume the channel's paused quiz",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel": channelProp,
			},
			Required: []string{"channel"},
		},
	}, c.handleResumeQuiz)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "quiz_status",
		Description: "Get progress, timer state, and recent errors for a channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel": channelProp,
			},
			Required: []string{"channel"},
		},
	}, c.handleQuizStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "channel_messages",
		Description: "Read the messages posted to a channel, oldest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel": channelProp,
			},
			Required: []string{"channel"},
		},
	}, c.handleChannelMessages)

	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List quiz sessions across all channels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	// Settings
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_settings",
		Description: "Get the global quiz settings",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGetSettings)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_settings",
		Description: "Adjust the global quiz settings; only the provided fields change. Applies to quizzes started afterwards.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question_count": map[string]interface{}{
					"type":        "integer",
					"description": "Limit sessions to this many questions (1-100)",
				},
				"all_questions": map[string]interface{}{
					"type":        "boolean",
					"description": "Clear the question limit and use full sets",
				},
				"random_order": map[string]interface{}{
					"type":        "boolean",
					"description": "Shuffle questions at session start",
				},
				"timer_duration": map[string]interface{}{
					"type":        "integer",
					"description": "Seconds per question (5-300)",
				},
			},
		},
	}, c.handleSetSettings)
}

// GetMCPServer returns the underlying MCP server for serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListQuizzes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                `json:"count"`
		Quizzes []service.QuizInfo `json:"quizzes"`
	}

	if err := c.apiCall("GET", "/api/quizzes", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Quizzes (%d):\n\n", response.Count)
	for _, q := range response.Quizzes {
		result += fmt.Sprintf("- %s (%d questions)\n", q.Name, q.Questions)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStartQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	channel, _ := args["channel"].(string)
	quiz, _ := args["quiz"].(string)

	var result service.StartResult
	err := c.apiCall("POST", fmt.Sprintf("/api/channels/%s/start", channel), map[string]string{"quiz": quiz}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", result.Message, formatSnapshot(&result.Session))), nil
}

func (c *Client) handleStopQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	channel, _ := args["channel"].(string)

	var result service.StopResult
	err := c.apiCall("POST", fmt.Sprintf("/api/channels/%s/stop", channel), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Message), nil
}

func (c *Client) handlePauseQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	channel, _ := args["channel"].(string)

	var result service.ControlResult
	err := c.apiCall("POST", fmt.Sprintf("/api/channels/%s/pause", channel), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Message), nil
}

func (c *Client) handleResumeQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	channel, _ := args["channel"].(string)

	var result service.ControlResult
	err := c.apiCall("POST", fmt.Sprintf("/api/channels/%s/resume", channel), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Message), nil
}

func (c *Client) handleQuizStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	channel, _ := args["channel"].(string)

	var result service.StatusResult
	err := c.apiCall("GET", fmt.Sprintf("/api/channels/%s/status", channel), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("%s\n\n%s", result.Message, formatSnapshot(&result.Session))
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\nRecent errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			text += fmt.Sprintf("- [%s] %s\n", e.Time.Format("15:04:05"), e.Message)
		}
	}

	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleChannelMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	channel, _ := args["channel"].(string)

	var response struct {
		Count    int                 `json:"count"`
		Messages []presenter.Message `json:"messages"`
	}
	err := c.apiCall("GET", fmt.Sprintf("/api/channels/%s/messages", channel), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Channel %s transcript (%d messages):\n\n", channel, response.Count)
	for _, m := range response.Messages {
		marker := ""
		if m.Edited {
			marker = " (edited)"
		}
		result += fmt.Sprintf("[%s]%s %s\n", m.Posted.Format("15:04:05"), marker, m.Text)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                `json:"count"`
		Sessions []session.Snapshot `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		state := "running"
		if s.Paused {
			state = "paused"
		}
		result += fmt.Sprintf("- %s: '%s' question %d/%d (%s, started %s)\n",
			s.ChannelKey, s.QuizName, s.Current, s.Total, state, s.StartedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var view service.SettingsView
	if err := c.apiCall("GET", "/api/settings", nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Current settings: %s", view.Summary)), nil
}

func (c *Client) handleSetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	update := map[string]interface{}{}
	if v, ok := args["question_count"].(float64); ok {
		update["question_count"] = int(v)
	}
	if v, ok := args["all_questions"].(bool); ok {
		update["all_questions"] = v
	}
	if v, ok := args["random_order"].(bool); ok {
		update["random_order"] = v
	}
	if v, ok := args["timer_duration"].(float64); ok {
		update["timer_duration"] = int(v)
	}

	var view service.SettingsView
	if err := c.apiCall("PUT", "/api/settings", update, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Settings updated: %s", view.Summary)), nil
}

// Formatting helpers

func formatSnapshot(s *session.Snapshot) string {
	var b strings.Builder
	state := "inactive"
	if s.Active {
		state = "running"
		if s.Paused {
			state = "paused"
		}
	}
	fmt.Fprintf(&b, "Channel: %s\n", s.ChannelKey)
	fmt.Fprintf(&b, "Quiz: %s\n", s.QuizName)
	fmt.Fprintf(&b, "Question: %d of %d\n", s.Current, s.Total)
	fmt.Fprintf(&b, "State: %s\n", state)
	fmt.Fprintf(&b, "Settings: %s\n", s.Settings.Summary())
	if s.Timer != nil {
		fmt.Fprintf(&b, "Timer: %ds of %ds remaining (paused: %v)\n",
			s.Timer.Remaining, s.Timer.Total, s.Timer.Paused)
	}
	return b.String()
}
