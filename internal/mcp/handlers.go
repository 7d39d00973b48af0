package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// ListRequest represents the arguments for notification_list.
type ListRequest struct {
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
	UnreadOnly bool `json:"unread_only,omitempty"`
}

// MarkReadRequest represents the arguments for notification_mark_read.
type MarkReadRequest struct {
	ID string `json:"id"`
}

// PointsRequest represents the arguments for points_add and points_deduct.
type PointsRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason,omitempty"`
}

// SummaryRequest represents the arguments for points_summary.
type SummaryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// LoginRequest represents the arguments for session_login.
type LoginRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	JoinDate  string `json:"join_date,omitempty"`
	Token     string `json:"token,omitempty"`
}

// GateRequest represents the arguments for admin_gate.
type GateRequest struct {
	Password string `json:"password"`
}

// HandleNotificationList handles the notification_list tool call.
func (h *Handlers) HandleNotificationList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListNotifications(ctx, h.env, ops.ListNotificationsInput{
		Limit:      input.Limit,
		Offset:     input.Offset,
		UnreadOnly: input.UnreadOnly,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMarkRead handles the notification_mark_read tool call.
func (h *Handlers) HandleMarkRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MarkReadRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.MarkRead(ctx, h.env, ops.MarkReadInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMarkAllRead handles the notification_mark_all_read tool call.
func (h *Handlers) HandleMarkAllRead(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.MarkAllRead(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleClear handles the notification_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ClearNotifications(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUnreadCount handles the notification_unread_count tool call.
func (h *Handlers) HandleUnreadCount(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.UnreadCount(ctx, h.env))
}

// HandleDedupe handles the notification_dedupe tool call.
func (h *Handlers) HandleDedupe(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Dedupe(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePointsAdd handles the points_add tool call.
func (h *Handlers) HandlePointsAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PointsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AddPoints(ctx, h.env, ops.PointsInput{Points: input.Points, Reason: input.Reason})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePointsDeduct handles the points_deduct tool call.
func (h *Handlers) HandlePointsDeduct(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PointsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeductPoints(ctx, h.env, ops.PointsInput{Points: input.Points, Reason: input.Reason})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePointsSummary handles the points_summary tool call.
func (h *Handlers) HandlePointsSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PointsSummary(ctx, h.env, ops.PointsSummaryInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLogin handles the session_login tool call.
func (h *Handlers) HandleLogin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LoginRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Login(ctx, h.env, ops.LoginInput{
		ID:        input.ID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		JoinDate:  input.JoinDate,
		Token:     input.Token,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLogout handles the session_logout tool call.
func (h *Handlers) HandleLogout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Logout(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleWhoAmI handles the session_whoami tool call.
func (h *Handlers) HandleWhoAmI(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.WhoAmI(ctx, h.env))
}

// HandleGate handles the admin_gate tool call.
func (h *Handlers) HandleGate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SubmitGate(ctx, h.env, ops.GateInput{Credential: input.Password})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var bridgeErr *errors.BridgeError
	if stderrors.As(err, &bridgeErr) {
		msg := bridgeErr.Message
		if err != error(bridgeErr) && bridgeErr.Code != errors.ErrInternal {
			// keep wrapper context
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    bridgeErr.Code,
			"message": msg,
			"status":  bridgeErr.Status,
		}
		if bridgeErr.Code != errors.ErrInternal && bridgeErr.Details != nil {
			errorObj["details"] = bridgeErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
