package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/careerbridge/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"notification", "points", "session", "admin"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"notification_list": {
		def:     notificationListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotificationList },
	},
	"notification_mark_read": {
		def:     notificationMarkReadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMarkRead },
	},
	"notification_mark_all_read": {
		def:     notificationMarkAllReadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMarkAllRead },
	},
	"notification_clear": {
		def:     notificationClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClear },
	},
	"notification_unread_count": {
		def:     notificationUnreadCountToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUnreadCount },
	},
	"notification_dedupe": {
		def:     notificationDedupeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDedupe },
	},
	"points_add": {
		def:     pointsAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePointsAdd },
	},
	"points_deduct": {
		def:     pointsDeductToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePointsDeduct },
	},
	"points_summary": {
		def:     pointsSummaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePointsSummary },
	},
	"session_login": {
		def:     sessionLoginToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogin },
	},
	"session_logout": {
		def:     sessionLogoutToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogout },
	},
	"session_whoami": {
		def:     sessionWhoAmIToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWhoAmI },
	},
	"admin_gate": {
		def:     adminGateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGate },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "points_add" → "points").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the Career Bridge tools registered.
// Tools listed in env.Config.DisabledTools or belonging to
// env.Config.DisabledTypes are excluded from registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"careerbridge",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(env.Config.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range env.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, version string) error {
	return server.ServeStdio(NewServer(env, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
