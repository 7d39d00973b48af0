package mcp

import "github.com/mark3labs/mcp-go/mcp"

var notificationListToolDef = mcp.NewTool("notification_list",
	mcp.WithDescription("List the signed-in user's notifications, newest first, with relative and absolute time labels."),
	mcp.WithNumber("limit", mcp.Description("Max items to return (default 20, max 100)"), mcp.Min(0)),
	mcp.WithNumber("offset", mcp.Description("Items to skip"), mcp.Min(0)),
	mcp.WithBoolean("unread_only", mcp.Description("Only return unread notifications")),
)

var notificationMarkReadToolDef = mcp.NewTool("notification_mark_read",
	mcp.WithDescription("Mark one notification as read. Unknown ids are reported with marked=false."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Notification id")),
)

var notificationMarkAllReadToolDef = mcp.NewTool("notification_mark_all_read",
	mcp.WithDescription("Mark every notification as read."),
)

var notificationClearToolDef = mcp.NewTool("notification_clear",
	mcp.WithDescription("Remove all notifications for the signed-in user."),
)

var notificationUnreadCountToolDef = mcp.NewTool("notification_unread_count",
	mcp.WithDescription("Number of unread notifications. 0 when nobody is signed in."),
)

var notificationDedupeToolDef = mcp.NewTool("notification_dedupe",
	mcp.WithDescription("Collapse notifications with identical text, keeping the newest."),
)

var pointsAddToolDef = mcp.NewTool("points_add",
	mcp.WithDescription("Credit points to the signed-in user."),
	mcp.WithNumber("points", mcp.Required(), mcp.Description("Points to add (positive)"), mcp.Min(1)),
	mcp.WithString("reason", mcp.Description("Reason shown in history and notifications")),
)

var pointsDeductToolDef = mcp.NewTool("points_deduct",
	mcp.WithDescription("Debit points from the signed-in user. Fails when the balance is too low."),
	mcp.WithNumber("points", mcp.Required(), mcp.Description("Points to deduct (positive)"), mcp.Min(1)),
	mcp.WithString("reason", mcp.Description("Reason shown in history")),
)

var pointsSummaryToolDef = mcp.NewTool("points_summary",
	mcp.WithDescription("Points total, level badge and recent history for the signed-in user."),
	mcp.WithNumber("limit", mcp.Description("Recent history entries to include"), mcp.Min(0)),
)

var sessionLoginToolDef = mcp.NewTool("session_login",
	mcp.WithDescription("Sign a portal user in. Loads their points and notifications, seeding a welcome set on first login."),
	mcp.WithString("id", mcp.Required(), mcp.Description("User id")),
	mcp.WithString("first_name", mcp.Description("First name")),
	mcp.WithString("last_name", mcp.Description("Last name")),
	mcp.WithString("email", mcp.Description("Email address")),
	mcp.WithString("join_date", mcp.Description("Join date (RFC 3339 or YYYY-MM-DD)")),
	mcp.WithString("token", mcp.Description("Auth token")),
)

var sessionLogoutToolDef = mcp.NewTool("session_logout",
	mcp.WithDescription("Sign the current user out."),
)

var sessionWhoAmIToolDef = mcp.NewTool("session_whoami",
	mcp.WithDescription("Describe the signed-in user, or the guest view."),
)

var adminGateToolDef = mcp.NewTool("admin_gate",
	mcp.WithDescription("Submit the admin gate password. A mismatch is reported inline and can be retried."),
	mcp.WithString("password", mcp.Required(), mcp.Description("Admin gate password")),
)
