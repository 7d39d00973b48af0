package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/ops"
	"github.com/hpungsan/careerbridge/internal/web"
)

// maxStdinBytes bounds piped input (form data, passwords).
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "careerbridge",
		Usage:   "Career Bridge notifications, points and session sync",
		Version: Version,
		Commands: []*cli.Command{
			loginCmd(env),
			logoutCmd(env),
			whoamiCmd(env),
			notificationsCmd(env),
			pointsCmd(env),
			gateCmd(env),
			adminCmd(env),
			profileCmd(env),
			formsCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// loginCmd creates the login command.
func loginCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log a user in and load their notifications and points",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "User ID", Required: true},
			&cli.StringFlag{Name: "first-name", Usage: "First name"},
			&cli.StringFlag{Name: "last-name", Usage: "Last name"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "join-date", Usage: "Join date (RFC 3339 or YYYY-MM-DD)"},
			&cli.StringFlag{Name: "token", Usage: "Auth token issued by the API"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Login(c.Context, env, ops.LoginInput{
				ID:        c.String("id"),
				FirstName: c.String("first-name"),
				LastName:  c.String("last-name"),
				Email:     c.String("email"),
				JoinDate:  c.String("join-date"),
				Token:     c.String("token"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// logoutCmd creates the logout command.
func logoutCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Log the current user out",
		Action: func(c *cli.Context) error {
			output, err := ops.Logout(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// whoamiCmd creates the whoami command.
func whoamiCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the current user",
		Action: func(c *cli.Context) error {
			return outputJSON(ops.WhoAmI(c.Context, env))
		},
	}
}

// notificationsCmd creates the notifications command group.
func notificationsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"n"},
		Usage:   "Read and manage notifications",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
					&cli.BoolFlag{Name: "unread-only", Aliases: []string{"u"}, Usage: "Only unread notifications"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.ListNotifications(c.Context, env, ops.ListNotificationsInput{
						Limit:      c.Int("limit"),
						Offset:     c.Int("offset"),
						UnreadOnly: c.Bool("unread-only"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "read",
				Usage:     "Mark one notification as read",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					output, err := ops.MarkRead(c.Context, env, ops.MarkReadInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "read-all",
				Usage: "Mark every notification as read",
				Action: func(c *cli.Context) error {
					output, err := ops.MarkAllRead(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "clear",
				Usage: "Remove every notification",
				Action: func(c *cli.Context) error {
					output, err := ops.ClearNotifications(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "count",
				Usage: "Show the unread count",
				Action: func(c *cli.Context) error {
					return outputJSON(ops.UnreadCount(c.Context, env))
				},
			},
			{
				Name:  "dedupe",
				Usage: "Drop duplicate notifications",
				Action: func(c *cli.Context) error {
					output, err := ops.Dedupe(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// pointsCmd creates the points command group.
func pointsCmd(env *ops.Env) *cli.Command {
	change := func(deduct bool) cli.ActionFunc {
		return func(c *cli.Context) error {
			n, err := parsePoints(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			input := ops.PointsInput{Points: n, Reason: c.String("reason")}

			var output *ops.PointsOutput
			if deduct {
				output, err = ops.DeductPoints(c.Context, env, input)
			} else {
				output, err = ops.AddPoints(c.Context, env, input)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}
	}
	reason := func() cli.Flag {
		return &cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Reason shown in the history"}
	}

	return &cli.Command{
		Name:    "points",
		Aliases: []string{"p"},
		Usage:   "Award, deduct and summarize points",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Award points to the current user",
				ArgsUsage: "<n>",
				Flags:     []cli.Flag{reason()},
				Action:    change(false),
			},
			{
				Name:      "deduct",
				Usage:     "Deduct points from the current user",
				ArgsUsage: "<n>",
				Flags:     []cli.Flag{reason()},
				Action:    change(true),
			},
			{
				Name:  "summary",
				Usage: "Show total, level and recent history",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Recent entries to include (default from config)"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.PointsSummary(c.Context, env, ops.PointsSummaryInput{Limit: c.Int("limit")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// gateCmd creates the gate command.
func gateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "gate",
		Usage:     "Check an admin gate password (argument or stdin)",
		ArgsUsage: "[password]",
		Action: func(c *cli.Context) error {
			credential := c.Args().First()
			if credential == "" && stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				credential = text
			}

			output, err := ops.SubmitGate(c.Context, env, ops.GateInput{Credential: credential})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// adminCmd creates the admin command group.
func adminCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Admin sign-in",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign an admin in (password from --password or stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Admin email"},
					&cli.StringFlag{Name: "password", Usage: "Admin password"},
					&cli.BoolFlag{Name: "remember-me", Usage: "Remember the email for next time"},
				},
				Action: func(c *cli.Context) error {
					password := c.String("password")
					if password == "" && stdinHasData() {
						text, err := readStdin(maxStdinBytes)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						password = text
					}

					output, err := ops.AdminLogin(c.Context, env, ops.AdminLoginInput{
						Email:      c.String("email"),
						Password:   password,
						RememberMe: c.Bool("remember-me"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "logout",
				Usage: "Sign the admin out",
				Action: func(c *cli.Context) error {
					output, err := ops.AdminLogout(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "status",
				Usage: "Show the signed-in admin",
				Action: func(c *cli.Context) error {
					output, err := ops.AdminStatus(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// profileCmd creates the profile command group.
func profileCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Profile photo",
		Subcommands: []*cli.Command{
			{
				Name:  "photo",
				Usage: "Show the current user's photo URL",
				Action: func(c *cli.Context) error {
					return outputJSON(ops.ProfilePhoto(c.Context, env))
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a new profile photo",
				ArgsUsage: "<path>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("photo path is required"))
					}
					output, err := ops.UploadPhoto(c.Context, env, ops.UploadPhotoInput{Path: c.Args().First()})
					if err != nil {
						// the preview is still worth showing
						if output != nil {
							_ = outputJSON(output)
						}
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// formsCmd creates the forms command group.
func formsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "forms",
		Usage: "Detail forms",
		Subcommands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Submit a personal, education or job form (JSON from --data or stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Form kind: personal|education|job", Required: true},
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Form JSON"},
					&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "Attachment as field=path (repeatable)"},
				},
				Action: func(c *cli.Context) error {
					data := c.String("data")
					if data == "" && stdinHasData() {
						text, err := readStdin(maxStdinBytes)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						data = text
					}

					files, err := parseFiles(c.StringSlice("file"))
					if err != nil {
						return outputError(err)
					}

					output, err := ops.SubmitForm(c.Context, env, ops.SubmitFormInput{
						Kind:  c.String("kind"),
						Data:  json.RawMessage(data),
						Files: files,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8420, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			srv := web.NewServer(env, Version, c.String("bind"), port)
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var bErr *errors.BridgeError
	if stderrors.As(err, &bErr) {
		msg := fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message)
		for _, m := range errors.Messages(bErr) {
			msg += "\n  - " + m
		}
		return cli.Exit(msg, 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin, failing past limit bytes.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// parsePoints parses a positive point amount argument.
func parsePoints(s string) (int, error) {
	if s == "" {
		return 0, errors.NewInvalidRequest("points amount is required")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid points amount: %s", s))
	}
	return n, nil
}

// parseFiles turns field=path pairs into a map.
func parseFiles(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	files := make(map[string]string, len(pairs))
	for _, p := range pairs {
		field, path, ok := strings.Cut(p, "=")
		field, path = strings.TrimSpace(field), strings.TrimSpace(path)
		if !ok || field == "" || path == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid file %q: want field=path", p))
		}
		if _, dup := files[field]; dup {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("file field %q given twice", field))
		}
		files[field] = path
	}
	return files, nil
}
