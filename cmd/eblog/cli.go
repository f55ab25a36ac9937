package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/api"
	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/mcp"
	"github.com/hpungsan/eblog/internal/ops"
	"github.com/hpungsan/eblog/internal/post"
	"github.com/hpungsan/eblog/internal/web"
)

// maxStdinBytes bounds post content read from stdin.
const maxStdinBytes = 4 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.App {
	app := &cli.App{
		Name:    "eblog",
		Usage:   "Local blog post store",
		Version: Version,
		Before: func(c *cli.Context) error {
			c.Context = logger.ContextWithLogger(c.Context, log)
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(db, cfg, log),
			mcpCmd(db, cfg, log),
			createCmd(db, cfg),
			getCmd(db),
			updateCmd(db, cfg),
			deleteCmd(db),
			listCmd(db, cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd runs the web UI and JSON API.
func serveCmd(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config: 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config: 4000)"},
		},
		Action: func(c *cli.Context) error {
			if bind := c.String("bind"); bind != "" {
				cfg.HTTP.Bind = bind
			}
			if c.IsSet("port") {
				cfg.HTTP.Port = c.Int("port")
			}

			ui := web.NewHandler(db, cfg, Version, log)
			srv := web.NewServer(api.NewRouter(db, cfg, log, ui), cfg)
			if err := web.Run(srv, time.Duration(cfg.HTTP.ShutdownSec)*time.Second, log); err != nil {
				return cli.Exit(fmt.Sprintf("server error: %v", err), 1)
			}
			log.Info("server stopped gracefully")
			return nil
		},
	}
}

// mcpCmd runs the MCP server on stdio.
func mcpCmd(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP tool server on stdin/stdout",
		Action: func(c *cli.Context) error {
			return mcp.Run(db, cfg, Version, log)
		},
	}
}

// createCmd creates the create command.
func createCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a post (reads content from stdin unless --content is given)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Post title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Post content (Markdown)"},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author (default: Anonymous)"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "published", Usage: "true or false (default: true)"},
		},
		Action: func(c *cli.Context) error {
			content := c.String("content")
			if !c.IsSet("content") {
				text, ok, err := readInput(c)
				if err != nil {
					return outputError(err)
				}
				if !ok {
					return outputError(errors.NewInvalidRequest("content must be piped via stdin or given with --content"))
				}
				content = text
			}

			input := ops.CreateInput{
				Title:   c.String("title"),
				Content: content,
				Author:  c.String("author"),
				Tags:    []string(post.ParseTagList(c.String("tags"))),
			}
			if c.IsSet("published") {
				published, err := post.ParseFlag(c.String("published"))
				if err != nil {
					return outputError(err)
				}
				b := bool(published)
				input.Published = &b
			}

			output, err := ops.Create(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// getCmd creates the get command.
func getCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a post by sequence id or internal id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := postIDArg(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Get(c.Context, db, ops.GetInput{ID: id})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a post (reads new content from stdin when piped)",
		ArgsUsage: "[flags] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "New content"},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "New author"},
			&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags (empty clears)"},
			&cli.StringFlag{Name: "published", Usage: "true or false"},
		},
		Action: func(c *cli.Context) error {
			id, err := postIDArg(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.UpdateInput{ID: id}

			if c.IsSet("content") {
				content := c.String("content")
				input.Content = &content
			} else {
				text, ok, err := readInput(c)
				if err != nil {
					return outputError(err)
				}
				if ok && text != "" {
					input.Content = &text
				}
			}

			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("author") {
				author := c.String("author")
				input.Author = &author
			}
			if c.IsSet("tags") {
				tags := []string(post.ParseTagList(c.String("tags")))
				input.Tags = &tags
			}
			if c.IsSet("published") {
				published, err := post.ParseFlag(c.String("published"))
				if err != nil {
					return outputError(err)
				}
				b := bool(published)
				input.Published = &b
			}

			output, err := ops.Update(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a post",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := postIDArg(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: id})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List posts newest first, or search them",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text search"},
			&cli.StringFlag{Name: "tag", Usage: "Only posts with this tag"},
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Posts per page (default from config)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, cfg, ops.ListInput{
				Query:    c.String("query"),
				Tag:      c.String("tag"),
				Page:     c.Int("page"),
				PageSize: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all posts to a JSONL backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Output path (default: $EBLOG_HOME/exports or ~/.eblog/exports, posts-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import posts from a JSONL backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Backup file path"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// Helper functions

// outputJSON writes result to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	bErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
}

// postIDArg returns the single <id> argument. Flags must come before it;
// anything after it is rejected rather than silently ignored.
func postIDArg(c *cli.Context) (string, error) {
	if c.Args().Len() > 1 {
		return "", errors.NewInvalidRequest(fmt.Sprintf(
			"unexpected arguments after id: %s (flags must come before the id: eblog %s [flags] <id>)",
			strings.Join(c.Args().Tail(), " "), c.Command.Name))
	}
	return c.Args().First(), nil
}

// readInput reads the app's reader. ok is false when it is an interactive
// terminal, so nothing was piped.
func readInput(c *cli.Context) (string, bool, error) {
	r := c.App.Reader
	if f, isFile := r.(*os.File); isFile {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", false, nil
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes+1))
	if err != nil {
		return "", false, errors.NewInternal(fmt.Errorf("read stdin: %w", err))
	}
	if len(data) > maxStdinBytes {
		return "", false, errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", maxStdinBytes))
	}
	return strings.TrimRight(string(data), "\r\n"), true, nil
}
