package mcp

import "github.com/mark3labs/mcp-go/mcp"

const idDescription = "Post reference: the numeric sequence id (e.g. \"12\") or the internal id"

var createToolDef = mcp.NewTool("post_create",
	mcp.WithDescription("Create a blog post. The sequence id and URL slug are assigned by the store."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Post title; must not be blank")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Post body in Markdown; must not be blank")),
	mcp.WithString("author", mcp.Description("Author name (default: Anonymous)")),
	mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags; blanks are dropped")),
	mcp.WithBoolean("published", mcp.Description("Whether the post is published (default: true)")),
)

var getToolDef = mcp.NewTool("post_get",
	mcp.WithDescription("Fetch one post by sequence id or internal id."),
	mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
)

var updateToolDef = mcp.NewTool("post_update",
	mcp.WithDescription("Update fields of a post. Omitted fields are left unchanged; the slug is re-derived when the title changes."),
	mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
	mcp.WithString("title", mcp.Description("New title; must not be blank")),
	mcp.WithString("content", mcp.Description("New Markdown body; must not be blank")),
	mcp.WithString("author", mcp.Description("New author; blank resets to Anonymous")),
	mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Replacement tag list")),
	mcp.WithBoolean("published", mcp.Description("New published flag")),
)

var deleteToolDef = mcp.NewTool("post_delete",
	mcp.WithDescription("Permanently delete a post. Its sequence id is never reused."),
	mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
)

var listToolDef = mcp.NewTool("post_list",
	mcp.WithDescription("List posts newest first, or search them. Search ranks full-text matches by relevance and falls back to substring matching when nothing matches."),
	mcp.WithString("query", mcp.Description("Free-text search (max 1000 characters)")),
	mcp.WithString("tag", mcp.Description("Only posts carrying this exact tag")),
	mcp.WithNumber("page", mcp.Description("1-based page number (default: 1)")),
	mcp.WithNumber("page_size", mcp.Description("Posts per page (default: 10, max: 100)")),
)

var exportToolDef = mcp.NewTool("post_export",
	mcp.WithDescription("Write every post to a JSONL backup file."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path (default: $EBLOG_HOME/exports or ~/.eblog/exports, posts-<timestamp>.jsonl)")),
)

var importToolDef = mcp.NewTool("post_import",
	mcp.WithDescription("Restore posts from a JSONL backup. Records colliding with existing posts are skipped and reported."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
)
