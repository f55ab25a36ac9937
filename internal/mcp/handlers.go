package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/ops"
	"github.com/hpungsan/eblog/internal/post"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// CreateRequest represents the arguments for post_create.
type CreateRequest struct {
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Author    string       `json:"author,omitempty"`
	Tags      post.TagList `json:"tags,omitempty"`
	Published *post.Flag   `json:"published,omitempty"`
}

// GetRequest represents the arguments for post_get.
type GetRequest struct {
	ID postID `json:"id"`
}

// UpdateRequest represents the arguments for post_update.
type UpdateRequest struct {
	ID        postID        `json:"id"`
	Title     *string       `json:"title,omitempty"`
	Content   *string       `json:"content,omitempty"`
	Author    *string       `json:"author,omitempty"`
	Tags      *post.TagList `json:"tags,omitempty"`
	Published *post.Flag    `json:"published,omitempty"`
}

// DeleteRequest represents the arguments for post_delete.
type DeleteRequest struct {
	ID postID `json:"id"`
}

// ListRequest represents the arguments for post_list.
type ListRequest struct {
	Query    string `json:"query,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// ExportRequest represents the arguments for post_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for post_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// HandleCreate handles the post_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Create(ctx, h.db, h.cfg, ops.CreateInput{
		Title:     input.Title,
		Content:   input.Content,
		Author:    input.Author,
		Tags:      []string(input.Tags),
		Published: flagPtr(input.Published),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGet handles the post_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Get(ctx, h.db, ops.GetInput{ID: string(input.ID)})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the post_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	update := ops.UpdateInput{
		ID:        string(input.ID),
		Title:     input.Title,
		Content:   input.Content,
		Author:    input.Author,
		Published: flagPtr(input.Published),
	}
	if input.Tags != nil {
		tags := []string(*input.Tags)
		update.Tags = &tags
	}

	result, err := ops.Update(ctx, h.db, h.cfg, update)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the post_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: string(input.ID)})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the post_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.db, h.cfg, ops.ListInput{
		Query:    input.Query,
		Tag:      input.Tag,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the post_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the post_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal and store failures carry a fixed message so SQL errors and file
// paths never reach the client.
func errorResult(err error) *mcp.CallToolResult {
	bErr := errors.As(err)

	message := bErr.Message
	switch bErr.Code {
	case errors.ErrInternal:
		message = "an internal error occurred"
	case errors.ErrStoreUnavailable:
		message = "store unavailable"
	default:
		// Keep wrapper context such as "line 3: ..."
		if err.Error() != bErr.Error() {
			message = err.Error()
		}
	}

	errorObj := map[string]any{
		"code":    bErr.Code,
		"message": message,
		"status":  bErr.Status,
	}
	if bErr.Code != errors.ErrInternal && bErr.Code != errors.ErrStoreUnavailable && bErr.Details != nil {
		errorObj["details"] = bErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

func flagPtr(f *post.Flag) *bool {
	if f == nil {
		return nil
	}
	b := bool(*f)
	return &b
}
