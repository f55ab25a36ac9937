package mcp

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/eblog/internal/errors"
)

// decode unmarshals MCP request arguments into a typed struct.
// Field-level validation errors from custom unmarshalers are returned as is.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	b, err := json.Marshal(args)
	if err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("marshal args: %v", err))
	}
	if err := json.Unmarshal(b, &result); err != nil {
		var bErr *errors.BlogError
		if stderrors.As(err, &bErr) {
			return result, bErr
		}
		return result, errors.NewInvalidRequest(fmt.Sprintf("invalid arguments: %v", err))
	}
	return result, nil
}

// postID is a post reference given either as a string or as a bare number.
type postID string

// UnmarshalJSON accepts "12", "01J...", or 12.
func (p *postID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = postID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.NewInvalidRequest("id must be a string or an integer")
	}
	*p = postID(n.String())
	return nil
}
