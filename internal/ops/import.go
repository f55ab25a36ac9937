package ops

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/post"
)

// maxImportLine bounds a single JSONL record.
const maxImportLine = 16 << 20

// Import error codes reported per line.
const (
	ImportParseError     = "PARSE_ERROR"
	ImportInvalidRecord  = "INVALID_RECORD"
	ImportCollision      = "COLLISION"
	ImportRetiredID      = "RETIRED_SEQUENCE_ID"
	ImportReadError      = "READ_ERROR"
	ImportUnsupportedVer = "UNSUPPORTED_VERSION"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line       int    `json:"line"`
	InternalID string `json:"internalId,omitempty"`
	SequenceID int64  `json:"sequenceId,omitempty"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// importRecord is a parsed line with its position in the file.
type importRecord struct {
	line int
	post *post.Post
}

// Import restores posts from a JSONL backup written by Export. Records keep
// their internal id, sequence id, slug and timestamps. A record colliding with
// an existing post on any of those keys is skipped and reported. So is a record
// whose sequence id this store already issued to a post that was later deleted:
// retired ids stay retired. The sequence counter is raised past the highest
// imported id so later creates never reuse it. All inserts share one transaction.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.BlogError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, importErrors := parseBackup(file)
	output := &ImportOutput{Errors: importErrors, Skipped: len(importErrors)}

	err = db.WithTx(ctx, database, func(tx *sql.Tx) error {
		issued, err := db.CurrentSequence(ctx, tx)
		if err != nil {
			return err
		}

		var maxSeq int64
		for _, rec := range records {
			if rec.post.SequenceID <= issued {
				retired, err := sequenceRetired(ctx, tx, rec.post.SequenceID)
				if err != nil {
					return err
				}
				if retired {
					output.Skipped++
					output.Errors = append(output.Errors, ImportError{
						Line:       rec.line,
						InternalID: rec.post.InternalID,
						SequenceID: rec.post.SequenceID,
						Code:       ImportRetiredID,
						Message:    "sequence id belonged to a deleted post and is never reused",
					})
					continue
				}
			}

			err := db.Insert(ctx, tx, rec.post)
			if err == db.ErrUniqueConstraint {
				output.Skipped++
				output.Errors = append(output.Errors, ImportError{
					Line:       rec.line,
					InternalID: rec.post.InternalID,
					SequenceID: rec.post.SequenceID,
					Code:       ImportCollision,
					Message:    "a post with this internal id, sequence id or slug already exists",
				})
				continue
			}
			if err != nil {
				return err
			}
			output.Imported++
			maxSeq = max(maxSeq, rec.post.SequenceID)
		}
		return db.BumpSequence(ctx, tx, maxSeq)
	})
	if err != nil {
		logFailure(ctx, "import", err)
		return nil, err
	}

	if output.Errors == nil {
		output.Errors = []ImportError{}
	}

	logger.FromContext(ctx).Info("posts imported",
		zap.String("path", input.Path),
		zap.Int("imported", output.Imported),
		zap.Int("skipped", output.Skipped))
	return output, nil
}

// sequenceRetired reports whether an already issued sequence id has no post.
func sequenceRetired(ctx context.Context, tx *sql.Tx, seq int64) (bool, error) {
	_, err := db.GetByRef(ctx, tx, post.Ref{Kind: post.RefSequence, Sequence: seq, Raw: strconv.FormatInt(seq, 10)})
	if errors.Is(err, errors.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// parseBackup reads every line of a backup. Invalid lines are reported, not fatal.
func parseBackup(r io.Reader) ([]importRecord, []ImportError) {
	var (
		records []importRecord
		errs    []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var header ExportHeader
		if err := json.Unmarshal(line, &header); err == nil && header.EblogExport {
			if header.SchemaVersion != ExportSchemaVersion {
				errs = append(errs, ImportError{
					Line:    lineNum,
					Code:    ImportUnsupportedVer,
					Message: fmt.Sprintf("unsupported schema version %q", header.SchemaVersion),
				})
			}
			continue
		}

		var p post.Post
		if err := json.Unmarshal(line, &p); err != nil {
			errs = append(errs, ImportError{
				Line:    lineNum,
				Code:    ImportParseError,
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if msg := normalizeImported(&p); msg != "" {
			errs = append(errs, ImportError{
				Line:       lineNum,
				InternalID: p.InternalID,
				SequenceID: p.SequenceID,
				Code:       ImportInvalidRecord,
				Message:    msg,
			})
			continue
		}

		records = append(records, importRecord{line: lineNum, post: &p})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{
			Line:    lineNum,
			Code:    ImportReadError,
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, errs
}

// normalizeImported applies the create-time field rules to an imported post.
// Returns a message when the record cannot be stored.
func normalizeImported(p *post.Post) string {
	p.InternalID = strings.TrimSpace(p.InternalID)
	p.Title = strings.TrimSpace(p.Title)

	switch {
	case p.InternalID == "":
		return "missing internalId"
	case p.SequenceID <= 0:
		return "sequenceId must be a positive integer"
	case p.Title == "" || strings.TrimSpace(p.Content) == "":
		return "title and content are required"
	}

	p.Author = post.NormalizeAuthor(p.Author)
	p.Tags = post.NormalizeTags(p.Tags)
	if p.Slug != nil && strings.TrimSpace(*p.Slug) == "" {
		p.Slug = nil
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return ""
}
