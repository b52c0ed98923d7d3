package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/olgasafonova/confluence-mcp-server/confluence"
	"github.com/olgasafonova/confluence-mcp-server/internal/journal"
	"github.com/olgasafonova/confluence-mcp-server/metrics"
	"github.com/olgasafonova/confluence-mcp-server/tracing"
)

// RecentWritesArgs contains parameters for listing journal entries
type RecentWritesArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max entries to return (default 20, max 200)"`
}

// WriteEntry is a journal entry as returned to MCP clients
type WriteEntry struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
	ContentID string `json:"content_id"`
	Version   int    `json:"version,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// RecentWritesResult is the result of listing journal entries
type RecentWritesResult struct {
	Entries []WriteEntry `json:"entries"`
	Count   int          `json:"count"`
}

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	pageClient       *confluence.PageClient
	blogClient       *confluence.BlogClient
	attachmentClient *confluence.AttachmentClient
	journal          *journal.Journal
	logger           *slog.Logger
}

// NewHandlerRegistry creates a new handler registry. The journal may be nil,
// in which case writes are not recorded and journal tools are skipped.
func NewHandlerRegistry(factory *confluence.ClientFactory, j *journal.Journal, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		pageClient:       factory.PageClient(),
		blogClient:       factory.BlogClient(),
		attachmentClient: factory.AttachmentClient(),
		journal:          j,
		logger:           logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	count := 0
	for _, spec := range AllTools {
		if spec.NeedsJournal && h.journal == nil {
			h.logger.Debug("Journal disabled, tool not registered", "tool", spec.Name)
			continue
		}
		if h.registerByName(server, spec) {
			count++
		}
	}
	h.logger.Info("Registered all tools", "count", count)
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "GetPage":
		register(h, server, tool, spec, h.pageClient.GetPageMCP)
	case "FindElement":
		register(h, server, tool, spec, h.pageClient.FindElementMCP)
	case "AppendContent":
		register(h, server, tool, spec, h.pageClient.AppendContentMCP)
	case "CreateBlogPost":
		register(h, server, tool, spec, h.blogClient.CreateBlogPostMCP)
	case "UploadAttachment":
		register(h, server, tool, spec, h.attachmentClient.UploadAttachmentMCP)
	case "RecentWrites":
		register(h, server, tool, spec, h.RecentWrites)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// RecentWrites lists journal entries, newest first.
func (h *HandlerRegistry) RecentWrites(ctx context.Context, args RecentWritesArgs) (RecentWritesResult, error) {
	if h.journal == nil {
		return RecentWritesResult{}, errors.New("write journal is not enabled (set CONFLUENCE_JOURNAL_PATH)")
	}
	entries, err := h.journal.Recent(ctx, args.Limit)
	if err != nil {
		return RecentWritesResult{}, err
	}

	out := make([]WriteEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, WriteEntry{
			ID:        e.ID,
			Operation: e.Operation,
			ContentID: e.ContentID,
			Version:   e.Version,
			Status:    e.Status,
			Error:     e.Error,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return RecentWritesResult{Entries: out, Count: len(out)}, nil
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the client method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Result, error) {
		return invoke(ctx, h, spec, method, args)
	})
}

// invoke runs one tool call. It is split from register so it can be driven
// without an MCP session.
func invoke[Args, Result any](
	ctx context.Context,
	h *HandlerRegistry,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
	args Args,
) (_ *mcp.CallToolResult, _ Result, err error) {
	defer h.recoverPanic(spec.Name, &err)

	// Start trace span
	ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
	defer span.End()

	tracing.AddToolAttributes(span, spec.Name, spec.Category)
	span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

	// Track in-flight requests
	metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
	defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

	start := time.Now()
	result, err := method(ctx, args)
	duration := time.Since(start).Seconds()

	span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

	if spec.Category == CategoryWrite {
		h.recordWrite(ctx, spec, args, result, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordRequest(spec.Name, duration, false)
		var zero Result
		return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
	}

	span.SetStatus(codes.Ok, "")
	metrics.RecordRequest(spec.Name, duration, true)
	h.logExecution(spec, args, result)
	return nil, result, nil
}

// recoverPanic recovers from panics in tool handlers and turns them into
// a tool error.
func (h *HandlerRegistry) recoverPanic(toolName string, err *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		if err != nil {
			*err = fmt.Errorf("%s failed: internal error: %v", toolName, rec)
		}
	}
}

// recordWrite stores the outcome of a write tool in the journal.
func (h *HandlerRegistry) recordWrite(ctx context.Context, spec ToolSpec, args, result any, callErr error) {
	if h.journal == nil {
		return
	}

	entry := journal.Entry{Operation: spec.Method, Status: journal.StatusSuccess}
	switch a := args.(type) {
	case confluence.AppendContentArgs:
		entry.ContentID = a.PageID
	case confluence.CreateBlogPostArgs:
		entry.ContentID = a.SpaceID
	case confluence.UploadAttachmentArgs:
		entry.ContentID = a.ContentID
	}
	switch r := result.(type) {
	case confluence.AppendContentResult:
		entry.Version = r.NewVersion
	case confluence.CreateBlogPostResult:
		if r.ID != "" {
			entry.ContentID = r.ID
		}
	}
	if callErr != nil {
		entry.Status = journal.StatusError
		entry.Error = callErr.Error()
	}

	// The tool call has already happened; a journal failure is logged only.
	if _, err := h.journal.Record(ctx, entry); err != nil {
		h.logger.Warn("Failed to record write", "tool", spec.Name, "error", err)
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	// Add extractable fields from args using type assertions
	switch a := args.(type) {
	case confluence.GetPageArgs:
		attrs = append(attrs, "page_id", a.PageID, "format", a.Format)
	case confluence.FindElementArgs:
		attrs = append(attrs, "page_id", a.PageID, "attribute", a.Attribute)
	case confluence.AppendContentArgs:
		attrs = append(attrs, "page_id", a.PageID, "tag", a.Tag)
	case confluence.CreateBlogPostArgs:
		attrs = append(attrs, "space_id", a.SpaceID)
	case confluence.UploadAttachmentArgs:
		attrs = append(attrs, "content_id", a.ContentID)
	case RecentWritesArgs:
		attrs = append(attrs, "limit", a.Limit)
	}

	// Add extractable fields from result
	switch r := result.(type) {
	case confluence.GetPageResult:
		attrs = append(attrs, "version", r.Version, "body_chars", len(r.Body), "truncated", r.Truncated)
	case confluence.FindElementResult:
		attrs = append(attrs, "found", r.Found)
	case confluence.AppendContentResult:
		attrs = append(attrs, "old_version", r.OldVersion, "new_version", r.NewVersion)
	case confluence.CreateBlogPostResult:
		attrs = append(attrs, "blog_post_id", r.ID)
	case confluence.UploadAttachmentResult:
		attrs = append(attrs, "attachment_id", r.AttachmentID)
	case RecentWritesResult:
		attrs = append(attrs, "entries", r.Count)
	}

	h.logger.Info("Tool executed", attrs...)
}
