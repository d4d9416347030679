package exec

import (
	"encoding/json"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"goa.design/mcpcore/schema"
)

// ContentKind identifies the protocol content-block variant a Content
// value represents (spec §4.9 step 5 return-value normalization).
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentAudio    ContentKind = "audio"
	ContentResource ContentKind = "resource" // embedded binary/file resource
)

// Content is one protocol content block.
type Content struct {
	Kind ContentKind
	// Text holds the block's text for ContentText, or a human label for
	// ContentResource blocks that also carry Data.
	Text string
	// MimeType is set for Image/Audio/Resource blocks, inferred from a
	// filename extension when the source type didn't declare one.
	MimeType string
	// Data holds the raw bytes for Image/Audio/Resource blocks.
	Data []byte
	// ResourceURI names the embedded resource's URI, if any.
	ResourceURI string
}

// ToolResult is a tool invocation's normalized outcome: a content-block
// sequence, plus an optional structured twin for clients that prefer
// typed data over blocks (spec §4.9 step 5 and spec §3's
// x-fastmcp-wrap-result invariant).
type ToolResult struct {
	Content []Content
	// StructuredContent is set when the callable returned a single value
	// other than a protocol content block, raw text or bytes — a map,
	// struct, number or typed slice — serialized losslessly alongside the
	// text block derived from it. A []any is normalized element by element
	// and leaves it unset.
	StructuredContent any
}

// TaskState is the lifecycle state surfaced to a client on a TaskCreated
// response (spec §3's task model, C11).
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskWorking   TaskState = "working"
	TaskCompleted TaskState = "completed"
	TaskCancelled TaskState = "cancelled"
	TaskFailed    TaskState = "failed"
)

// TaskCreated is returned instead of a ToolResult when a call is handed
// to the task subsystem, or when a TaskModeForbidden tool gracefully
// degrades a background-execution request into an immediately-completed
// task (spec §4.9 step 3).
type TaskCreated struct {
	TaskID string
	State  TaskState
	// Result is set only for the TaskModeForbidden graceful-degradation
	// path, where the work already ran synchronously.
	Result *ToolResult
}

func syntheticTaskID() string { return uuid.NewString() }

// Helper return types a callable can produce instead of a bare value, so
// a tool can pick its content kind without reaching into this package's
// Content type directly.
type (
	// Image is a helper return type normalized to a ContentImage block.
	// MimeType is inferred from Name's extension when empty.
	Image struct {
		Data     []byte
		Name     string
		MimeType string
	}
	// Audio is a helper return type normalized to a ContentAudio block.
	Audio struct {
		Data     []byte
		Name     string
		MimeType string
	}
	// File is a helper return type normalized to an embedded
	// ContentResource block.
	File struct {
		Data     []byte
		Name     string
		MimeType string
	}
)

// Normalize converts a tool callable's raw return value into a
// *ToolResult, following spec §4.9 step 5's ordered rules. outputSchema
// decides whether a structured value gets {result: ...}-wrapped
// (schema.WrapResultKey); serializer overrides the default JSON encoding
// of a structured value, when set.
func Normalize(raw any, outputSchema map[string]any, serializer func(any) (string, error)) (*ToolResult, error) {
	switch v := raw.(type) {
	case *ToolResult:
		return v, nil
	case ToolResult:
		return &v, nil
	case Content:
		return &ToolResult{Content: []Content{v}}, nil
	case []Content:
		return &ToolResult{Content: v}, nil
	case []any:
		return normalizeList(v, outputSchema, serializer)
	case Image:
		return &ToolResult{Content: []Content{contentFromImage(v)}}, nil
	case Audio:
		return &ToolResult{Content: []Content{contentFromAudio(v)}}, nil
	case File:
		return &ToolResult{Content: []Content{contentFromFile(v)}}, nil
	case []byte:
		return &ToolResult{Content: []Content{contentFromBytes(v, "")}}, nil
	case string:
		return &ToolResult{Content: []Content{{Kind: ContentText, Text: v}}}, nil
	default:
		return normalizeStructured(v, outputSchema, serializer)
	}
}

func normalizeStructured(v any, outputSchema map[string]any, serializer func(any) (string, error)) (*ToolResult, error) {
	text, err := serialize(v, serializer)
	if err != nil {
		return nil, err
	}
	structured := v
	if wrapped(outputSchema) {
		structured = map[string]any{"result": v}
	}
	return &ToolResult{
		Content:           []Content{{Kind: ContentText, Text: text}},
		StructuredContent: structured,
	}, nil
}

func wrapped(outputSchema map[string]any) bool {
	if outputSchema == nil {
		return false
	}
	w, _ := outputSchema[schema.WrapResultKey].(bool)
	return w
}

func serialize(v any, serializer func(any) (string, error)) (string, error) {
	if serializer != nil {
		return serializer(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalizeList collapses adjacent non-protocol list items (strings,
// structured values) into a single combined text block, while explicit
// content-bearing items (Content/Image/Audio/File/*ToolResult) are never
// merged with one another or with the surrounding text (spec §4.9 step
// 5: "adjacent non-protocol list items collapse... content blocks never
// merge").
func normalizeList(items []any, outputSchema map[string]any, serializer func(any) (string, error)) (*ToolResult, error) {
	var out []Content
	var pending []string

	flush := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, Content{Kind: ContentText, Text: strings.Join(pending, "\n")})
		pending = nil
	}

	for _, item := range items {
		switch v := item.(type) {
		case Content:
			flush()
			out = append(out, v)
		case Image:
			flush()
			out = append(out, contentFromImage(v))
		case Audio:
			flush()
			out = append(out, contentFromAudio(v))
		case File:
			flush()
			out = append(out, contentFromFile(v))
		case *ToolResult:
			flush()
			out = append(out, v.Content...)
		case string:
			pending = append(pending, v)
		case []byte:
			flush()
			out = append(out, contentFromBytes(v, ""))
		default:
			text, err := serialize(v, serializer)
			if err != nil {
				return nil, err
			}
			pending = append(pending, text)
		}
	}
	flush()
	return &ToolResult{Content: out}, nil
}

func contentFromImage(img Image) Content {
	return Content{Kind: ContentImage, Data: img.Data, MimeType: mimeOrInfer(img.MimeType, img.Name, "image/png")}
}

func contentFromAudio(a Audio) Content {
	return Content{Kind: ContentAudio, Data: a.Data, MimeType: mimeOrInfer(a.MimeType, a.Name, "audio/mpeg")}
}

func contentFromFile(f File) Content {
	return Content{Kind: ContentResource, Data: f.Data, MimeType: mimeOrInfer(f.MimeType, f.Name, "application/octet-stream"), Text: f.Name}
}

// contentFromBytes matches spec §4.9 step 5's "bytes -> text content if
// valid UTF-8, else a binary embedded resource" rule.
func contentFromBytes(data []byte, mimeType string) Content {
	if utf8.Valid(data) {
		return Content{Kind: ContentText, Text: string(data)}
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return Content{Kind: ContentResource, Data: data, MimeType: mimeType}
}

func mimeOrInfer(declared, name, fallback string) string {
	if declared != "" {
		return declared
	}
	if m := MimeFromExtension(name); m != "" {
		return m
	}
	return fallback
}

var extensionMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".json": "application/json",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".html": "text/html",
	".xml":  "application/xml",
}

// MimeFromExtension infers a MIME type from a filename's extension, the
// mechanism behind the framework's image/audio/file return helpers (spec
// §4.9 step 5, supplemented from original_source/) and behind resource
// MIME attach-if-unset (spec §4.9 step 6).
func MimeFromExtension(name string) string {
	ext := strings.ToLower(path.Ext(name))
	return extensionMimeTypes[ext]
}
