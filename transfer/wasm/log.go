package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tetratelabs/wazero/api"
)

// LogMessage is the JSON document a module passes to env.log_message.
type LogMessage struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Attrs   []LogAttr `json:"attrs,omitempty"`
}

// LogAttr is a typed key/value pair attached to a LogMessage.
type LogAttr struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// logMessage implements the `log_message` host function.
// It receives a packed uint64 (ptr+len) pointing to a JSON-encoded LogMessage.
func (t *Transfer) logMessage(ctx context.Context, mod api.Module, stack []uint64) {
	ptr, length := UnpackPtrLen(stack[0])

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		t.logger.ErrorContext(ctx, "wasm: failed to read log message from guest memory")
		return
	}

	var msg LogMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.logger.ErrorContext(ctx, "wasm: failed to unmarshal log message", "error", err)
		return
	}

	t.logger.LogAttrs(ctx, t.parseLogLevel(msg.Level), msg.Message, convertLogAttrs(msg.Attrs)...)
}

// parseLogLevel converts a string level to slog.Level.
func (t *Transfer) parseLogLevel(levelStr string) slog.Level {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		t.logger.Warn("wasm: unknown log level from module", "level", levelStr)
	}
	return level
}

func convertLogAttrs(wireAttrs []LogAttr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(wireAttrs))
	for _, attr := range wireAttrs {
		attrs = append(attrs, convertSingleAttr(attr))
	}
	return attrs
}

func convertSingleAttr(attr LogAttr) slog.Attr {
	switch attr.Type {
	case "string":
		return slog.String(attr.Key, attr.Value)
	case "int64":
		if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
			return slog.Int64(attr.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(attr.Value); err == nil {
			return slog.Bool(attr.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
			return slog.Float64(attr.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(attr.Value); err == nil {
			return slog.Duration(attr.Key, v)
		}
	case "error":
		return slog.Any(attr.Key, fmt.Errorf("%s", attr.Value))
	}
	// Unknown types and parse failures keep the raw string.
	return slog.String(attr.Key, attr.Value)
}
