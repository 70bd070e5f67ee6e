// Package envconfig reads tool configuration from LORA_* environment
// variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/lora/internal/tensor"
)

// Var returns an environment variable stripped of spaces and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a reader for a boolean variable. Any non-empty
// value that does not parse as a boolean counts as true.
func BoolWithDefault(key string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a reader for a boolean variable that defaults to false.
func Bool(key string) func() bool {
	withDefault := BoolWithDefault(key)
	return func() bool {
		return withDefault(false)
	}
}

// Uint returns a reader for an unsigned variable. Invalid values fall back
// to defaultValue with a warning.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// LogLevel maps LORA_DEBUG to a level: unset or false is INFO, true is DEBUG
// and an integer n is n steps of 4 below INFO.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("LORA_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// DType is the storage type for written adapter checkpoints (LORA_DTYPE,
// default F32).
func DType() tensor.DataType {
	if s := Var("LORA_DTYPE"); s != "" {
		dt, err := tensor.ParseDataType(s)
		if err != nil {
			slog.Warn("invalid environment variable, using default", "key", "LORA_DTYPE", "value", s, "default", tensor.Float32)
			return tensor.Float32
		}
		return dt
	}
	return tensor.Float32
}

// Debug enables debug logging. It is coarser than LogLevel.
var Debug = Bool("LORA_DEBUG")

var maxReaders = Uint("LORA_MAX_READERS", 4)

// MaxReaders bounds concurrent checkpoint reads (LORA_MAX_READERS, default
// 4). Values beyond math.MaxInt are clamped.
func MaxReaders() int {
	return int(min(maxReaders(), uint(math.MaxInt)))
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"LORA_DEBUG":       {"LORA_DEBUG", Debug(), "Show additional debug information (e.g. LORA_DEBUG=1)"},
		"LORA_DTYPE":       {"LORA_DTYPE", DType(), "Storage type for written checkpoints: F32, F16, BF16 or F64 (default F32)"},
		"LORA_MAX_READERS": {"LORA_MAX_READERS", MaxReaders(), "Maximum number of checkpoints read at once (default 4)"},
	}
}

// Values returns the effective configuration as strings.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
