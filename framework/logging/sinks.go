package logging

import (
	"os"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const timestampFormat = "2006-01-02 15:04:05.000"

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timestampFormat),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
}

// NewConsoleCore writes human-readable records at or above level to w. Levels are coloured
// unless colour output is disabled (see color.NoColor).
func NewConsoleCore(w zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	cfg := encoderConfig()
	if !color.NoColor {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(w), level)
}

// NewFileCore writes plain-text records of every level to f.
func NewFileCore(f *os.File) zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(f), zapcore.DebugLevel)
}

// Terminals and pipes cannot be fsync'ed; that is not worth reporting.
func isUnsyncable(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
