package testgen

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/testgen/internal/config"
)

// newLogger writes to output. The auto format picks the console encoder when
// output is a terminal and JSON otherwise.
func newLogger(settings config.Logging, output io.Writer) (*zap.Logger, error) {
	level, levelErr := zapcore.ParseLevel(strings.TrimSpace(settings.Level))
	if levelErr != nil {
		return nil, fmt.Errorf(loggerConstructionErrorFormat, levelErr)
	}

	var encoder zapcore.Encoder
	if useConsoleEncoding(settings.Format, output) {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !isTerminal(output) {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), level)
	return zap.New(core), nil
}

func useConsoleEncoding(format string, output io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.LoggingFormatConsole:
		return true
	case config.LoggingFormatJSON:
		return false
	default:
		return isTerminal(output)
	}
}

func isTerminal(output io.Writer) bool {
	file, ok := output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
