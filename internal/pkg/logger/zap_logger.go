package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ILogger is the structured logger every layer receives. module names the
// component ("CHAT", "NOTE", "RECONCILE"); details lands under "details".
type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type ZapLogger struct {
	logger *zap.Logger
}

func newRotator(logFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10,   // Megabytes
		MaxBackups: 5,    // Files
		MaxAge:     30,   // Days
		Compress:   true, // gzip
	}
}

func newJSONEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// parseLevel falls back to info for an empty or unknown level.
func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewZapLogger tees JSON lines into a rotated file and a console stream.
// The console is human readable in development and JSON in production.
// level applies to both outputs.
func NewZapLogger(logFilePath, level string, isProd bool) *ZapLogger {
	enabled := parseLevel(level)

	consoleEncoder := newJSONEncoder()
	if !isProd {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewTee(
		zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(newRotator(logFilePath)), enabled),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), enabled),
	)
	return newZapLogger(core)
}

// NewIsolatedLogger writes only to its own file, at debug level. Used for the
// prompt trace so the main log stays readable.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	return newZapLogger(zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(newRotator(logFilePath)), zapcore.DebugLevel))
}

func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func newZapLogger(core zapcore.Core) *ZapLogger {
	// Skip the exported method and write() so the caller is the service.
	return &ZapLogger{logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.write(zapcore.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.write(zapcore.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.write(zapcore.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.write(zapcore.ErrorLevel, module, message, details)
}

func (l *ZapLogger) write(level zapcore.Level, module, message string, details map[string]interface{}) {
	entry := l.logger.Check(level, message)
	if entry == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}

	fields := []zap.Field{zap.String("module", module), zap.Any("details", details)}
	// Lift the error to the top level so it is searchable without digging into details.
	if err, ok := details["error"]; ok && level >= zapcore.ErrorLevel {
		fields = append(fields, zap.Any("error_ref", err))
	}
	entry.Write(fields...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
