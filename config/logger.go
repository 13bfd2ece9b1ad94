package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"mqsplit/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// consoleLevels maps configured console level to the low priority enabler.
func consoleLevels(level string) (zap.LevelEnablerFunc, bool) {
	switch level {
	case "normal":
		return func(lvl zapcore.Level) bool {
			return zapcore.InfoLevel <= lvl && lvl < zapcore.ErrorLevel
		}, true
	case "debug":
		return func(lvl zapcore.Level) bool {
			return zapcore.DebugLevel <= lvl && lvl < zapcore.ErrorLevel
		}, true
	default:
		return nil, false
	}
}

// Prepare returns our standard logger - configured zap logger for use by the
// program. Low priority entries go to stdout, errors to stderr, both colored
// when the stream is a terminal. An optional file core captures everything
// requested by configuration, always at debug level when a debug report was
// requested.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {

	consoleCoreLP, consoleCoreHP := zapcore.NewNopCore(), zapcore.NewNopCore()
	if enabler, ok := consoleLevels(conf.ConsoleLogger.Level); ok {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		if EnableColorOutput(os.Stdout) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
			ec.TimeKey = zapcore.OmitKey
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		consoleCoreLP = zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stdout), enabler)

		ec = zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		if EnableColorOutput(os.Stderr) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
			ec.TimeKey = zapcore.OmitKey
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		consoleCoreHP = zapcore.NewCore(newEncoder(ec), zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel }))
	}

	levelRequested, modeRequested := conf.FileLogger.Level, conf.FileLogger.Mode
	if rpt != nil {
		// if report is requested always set maximum available logging
		// level for file logger
		levelRequested = "debug"
		modeRequested = "overwrite"
	}

	var (
		redirected  bool
		destination string
	)
	fileCore := zapcore.NewNopCore()
	if levelRequested == "debug" || levelRequested == "normal" {
		logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
		if levelRequested == "debug" {
			logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
		}

		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if modeRequested == "append" {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}

		f, err := os.OpenFile(conf.FileLogger.Destination, flags, 0644)
		if err != nil {
			// destination is inaccessible - redirect to temporary location
			if f, err = os.CreateTemp("", misc.GetAppName()+".*.log"); err != nil {
				return nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
			}
		}
		fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), logLevel)
		rpt.Store("final.log", f.Name())
		redirected = f.Name() != conf.FileLogger.Destination
		destination = f.Name()
	}

	core := zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore), zap.AddCaller())
	if redirected {
		core.Warn("Log file was redirected to new location", zap.String("location", destination))
	}
	return core.Named(misc.GetAppName()), nil
}

// When logging error to console - do not output verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	var newFields []zapcore.Field
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			// shorten what is printed to console - no verbose chains
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
