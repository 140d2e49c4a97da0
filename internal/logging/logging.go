// Package logging builds the zap logger shared by the server.
package logging

import (
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for production environments and a
// human readable development logger otherwise.
func New(env string) (*zap.Logger, error) {
    var cfg zap.Config
    switch strings.ToLower(env) {
    case "production", "prod":
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "ts"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    default:
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    return cfg.Build()
}
