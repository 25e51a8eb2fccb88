// Package logger builds the application's zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a human-readable development logger when appEnv is
// "development" and a JSON production logger otherwise.
func New(appEnv string) (*zap.Logger, error) {
	if strings.EqualFold(appEnv, "development") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
