// Package autoload initializes the global logger from LOG_* environment
// variables on blank import.
package autoload

import (
	configx "wholesale-agent/pkg/config"
	logx "wholesale-agent/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
