// Package autoload initializes the global logger from LOG_* environment
// variables on import.
package autoload

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	logx "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		log.Warn().Err(err).Msg("invalid LOG_* settings, using defaults")
		return
	}
	logx.Init(conf)
}
