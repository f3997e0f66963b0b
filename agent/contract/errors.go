package contract

import (
	"errors"

	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrConfiguration  = goalx.ErrConfiguration
	ErrStateConflict  = statex.ErrStateConflict
	ErrDispatchFailed = errors.New("intent dispatch failed")
)
