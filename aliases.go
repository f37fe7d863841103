package transmute

import (
	flanksourceContext "github.com/flanksource/commons/context"

	"github.com/flanksource/transmute/batch"
	"github.com/flanksource/transmute/converters"
	"github.com/flanksource/transmute/engine"
	"github.com/flanksource/transmute/formats"
)

type Context = flanksourceContext.Context

type (
	Format    = formats.Format
	Result    = engine.Result
	Summary   = batch.Summary
	MediaInfo = converters.MediaInfo
)

// Error kinds, for use with errors.Is on Result.Err.
var (
	ErrUnsupportedConversion = engine.ErrUnsupportedConversion
	ErrInvalidInput          = engine.ErrInvalidInput
	ErrHandlerFailure        = engine.ErrHandlerFailure
	ErrExhaustedFallbacks    = engine.ErrExhaustedFallbacks
	ErrExternalToolTimeout   = engine.ErrExternalToolTimeout
)
