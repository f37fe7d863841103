package converters

import (
	"github.com/flanksource/commons/logger"

	"github.com/flanksource/transmute/registry"
)

func logOf(ctx registry.Context) logger.Logger {
	if ctx.Logger != nil {
		return ctx.Logger
	}
	return logger.GetLogger("transmute")
}
