package logging

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"
)

// HumaMiddleware does for huma operations what LoggingWrapper does for plain
// handlers. The operation id names the log lines, and responses of 400 and
// above are logged as errors.
func HumaMiddleware(log *logrus.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		loggingName := "Huma"
		if op := ctx.Operation(); op != nil && op.OperationID != "" {
			loggingName = op.OperationID
		}

		logData := newRequestLogData(log, ctx.Method())
		ctx = huma.WithContext(ctx, WithLogData(ctx.Context(), logData))

		logData.Log().Infof("Handler.%v.Start", loggingName)

		endTimer := logData.AddTiming("duration")
		next(ctx)
		endTimer()

		status := ctx.Status()
		logData.AddData("status", status)
		if status >= http.StatusBadRequest {
			logData.Log().Errorf("Handler.%v.Error", loggingName)
			return
		}
		logData.Log().Infof("Handler.%v.Complete", loggingName)
	}
}
