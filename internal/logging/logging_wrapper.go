package logging

import (
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
)

// LoggingWrapper gives every request its own LogData tagged with a request
// id, logs start and completion, and records the handler duration.
func LoggingWrapper(
	loggingName string,
	log *logrus.Logger,
	handler func(http.ResponseWriter, *http.Request, *LogData) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		logData := newRequestLogData(log, req.Method)
		req = req.WithContext(WithLogData(req.Context(), logData))

		logData.Log().Infof("Handler.%v.Start", loggingName)

		endTimer := logData.AddTiming("duration")
		err := handler(w, req, logData)
		endTimer()
		if err != nil {
			logData.Log().WithError(err).Errorf("Handler.%v.Error", loggingName)
			return
		}

		logData.Log().Infof("Handler.%v.Complete", loggingName)
	}
}

func newRequestLogData(log *logrus.Logger, method string) *LogData {
	logData := NewLogData(log)
	if id, err := uuid.NewV4(); err == nil {
		logData.AddData("requestID", id.String())
	}
	logData.AddData("method", method)
	return logData
}
