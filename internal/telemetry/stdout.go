package telemetry

import "github.com/gosdrtx/radiotx/internal/logging"

// StdoutReporter logs each telemetry sample through a structured logger
// instead of fanning it out to subscribers.
type StdoutReporter struct {
	logger logging.Logger
}

// NewStdoutReporter builds a stdout reporter, falling back to the
// process-wide default logger when logger is nil.
func NewStdoutReporter(logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{logger: logger}
}

// Report implements Reporter.
func (r StdoutReporter) Report(sample Sample) {
	fields := []logging.Field{
		{Key: "stage", Value: sample.Stage},
	}
	if sample.Dataset != "" {
		fields = append(fields, logging.Field{Key: "dataset", Value: sample.Dataset})
	}
	if sample.FramesTotal != 0 {
		fields = append(fields, logging.Field{Key: "frames_total", Value: sample.FramesTotal})
	}
	if sample.FramesSent != 0 {
		fields = append(fields, logging.Field{Key: "frames_sent", Value: sample.FramesSent})
	}
	if sample.Err != "" {
		fields = append(fields, logging.Field{Key: "err", Value: sample.Err})
		r.logger.Error(sample.Message, fields...)
		return
	}
	r.logger.Info(sample.Message, fields...)
}
