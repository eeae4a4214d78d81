package metric

import (
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/influxdata/influxdb-client-go/api/write"
	"go.uber.org/zap"
)

const (
	_measurementSubmission = "dispatcher_submission"
	_measurementRun        = "dispatcher_run"
)

type Storage struct {
	client influxdb2.Client
}

func NewStorage(client influxdb2.Client) *Storage {
	return &Storage{client: client}
}

func (s *Storage) WriteSession(org, bucket string) (*WriteSession, <-chan error) {
	writer := s.client.WriteAPI(org, bucket)
	return &WriteSession{writer: writer}, writer.Errors()
}

type WriteSession struct {
	writer api.WriteAPI
}

func (ws *WriteSession) Write(point *write.Point) {
	ws.writer.WritePoint(point)
}

func (ws *WriteSession) Flush() {
	ws.writer.Flush()
}

func (ws *WriteSession) Close() {
	ws.writer.Flush()
	ws.writer.Close()
}

// SubmissionPoint renders one accepted dispatcher install as a point.
func SubmissionPoint(runID uuid.UUID, index int, serviceName string, took time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		_measurementSubmission,
		map[string]string{
			"runID":   runID.String(),
			"service": serviceName,
		},
		map[string]interface{}{
			"index":   index,
			"took_ms": took.Milliseconds(),
		},
		at,
	)
}

// RunSummaryPoint renders a completed run as a single point.
func RunSummaryPoint(runID uuid.UUID, dispatchers int, took time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		_measurementRun,
		map[string]string{"runID": runID.String()},
		map[string]interface{}{
			"dispatchers": dispatchers,
			"took_ms":     took.Milliseconds(),
		},
		at,
	)
}

// DrainErrors logs async write failures until the error channel closes.
// Losing a metric never fails a deployment.
func DrainErrors(log *zap.Logger, errchan <-chan error) {
	for err := range errchan {
		log.Warn("failed to write metric", zap.Error(err))
	}
}
