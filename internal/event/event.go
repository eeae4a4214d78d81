package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const Topic = "dispatcher-submission"

// SubmissionEvent is emitted once per dispatcher right after the install
// request is accepted. Submission is not deployment: the service may still
// fail to come up afterwards.
type SubmissionEvent struct {
	RunID         uuid.UUID     `json:"runID"`
	Index         int           `json:"index"`
	ServiceName   string        `json:"serviceName"`
	DriversRole   string        `json:"driversRole"`
	ExecutorsRole string        `json:"executorsRole"`
	Took          time.Duration `json:"took"`
}

type Publisher interface {
	Publish(ctx context.Context, e SubmissionEvent) error
}
