package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"socialsync/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metric names emitted per sync cycle.
const (
	MetricTasksCreated   = "SyncTasksCreated"
	MetricTasksProcessed = "SyncTasksProcessed"
	MetricTasksCleaned   = "SyncTasksCleaned"
	MetricTasksReclaimed = "SyncTasksReclaimed"
	MetricCycleDuration  = "SyncCycleDuration"
)

// CloudWatchCycleMetrics publishes per-cycle aggregate counts and cycle
// duration to CloudWatch. Publish failures are logged and never affect the
// cycle outcome.
type CloudWatchCycleMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchCycleMetrics creates a metrics publisher targeting the given
// CloudWatch namespace.
func NewCloudWatchCycleMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCycleMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCycleMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordCycle emits one datum per counter plus the cycle duration in a
// single PutMetricData call.
func (m *CloudWatchCycleMetrics) RecordCycle(ctx context.Context, stats types.SyncStats, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricTasksCreated),
				Value:      aws.Float64(float64(stats.TasksCreated)),
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: aws.String(MetricTasksProcessed),
				Value:      aws.Float64(float64(stats.TasksProcessed)),
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: aws.String(MetricTasksCleaned),
				Value:      aws.Float64(float64(stats.TasksCleaned)),
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: aws.String(MetricTasksReclaimed),
				Value:      aws.Float64(float64(stats.TasksReclaimed)),
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: aws.String(MetricCycleDuration),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to publish cycle metrics",
			"error", err.Error(),
			"namespace", m.namespace,
		)
	}
}
