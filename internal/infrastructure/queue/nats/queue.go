// Package nats carries feedback-analysis jobs from the API to the worker.
// Jobs hold only the report ID and enqueue time; the worker loads the PDF
// from the transient report store.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/resilience"
)

// workerGroup is the queue group name; every worker instance joins it so a
// job is delivered to exactly one analyzer.
const workerGroup = "analyzers"

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	return o
}

// analysisJob is the wire payload. EnqueuedAt lets the worker report queue
// latency; a missing or unparseable envelope degrades to treating the raw
// bytes as the report ID.
type analysisJob struct {
	ReportID   string    `json:"reportId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	options = options.withDefaults()
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("bank-statement-extractor"),
		nats.Timeout(options.ConnectTimeout),
		nats.ReconnectWait(options.ReconnectWait),
		nats.MaxReconnects(options.MaxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishFeedbackAnalysis(ctx context.Context, reportID string) error {
	payload, err := json.Marshal(analysisJob{ReportID: reportID, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode analysis job: %w", err)
	}

	publish := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", publish, classifyNATSError)
	} else {
		err = publish(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeFeedbackAnalysis blocks until ctx is cancelled, delivering each
// queued report ID to handler. Handler errors are logged, not redelivered:
// a failed analysis leaves the report PENDING and an admin can re-request it.
func (q *Queue) SubscribeFeedbackAnalysis(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		job := decodeJob(msg.Data)
		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, job.ReportID); err != nil {
			slog.Error("feedback_analysis_failed",
				"report_id", job.ReportID,
				"queued_for_ms", queuedFor(job),
				"error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func decodeJob(data []byte) analysisJob {
	var job analysisJob
	if err := json.Unmarshal(data, &job); err != nil || job.ReportID == "" {
		return analysisJob{ReportID: string(data)}
	}
	return job
}

func queuedFor(job analysisJob) int64 {
	if job.EnqueuedAt.IsZero() {
		return 0
	}
	return time.Since(job.EnqueuedAt).Milliseconds()
}
