package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/jobs"
)

type stubEnqueuer struct {
	payload jobs.DealsWarmupPayload
	opts    []asynq.Option
	err     error
}

func (s *stubEnqueuer) EnqueueDealsWarmup(ctx context.Context, payload jobs.DealsWarmupPayload, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.payload = payload
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Type: jobs.TaskDealsChartWarmup, Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct {
	info      *asynq.QueueInfo
	scheduled []*asynq.TaskInfo
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, nil
}

func (s stubInspector) ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return s.scheduled, nil
}

func (s stubInspector) Close() error { return nil }

func newTestCLI(enq *stubEnqueuer, insp stubInspector) *JobsCLI {
	c := NewJobsCLIWith(enq, insp)
	c.newID = func() string { return "fixed-id" }
	return c
}

func TestTriggerDealsWarmupCommand(t *testing.T) {
	enq := &stubEnqueuer{}
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	code := newTestCLI(enq, stubInspector{}).Command(context.Background(),
		[]string{"trigger", "deals-warmup", "--refresh", "--stages", "WON,LOST; WON ;"}, stdout, stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.True(t, enq.payload.Refresh)
	assert.Equal(t, [][]string{{"WON", "LOST"}, {"WON"}}, enq.payload.StageSets)
	require.Len(t, enq.opts, 1)
	assert.Equal(t, asynq.TaskIDOpt, enq.opts[0].Type())
	assert.Equal(t, "fixed-id", enq.opts[0].Value())
	assert.Contains(t, stdout.String(), "enqueued deals:chart_warmup id=task-1")
}

func TestTriggerUnknownJob(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := newTestCLI(&stubEnqueuer{}, stubInspector{}).Command(context.Background(),
		[]string{"trigger", "mail:send"}, new(bytes.Buffer), stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unsupported job")
}

func TestTriggerEnqueueFailure(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := newTestCLI(&stubEnqueuer{err: errors.New("redis down")}, stubInspector{}).Command(context.Background(),
		[]string{"trigger", "deals-warmup"}, new(bytes.Buffer), stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "redis down")
}

func TestInspectCommand(t *testing.T) {
	stdout := new(bytes.Buffer)
	insp := stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Scheduled: 1}}
	code := newTestCLI(&stubEnqueuer{}, insp).Command(context.Background(), []string{"inspect"}, stdout, new(bytes.Buffer))
	require.Equal(t, 0, code)
	assert.Equal(t, "queue=default pending=2 active=0 scheduled=1 retry=0\n", stdout.String())
}

func TestScheduledCommand(t *testing.T) {
	next := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	insp := stubInspector{scheduled: []*asynq.TaskInfo{{ID: "a", Type: jobs.TaskDealsChartWarmup, NextProcessAt: next}}}
	stdout := new(bytes.Buffer)
	code := newTestCLI(&stubEnqueuer{}, insp).Command(context.Background(), []string{"scheduled", "--size", "5"}, stdout, new(bytes.Buffer))
	require.Equal(t, 0, code)
	assert.Equal(t, "a\tdeals:chart_warmup\t2024-03-01 10:00:00\n", stdout.String())
}

func TestCommandUsage(t *testing.T) {
	c := newTestCLI(&stubEnqueuer{}, stubInspector{})
	assert.Equal(t, 2, c.Command(context.Background(), nil, new(bytes.Buffer), new(bytes.Buffer)))
	assert.Equal(t, 2, c.Command(context.Background(), []string{"purge"}, new(bytes.Buffer), new(bytes.Buffer)))
}

func TestCommandRejectsBadInput(t *testing.T) {
	c := newTestCLI(&stubEnqueuer{}, stubInspector{})
	stderr := new(bytes.Buffer)
	assert.Equal(t, 2, c.Command(context.Background(), []string{"trigger"}, new(bytes.Buffer), stderr))
	assert.Contains(t, stderr.String(), "accepts 1 arg")

	stderr.Reset()
	assert.Equal(t, 2, c.Command(context.Background(), []string{"scheduled", "--size", "many"}, new(bytes.Buffer), stderr))
	assert.Contains(t, stderr.String(), "invalid argument")
}
