package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-crm/jobs"
)

// JobDealsWarmup is the CLI name of the deals chart warmup task.
const JobDealsWarmup = "deals-warmup"

// Enqueuer submits warmup tasks. *jobs.Client satisfies it.
type Enqueuer interface {
	EnqueueDealsWarmup(ctx context.Context, payload jobs.DealsWarmupPayload, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Inspector reads queue state. *asynq.Inspector satisfies it.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
	newID     func() string
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return NewJobsCLIWith(jobs.NewClient(opts), asynq.NewInspector(opts))
}

// NewJobsCLIWith builds the helpers over existing clients.
func NewJobsCLIWith(client Enqueuer, inspector Inspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector, newID: uuid.NewString}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name under a fresh task id.
func (c *JobsCLI) Trigger(ctx context.Context, name string, payload jobs.DealsWarmupPayload) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case JobDealsWarmup, jobs.TaskDealsChartWarmup:
		return c.client.EnqueueDealsWarmup(ctx, payload, asynq.TaskID(c.newID()))
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

// Command runs `jobs <trigger|inspect|scheduled>` and returns the process exit code:
// 1 when the job action fails, 2 on usage errors.
func (c *JobsCLI) Command(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := c.rootCommand()
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	var failed runError
	if errors.As(err, &failed) {
		return 1
	}
	return 2
}

type runError struct {
	op  string
	err error
}

func (e runError) Error() string { return "jobs " + e.op + ": " + e.err.Error() }

func (e runError) Unwrap() error { return e.err }

func (c *JobsCLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobs",
		Short:         "Manage background jobs",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("usage: odyssey jobs <trigger|inspect|scheduled> [flags]")
		},
	}
	root.AddCommand(c.triggerCommand(), c.inspectCommand(), c.scheduledCommand())
	return root
}

func (c *JobsCLI) triggerCommand() *cobra.Command {
	var (
		refresh bool
		stages  string
	)
	cmd := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue a job now (deals-warmup)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := jobs.DealsWarmupPayload{Refresh: refresh, StageSets: parseStageSets(stages)}
			info, err := c.Trigger(cmd.Context(), args[0], payload)
			if err != nil {
				return runError{op: "trigger", err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "invalidate the cache before warming")
	cmd.Flags().StringVar(&stages, "stages", "", "stage sets separated by ';', titles by ','")
	return cmd
}

func (c *JobsCLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print default queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return runError{op: "inspect", err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			return nil
		},
	}
}

func (c *JobsCLI) scheduledCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled tasks on the default queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := c.ListScheduled(cmd.Context(), size)
			if err != nil {
				return runError{op: "scheduled", err: err}
			}
			for _, task := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", task.ID, task.Type, task.NextProcessAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 10, "number of tasks to list")
	return cmd
}

func parseStageSets(raw string) [][]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var sets [][]string
	for _, group := range strings.Split(raw, ";") {
		var titles []string
		for _, title := range strings.Split(group, ",") {
			if title = strings.TrimSpace(title); title != "" {
				titles = append(titles, title)
			}
		}
		if len(titles) > 0 {
			sets = append(sets, titles)
		}
	}
	return sets
}
