package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/pipeline"
)

// Runner is the operation backend: it performs one node's transformation
// and returns the produced payload. Implementations must honor context
// cancellation; a runner that ignores it still cannot wedge the pool,
// because the dispatcher abandons calls that outlive their deadline.
type Runner interface {
	Run(ctx context.Context, request Request) (Payload, error)
}

// Request is one unit of dispatch: a node's operation, its decoded
// configuration (nil for kinds that take none), and the merged upstream
// payload. NodeID tags the request so its response can be correlated when
// responses arrive out of dispatch order; RunID scopes any artifacts the
// runner persists outside the payload.
type Request struct {
	RunID     uuid.UUID
	NodeID    string
	Operation string
	Config    pipeline.Config
	Input     Payload
}

// Response reports one settled dispatch. Success is explicit: a response
// is never assumed successful just because Err is nil.
type Response struct {
	NodeID  string
	Success bool
	Data    Payload
	Err     error
}

// DispatcherConfig sizes the worker pool and its timeouts. Zero values
// select the defaults: 2 workers, a 64-request queue, and a 5 minute
// per-request timeout. OperationTimeouts overrides the default for named
// operations (OCR runs far longer than a split).
type DispatcherConfig struct {
	Workers           int
	QueueSize         int
	Timeout           time.Duration
	OperationTimeouts map[string]time.Duration
}

const (
	defaultWorkers   = 2
	defaultQueueSize = 64
	defaultTimeout   = 5 * time.Minute
)

type dispatchItem struct {
	ctx     context.Context
	request Request
	replies chan<- Response
}

// Dispatcher runs node operations on a fixed pool of workers. Requests
// beyond pool capacity queue FIFO until a worker frees up; one request is
// in flight per worker. A request whose deadline passes settles as a
// timeout failure and its worker slot is recycled immediately.
type Dispatcher struct {
	runner    Runner
	logger    *slog.Logger
	requests  chan dispatchItem
	timeout   time.Duration
	overrides map[string]time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher starts the worker pool. Close releases it.
func NewDispatcher(runner Runner, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	overrides := make(map[string]time.Duration, len(cfg.OperationTimeouts))
	for operation, duration := range cfg.OperationTimeouts {
		if duration > 0 {
			overrides[strings.ToLower(operation)] = duration
		}
	}

	d := &Dispatcher{
		runner:    runner,
		logger:    logger.With("system", "dispatcher"),
		requests:  make(chan dispatchItem, queue),
		timeout:   timeout,
		overrides: overrides,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}

	return d
}

// Dispatch queues one request. The tagged response arrives on replies,
// which must have capacity for every outstanding dispatch sharing it so
// workers never block delivering. When the queue is full, Dispatch waits
// for a slot; a dead context settles the request without queueing it.
func (d *Dispatcher) Dispatch(ctx context.Context, request Request, replies chan<- Response) {
	select {
	case d.requests <- dispatchItem{ctx: ctx, request: request, replies: replies}:
	case <-ctx.Done():
		replies <- Response{NodeID: request.NodeID, Err: context.Cause(ctx)}
	}
}

// Close stops accepting requests and waits for in-flight work to settle.
func (d *Dispatcher) Close() {
	close(d.requests)
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for item := range d.requests {
		d.execute(item)
	}
}

func (d *Dispatcher) execute(item dispatchItem) {
	timeout := d.timeoutFor(item.request.Operation)
	ctx, cancel := context.WithTimeout(item.ctx, timeout)
	defer cancel()

	d.logger.DebugContext(ctx, "dispatching operation",
		"node", item.request.NodeID,
		"operation", item.request.Operation,
		"timeout", timeout)

	done := make(chan Response, 1)
	go func() {
		data, err := d.runner.Run(ctx, item.request)
		if err != nil {
			done <- Response{NodeID: item.request.NodeID, Err: err}
			return
		}
		done <- Response{NodeID: item.request.NodeID, Success: true, Data: data}
	}()

	select {
	case response := <-done:
		item.replies <- response
	case <-ctx.Done():
		err := context.Cause(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s exceeded %s", ErrTimeout, item.request.Operation, timeout)
			d.logger.WarnContext(item.ctx, "operation timed out",
				"node", item.request.NodeID,
				"operation", item.request.Operation,
				"timeout", timeout)
		}
		// The runner call is abandoned; it drains into the buffered done
		// channel whenever it finishes, freeing this worker slot now.
		item.replies <- Response{NodeID: item.request.NodeID, Err: err}
	}
}

func (d *Dispatcher) timeoutFor(operation string) time.Duration {
	if override, ok := d.overrides[strings.ToLower(operation)]; ok {
		return override
	}
	return d.timeout
}
