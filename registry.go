package botsy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Registry holds tools and dispatches calls against them with argument
// validation, timeout, semaphore, and optional panic recovery. A failure
// inside one tool never reaches the dispatch loop: it is encoded in the
// result text and the loop continues.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Execute
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	sem         chan struct{}
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		sem:      sem,
		opts:     o,
		done:     make(chan struct{}),
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied to the tool
// before registration. If a tool with the same name already exists, it is
// replaced. Safe for concurrent use with Execute and other Register calls.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	r.rawTools[name] = t
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	r.tools[name] = t
}

// GetAllTools returns all registered tools (e.g. for exporting to LLM
// providers), sorted by name for deterministic order.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// GetTool returns the tool with the given name (after middlewares are applied),
// or (nil, false) if not found.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute dispatches one call and returns its textual result. Every expected
// failure is encoded in the text, never raised: an unregistered name yields
// "unknown tool `<name>`", arguments that fail the tool's schema yield
// "Invalid parameters: <violations>" without invoking the tool, and an error,
// panic, or timeout inside the tool yields "Error: <message>". The error
// return is reserved for the registry's own lifecycle: ErrShutdown after
// Shutdown, and the caller's context ending before a result was produced.
// Safe for concurrent use; different tools run with no lock between them.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	res := r.run(ctx, Call{Tool: name, Args: args})
	if res.Result == "" && res.Err != nil {
		return "", res.Err
	}
	return res.Result, nil
}

// ExecuteBatch runs all calls in parallel and collects results in input order.
// One call's failure never cancels the others (partial success).
func (r *Registry) ExecuteBatch(ctx context.Context, calls []Call) []CallResult {
	if len(calls) == 0 {
		return nil
	}
	results := make([]CallResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.run(ctx, call)
		}()
	}
	wg.Wait()
	return results
}

// run produces the CallResult for one call. The after-execution hook
// (WithOnAfterExecute) is always invoked via defer with the final result.
func (r *Registry) run(ctx context.Context, call Call) (res CallResult) {
	res.ID = call.ID
	res.Tool = call.Tool
	start := time.Now()
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, res, time.Since(start))
		}
	}()

	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		res.Err = ErrShutdown
		return res
	default:
	}
	tool, ok := r.tools[call.Tool]
	if !ok {
		r.mu.Unlock()
		res.Result = fmt.Sprintf("unknown tool `%s`", call.Tool)
		return res
	}
	r.running.Add(1)
	r.mu.Unlock()
	defer r.running.Done()

	if violations := Validate(tool.Parameters(), call.Args); len(violations) > 0 {
		joined := strings.Join(violations, "; ")
		res.Result = "Invalid parameters: " + joined
		res.Err = &ClientError{Reason: joined, Err: ErrValidation}
		return res
	}

	if err := r.acquireSemaphore(ctx); err != nil {
		res.Err = err
		return res
	}
	defer r.releaseSemaphore()

	timeout := r.opts.timeout
	if tm, ok := tool.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Recover defer is registered after the onAfter defer so it runs first on
	// panic and sets the result before the hook observes it.
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				res.Err = &SystemError{Err: &panicError{p: p}}
				res.Result = failureText(res.Err)
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	out, err := tool.Execute(execCtx, call.Args)
	if err != nil {
		if ctx.Err() != nil {
			// The caller's own context ended; there is no one to read a result.
			res.Err = ctx.Err()
			return res
		}
		res.Err = err
		res.Result = failureText(err)
		return res
	}
	res.Result = out
	return res
}

// failureText encodes an invocation failure as result text. SystemError's own
// Error() already hides internals, so the rendering is uniform.
func failureText(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Error: tool execution timed out"
	}
	return "Error: " + err.Error()
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// Shutdown closes the registry for new calls and waits for in-flight
// executions or ctx to cancel.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// panicError wraps a recovered panic value for SystemError; used by Registry
// and the WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
