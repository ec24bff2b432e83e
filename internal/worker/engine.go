package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds a bus topic to its handler. Handlers join
// the engine through the `worker.handlers` fx group.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Engine runs the configured number of consumers over the bus and
// dispatches messages by topic.
type Engine struct {
	bus      messaging.Client
	logger   *zap.Logger
	workers  config.Worker
	enabled  bool
	handlers map[string]messaging.Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Params collects engine dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// NewEngine indexes the registered handlers by topic.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, reg := range p.Registrations {
		if reg.Topic == "" || reg.Handler == nil {
			continue
		}
		handlers[reg.Topic] = reg.Handler
	}

	return &Engine{
		bus:      p.Client,
		logger:   p.Logger,
		workers:  p.Config.Messaging.Workers,
		enabled:  p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		handlers: handlers,
	}
}

// Module ties the engine to the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.enabled {
		e.logger.Info("order worker disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("order worker has no registered handlers")
		return nil
	}

	concurrency := e.workers.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := 0; i < concurrency; i++ {
		e.wg.Add(1)
		go func(id int) {
			defer e.wg.Done()
			e.run(runCtx, id)
		}(i)
	}

	e.logger.Info("order worker started", zap.Int("consumers", concurrency))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("order worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run consumes until cancelled, doubling the retry delay after each
// consecutive bus failure up to maxBackoff.
func (e *Engine) run(ctx context.Context, id int) {
	delay := time.Second
	for ctx.Err() == nil {
		err := e.bus.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, msg, id)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("bus consume failed", zap.Int("consumer", id), zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		if delay < maxBackoff {
			delay *= 2
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, msg messaging.Message, id int) error {
	handler, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("message on unhandled topic", zap.String("topic", msg.Topic))
		return nil
	}
	e.logger.Debug("handling message", zap.String("topic", msg.Topic), zap.Int("consumer", id))
	return handler(ctx, msg)
}
