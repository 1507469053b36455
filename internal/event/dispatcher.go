package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Publisher доставляет сериализованное событие во внешнюю шину.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// DispatcherConfig — политика доставки. Нули заменяются дефолтами,
// повторяющими политику CRM-очереди: 3 попытки, пауза от минуты с удвоением.
type DispatcherConfig struct {
	Attempts int
	Backoff  time.Duration
	Buffer   int
}

func (c *DispatcherConfig) withDefaults() {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Minute
	}
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
}

// Dispatcher — буфер между транзакционным ядром и внешней шиной.
// Dispatch никогда не блокирует вызывающего; при переполнении буфера
// событие теряется с записью в лог. Потребитель на стороне CRM обязан
// уметь жить с пропусками и повторами.
type Dispatcher struct {
	pub    Publisher
	log    *slog.Logger
	cfg    DispatcherConfig
	events chan Event
	done   chan struct{}
}

func NewDispatcher(pub Publisher, log *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	cfg.withDefaults()
	return &Dispatcher{
		pub:    pub,
		log:    log,
		cfg:    cfg,
		events: make(chan Event, cfg.Buffer),
		done:   make(chan struct{}),
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.log.Warn("event buffer full, dropping event",
			"event", string(ev.Type),
			"tenant_id", ev.TenantID,
		)
	}
}

// Run крутит цикл доставки до отмены контекста. Вызывать в отдельной горутине.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.deliver(ctx, ev)
		}
	}
}

// Done закрывается после завершения цикла доставки.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		d.log.Error("marshal event", "event", string(ev.Type), "error", err)
		return
	}

	backoff := d.cfg.Backoff
	for attempt := 1; attempt <= d.cfg.Attempts; attempt++ {
		err = d.pub.Publish(ctx, string(ev.Type), body)
		if err == nil {
			d.log.Debug("event delivered",
				"event", string(ev.Type),
				"tenant_id", ev.TenantID,
				"attempt", attempt,
			)
			return
		}

		d.log.Warn("event delivery failed",
			"event", string(ev.Type),
			"tenant_id", ev.TenantID,
			"attempt", attempt,
			"error", err,
		)

		if attempt == d.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	// Попытки исчерпаны: событие потеряно для шины, бронь уже закоммичена.
	d.log.Error("event delivery exhausted, giving up",
		"event", string(ev.Type),
		"tenant_id", ev.TenantID,
		"attempts", d.cfg.Attempts,
		"error", err,
	)
}

// LogPublisher — заглушка для окружений без брокера: просто пишет в лог.
type LogPublisher struct {
	Log *slog.Logger
}

func (p *LogPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.Log.Debug("crm integration disabled, event not published",
		"routing_key", routingKey,
		"size", len(body),
	)
	return nil
}
