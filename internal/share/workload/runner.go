package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/kolkov/isoshare/internal/share/atomicint"
	"github.com/kolkov/isoshare/internal/share/hashmap"
	"github.com/kolkov/isoshare/internal/share/queue"
	"github.com/kolkov/isoshare/internal/share/validate"
	"github.com/kolkov/isoshare/internal/share/value"
)

// Report is the outcome of Run. Each section states what was expected, what
// was observed and whether they agree.
type Report struct {
	Counter *CounterReport `yaml:"counter,omitempty"`
	Map     *MapReport     `yaml:"map,omitempty"`
	Queue   *QueueReport   `yaml:"queue,omitempty"`
	Elapsed string         `yaml:"elapsed"`
	OK      bool           `yaml:"ok"`
}

// CounterReport checks that no increment was lost.
type CounterReport struct {
	Expected int64 `yaml:"expected"`
	Got      int64 `yaml:"got"`
	OK       bool  `yaml:"ok"`
}

// MapReport checks map size and that every mutable write was refused.
type MapReport struct {
	ExpectedSize int  `yaml:"expected_size"`
	Size         int  `yaml:"size"`
	Rejected     int  `yaml:"rejected"`
	Shards       int  `yaml:"shards"`
	OK           bool `yaml:"ok"`
}

// QueueReport checks that every pushed item was popped exactly once and in
// per-producer order.
type QueueReport struct {
	Pushed          int  `yaml:"pushed"`
	Popped          int  `yaml:"popped"`
	Distinct        int  `yaml:"distinct"`
	OrderViolations int  `yaml:"order_violations"`
	OK              bool `yaml:"ok"`
}

// YAML renders the report.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Run executes cfg and returns the report.
//
// Every worker is a goroutine that shares nothing with the others except
// the containers under test. Workers run in one errgroup; the first worker
// error cancels the rest and is returned. A report whose checks fail is not
// an error: inspect Report.OK.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var counter *atomicint.Cell
	if cfg.Counter.Workers > 0 {
		counter = atomicint.New(cfg.Counter.Initial)
		runCounter(g, counter, cfg.Counter)
	}

	var m *hashmap.Map
	var rejected *atomicint.Cell
	if cfg.Map.Writers > 0 {
		m = hashmap.New(hashmap.Options{Shards: cfg.Map.Shards, Logger: logger})
		rejected = atomicint.New(0)
		runMap(g, m, rejected, cfg.Map)
	}

	var qs *queueState
	if cfg.Queue.Producers > 0 || cfg.Queue.Consumers > 0 {
		qs = newQueueState(logger)
		qs.run(gctx, g, cfg.Queue)
	}

	logger.Info("workload started",
		"counter_workers", cfg.Counter.Workers,
		"map_writers", cfg.Map.Writers,
		"producers", cfg.Queue.Producers,
		"consumers", cfg.Queue.Consumers)
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}

	r := &Report{OK: true}
	if counter != nil {
		want := cfg.Counter.Initial + int64(cfg.Counter.Workers)*int64(cfg.Counter.Increments)
		r.Counter = &CounterReport{Expected: want, Got: counter.Get()}
		r.Counter.OK = r.Counter.Expected == r.Counter.Got
		r.OK = r.OK && r.Counter.OK
	}
	if m != nil {
		r.Map = &MapReport{
			ExpectedSize: cfg.Map.Writers*cfg.Map.Keys + cfg.Map.SharedKeys,
			Size:         m.Size(),
			Rejected:     int(rejected.Get()),
			Shards:       m.Shards(),
		}
		r.Map.OK = r.Map.ExpectedSize == r.Map.Size && r.Map.Rejected == cfg.Map.Writers
		r.OK = r.OK && r.Map.OK
	}
	if qs != nil {
		r.Queue = qs.report()
		r.OK = r.OK && r.Queue.OK
	}
	r.Elapsed = time.Since(start).Round(time.Microsecond).String()
	logger.Info("workload finished", "ok", r.OK, "elapsed", r.Elapsed)
	return r, nil
}

func runCounter(g *errgroup.Group, c *atomicint.Cell, cfg CounterConfig) {
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < cfg.Increments; i++ {
				c.Increment()
			}
			return nil
		})
	}
}

// runMap starts the writers. Writer w owns keys [w, i]; all writers also
// race on the shared keys, and each tries once to store a mutable list,
// which must be refused.
func runMap(g *errgroup.Group, m *hashmap.Map, rejected *atomicint.Cell, cfg MapConfig) {
	for w := 0; w < cfg.Writers; w++ {
		g.Go(func() error {
			for i := 0; i < cfg.Keys; i++ {
				k := value.Frozen(value.Int(int64(w)), value.Int(int64(i)))
				if err := m.Set(k, value.Int(int64(i))); err != nil {
					return err
				}
			}
			for i := 0; i < cfg.SharedKeys; i++ {
				k := value.Frozen(value.Symbol("shared"), value.Int(int64(i)))
				if err := m.Set(k, value.Int(int64(w))); err != nil {
					return err
				}
			}
			err := m.Set(value.Symbol("mutable"), value.ListOf(value.NewList(value.Int(int64(w)))))
			if !errors.Is(err, validate.ErrNotShareable) {
				return fmt.Errorf("writer %d: mutable value not refused: %v", w, err)
			}
			rejected.Increment()
			return nil
		})
	}
}

// queueState holds the containers shared by producers and consumers.
//
// Consumers record every popped item in seen, keyed by the item itself, so
// seen.Size() counts distinct deliveries and popped counts all of them.
type queueState struct {
	q      *queue.Queue
	seen   *hashmap.Map
	pushed *atomicint.Cell
	popped *atomicint.Cell
	order  *atomicint.Cell
	log    *slog.Logger
}

func newQueueState(logger *slog.Logger) *queueState {
	return &queueState{
		q:      queue.New(queue.Options{Logger: logger}),
		seen:   hashmap.New(hashmap.Options{Logger: logger}),
		pushed: atomicint.New(0),
		popped: atomicint.New(0),
		order:  atomicint.New(0),
		log:    logger,
	}
}

func (s *queueState) run(ctx context.Context, g *errgroup.Group, cfg QueueConfig) {
	var producers sync.WaitGroup
	for p := 0; p < cfg.Producers; p++ {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			return s.produce(ctx, p, cfg)
		})
	}
	// Closing after the last producer lets consumers drain and stop.
	g.Go(func() error {
		producers.Wait()
		s.q.Close()
		return nil
	})
	for c := 0; c < cfg.Consumers; c++ {
		g.Go(func() error {
			return s.consume(ctx)
		})
	}
}

func (s *queueState) produce(ctx context.Context, p int, cfg QueueConfig) error {
	var lim *rate.Limiter
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	for i := 0; i < cfg.Items; i++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}
		if err := s.q.Push(value.Frozen(value.Int(int64(p)), value.Int(int64(i)))); err != nil {
			return fmt.Errorf("producer %d: %w", p, err)
		}
		s.pushed.Increment()
	}
	s.log.Debug("producer done", "producer", p, "items", cfg.Items)
	return nil
}

func (s *queueState) consume(ctx context.Context) error {
	last := map[int64]int64{}
	for {
		item, ok, err := s.q.PopContext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		s.popped.Increment()
		l := item.AsList()
		p, i := l.At(0).AsInt(), l.At(1).AsInt()
		if prev, seen := last[p]; seen && i <= prev {
			s.order.Increment()
		}
		last[p] = i
		if err := s.seen.Set(item, value.Bool(true)); err != nil {
			return err
		}
	}
}

func (s *queueState) report() *QueueReport {
	r := &QueueReport{
		Pushed:          int(s.pushed.Get()),
		Popped:          int(s.popped.Get()),
		Distinct:        s.seen.Size(),
		OrderViolations: int(s.order.Get()),
	}
	r.OK = r.Pushed == r.Popped && r.Popped == r.Distinct && r.OrderViolations == 0
	return r
}
