package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xinjiayu/rx"
)

const defaultHorizon = 10 * time.Second

// ErrInvalidScenario is wrapped by every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Duration is a time.Duration written as "150ms" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Scenario is a timed list of source notifications and the pipeline they
// are pushed through.
type Scenario struct {
	Name     string   `yaml:"name"`
	Horizon  Duration `yaml:"horizon"`
	Events   []Event  `yaml:"events"`
	Pipeline []Step   `yaml:"pipeline"`
}

// Event is one source notification. Exactly one of Value, Error and
// Complete is set.
type Event struct {
	At       Duration `yaml:"at"`
	Value    *float64 `yaml:"value"`
	Error    *string  `yaml:"error"`
	Complete bool     `yaml:"complete"`
}

// Step is one operator of the pipeline.
type Step struct {
	Op       string   `yaml:"op"`
	Mul      *float64 `yaml:"mul"`
	Add      float64  `yaml:"add"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	N        int      `yaml:"n"`
	Duration Duration `yaml:"duration"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if s.Horizon == 0 {
		s.Horizon = Duration(defaultHorizon)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Horizon < 0 {
		return fmt.Errorf("%w: negative horizon", ErrInvalidScenario)
	}
	for i, ev := range s.Events {
		if ev.At < 0 {
			return fmt.Errorf("%w: event %d: negative time", ErrInvalidScenario, i)
		}
		payloads := 0
		if ev.Value != nil {
			payloads++
		}
		if ev.Error != nil {
			payloads++
		}
		if ev.Complete {
			payloads++
		}
		if payloads != 1 {
			return fmt.Errorf("%w: event %d: want exactly one of value, error, complete", ErrInvalidScenario, i)
		}
	}
	for i, step := range s.Pipeline {
		if err := step.validate(); err != nil {
			return fmt.Errorf("%w: step %d (%s): %v", ErrInvalidScenario, i, step.Op, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Op {
	case "map", "filter", "reduce", "scan":
		return nil
	case "take", "takeLast", "skip":
		if st.N < 0 {
			return errors.New("negative count")
		}
		return nil
	case "takeWhile":
		if st.Max == nil {
			return errors.New("max is required")
		}
		return nil
	case "debounce", "interval":
		if st.Duration <= 0 {
			return errors.New("duration must be positive")
		}
		return nil
	default:
		return errors.New("unknown op")
	}
}

// notification converts the event to the signal it carries.
func (ev Event) notification() rx.Notification[float64] {
	switch {
	case ev.Value != nil:
		return rx.NextNotification(*ev.Value)
	case ev.Error != nil:
		return rx.ErrorNotification[float64](errors.New(*ev.Error))
	default:
		return rx.CompleteNotification[float64]()
	}
}

// source schedules every event on the virtual clock for each subscriber.
func (s *Scenario) source(vs *rx.VirtualScheduler) *rx.Observable[float64] {
	return rx.New(func(observer *rx.SubscriptionObserver[float64]) rx.Teardown {
		tasks := rx.NewCompositeDisposable()
		for _, ev := range s.Events {
			n := ev.notification()
			tasks.Add(vs.ScheduleWithDelay(func() {
				n.Accept(observer)
			}, time.Duration(ev.At)))
		}
		return tasks
	})
}

// build applies the pipeline steps in order.
func (s *Scenario) build(vs *rx.VirtualScheduler) *rx.Observable[float64] {
	obs := s.source(vs)
	on := rx.WithScheduler(vs)
	sum := func(acc, v float64) float64 { return acc + v }

	for _, st := range s.Pipeline {
		switch st.Op {
		case "map":
			mul := 1.0
			if st.Mul != nil {
				mul = *st.Mul
			}
			add := st.Add
			obs = obs.Map(func(v float64) float64 { return v*mul + add })
		case "filter":
			lo, hi := st.Min, st.Max
			obs = obs.Filter(func(v float64) bool {
				return (lo == nil || v >= *lo) && (hi == nil || v <= *hi)
			})
		case "debounce":
			obs = obs.Debounce(time.Duration(st.Duration), on)
		case "take":
			obs = obs.Take(st.N)
		case "takeLast":
			obs = obs.TakeLast(st.N)
		case "skip":
			obs = obs.Skip(st.N)
		case "takeWhile":
			limit := *st.Max
			obs = obs.TakeWhile(func(v float64) bool { return v <= limit })
		case "reduce":
			obs = obs.Reduce(sum)
		case "scan":
			obs = rx.Scan(obs, 0.0, sum)
		case "interval":
			ticks := obs.Interval(time.Duration(st.Duration), on)
			obs = rx.Map(ticks, func(n int) float64 { return float64(n) })
		}
	}
	return obs
}

// Run replays the scenario up to its horizon and writes one line per
// notification to w.
func Run(s *Scenario, w io.Writer) error {
	vs := rx.NewVirtualScheduler()
	log := rx.GetLogger().WithField("scenario", s.Name)
	log.Debugf("replaying %d events through %d steps", len(s.Events), len(s.Pipeline))

	var werr error
	emit := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(w, "t=%s %s\n", vs.Elapsed(), fmt.Sprintf(format, args...))
	}

	sub := s.build(vs).Subscribe(rx.Observer[float64]{
		Next: func(v float64) {
			emit("next %v", v)
		},
		Error: func(err error) {
			emit("error %v", err)
		},
		Complete: func() {
			emit("complete")
		},
	})
	vs.AdvanceTimeTo(time.Duration(s.Horizon))

	if !sub.Closed() {
		log.Debugf("horizon %s reached before the stream terminated", time.Duration(s.Horizon))
		sub.Unsubscribe()
	}
	return werr
}
