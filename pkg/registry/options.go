package registry

import "time"

// Option is a functional option for configuring the Registry.
type Option func(*Registry)

// WithClock sets the time source used for registration and activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator sets the agent id generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithNotifier sets the receiver of registry change events.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithMetrics sets the metrics recorder for the registry.
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(l registryLogger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}
