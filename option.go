package wrs

import "math"

// Option configures a single EventBus or Composer call. Options that do not
// apply to a call are ignored.
type Option func(*options)

type options struct {
	name   string
	times  int
	like   bool
	noLike bool
	noCall bool
}

func resolveOptions(opts []Option) options {
	o := options{times: math.MaxInt}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName scopes a call to a named originator. On subscriptions it filters
// which emissions are received; on emissions it tags the event.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTimes limits how many times a subscription, responder or composer
// entry may be invoked before it is exhausted. Values below one are ignored.
func WithTimes(times int) Option {
	return func(o *options) {
		if times > 0 {
			o.times = times
		}
	}
}

// WithLike marks a subscription as like-eligible: it also receives
// emissions of other event types that its type matches as a pattern.
func WithLike() Option {
	return func(o *options) {
		o.like = true
	}
}

// WithoutLike disables like propagation on Emit and Fire.
func WithoutLike() Option {
	return func(o *options) {
		o.noLike = true
	}
}

// WithoutCall stores a responder or composer pattern as a plain value even
// when it is a function.
func WithoutCall() Option {
	return func(o *options) {
		o.noCall = true
	}
}
