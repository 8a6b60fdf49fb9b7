package resampler

import (
	"errors"
	"fmt"
	"sync"
)

// routeKey identifies one cached converter.
type routeKey struct {
	inputRate  int
	outputRate int
	channels   int
}

// Router resamples buffers whose rates and channel count vary from call to
// call. It keeps one converter per (input rate, output rate, channels) and
// copies buffers through unchanged when the rates match.
//
// The cache is safe for concurrent use. Calls that share a key share a
// converter and therefore a stream; serialize those.
type Router struct {
	quality Quality

	mu         sync.Mutex
	converters map[routeKey]*Converter
	closed     bool
}

// NewRouter creates a router whose converters use the given quality.
func NewRouter(quality Quality) *Router {
	return &Router{
		quality:    quality,
		converters: make(map[routeKey]*Converter),
	}
}

// Converter returns the cached converter for the key, creating it on first use.
func (r *Router) Converter(inputRate, outputRate, channels int) (*Converter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrInvalidHandle
	}

	key := routeKey{inputRate: inputRate, outputRate: outputRate, channels: channels}
	if conv, ok := r.converters[key]; ok {
		return conv, nil
	}

	conv, err := New(&Config{
		InputRate:  inputRate,
		OutputRate: outputRate,
		Channels:   channels,
		Quality:    r.quality,
	})
	if err != nil {
		return nil, err
	}
	r.converters[key] = conv
	return conv, nil
}

// Resample converts in from inputRate to outputRate and returns the number
// of samples written to out.
func (r *Router) Resample(in []int16, inputRate int, out []int16, outputRate, channels int) (int, error) {
	if inputRate != outputRate {
		conv, err := r.Converter(inputRate, outputRate, channels)
		if err != nil {
			return 0, err
		}
		return conv.Resample(channels, in, out)
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return 0, ErrInvalidHandle
	}

	if channels < 1 {
		return 0, fmt.Errorf("%w: channels must be at least 1", ErrInvalidConfig)
	}
	n := len(in) / channels * channels
	if len(out) < n {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, n, len(out))
	}
	return copy(out, in[:n]), nil
}

// Len returns the number of cached converters.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.converters)
}

// Close closes every cached converter. The router cannot be used afterwards.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrInvalidHandle
	}
	r.closed = true

	var errs []error
	for key, conv := range r.converters {
		if err := conv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %d->%d/%d: %w", key.inputRate, key.outputRate, key.channels, err))
		}
		delete(r.converters, key)
	}
	return errors.Join(errs...)
}
