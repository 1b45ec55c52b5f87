package rates

import "errors"

var (
	// ErrNoRate indicates the parser found no positive number in a response.
	ErrNoRate = errors.New("no rate found")
	// ErrMalformedRateResponse indicates a feed answered but its body carried no usable rate.
	ErrMalformedRateResponse = errors.New("malformed rate response")
	// ErrTransportFailure indicates the feed could not be reached or answered non-200.
	ErrTransportFailure = errors.New("rate feed transport failure")
)
