package fetch

// Event is a progress event emitted by the fetch worker. The variant set is
// closed; consumers switch on the concrete type.
type Event interface {
	progressEvent()
}

// BytesReceived reports the size of one received chunk. Counts are per-chunk
// increments, never a re-measure of the whole buffer; the consumer keeps the
// running total.
type BytesReceived struct {
	Count int
}

// DecodeStarted marks the boundary where the stream has ended and decoding
// begins. Decoding is not preemptible, so this is the last point before the
// terminal result at which the consumer sees anything.
type DecodeStarted struct{}

func (BytesReceived) progressEvent() {}
func (DecodeStarted) progressEvent() {}
