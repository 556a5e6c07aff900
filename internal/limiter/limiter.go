package limiter

// Limiter bounds the number of extractions running at once. Slots are
// non-blocking: a caller that cannot get one should shed load (HTTP 503)
// instead of queueing.
type Limiter struct {
	sem chan struct{}
}

func New(maxInflight int) *Limiter {
	if maxInflight <= 0 {
		maxInflight = 8
	}
	return &Limiter{sem: make(chan struct{}, maxInflight)}
}

// Allow tries to reserve a slot. Returns a release function and true if
// allowed; otherwise a no-op and false.
func (l *Limiter) Allow() (func(), bool) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, true
	default:
		return func() {}, false
	}
}
