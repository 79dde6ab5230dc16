package backoff

import "time"

// Fibonacci produces a non-decreasing wait sequence of 1, 1, 2, 3, 5, ...
// seconds. Callers reset it whenever new data shows up, otherwise the wait
// keeps growing.
//
// A Fibonacci is not safe for concurrent use; each polling loop owns one.
type Fibonacci struct {
	start int
	a, b  int
}

// NewFibonacci returns a sequence whose first Next yields the start-th
// Fibonacci term (F1 = F2 = 1). A start of 1 or less begins at 1.
func NewFibonacci(start int) *Fibonacci {
	f := &Fibonacci{start: start}
	f.Reset()

	return f
}

// Next returns the next wait value in seconds.
func (f *Fibonacci) Next() int {
	v := f.a
	f.a, f.b = f.b, f.a+f.b

	return v
}

// Reset re-seeds the sequence to its configured start.
func (f *Fibonacci) Reset() {
	f.a, f.b = 1, 1

	for i := 1; i < f.start; i++ {
		f.Next()
	}
}

// Start returns the configured start term.
func (f *Fibonacci) Start() int {
	return f.start
}

// Seconds converts a sequence value to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
