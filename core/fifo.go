package core

import "sync"

// FifoBuffer is a circular byte queue between a receiver (interrupt or
// reader goroutine) and the main loop. One slot is kept free to tell full
// from empty.
type FifoBuffer struct {
	mu    sync.Mutex
	buf   []byte
	read  int
	write int
	size  int
	lost  uint32
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity+1),
		size: capacity + 1,
	}
}

// Write appends data, dropping what does not fit. Returns bytes stored.
func (f *FifoBuffer) Write(data []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	f.lost += uint32(len(data) - written)
	return written
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available()
}

func (f *FifoBuffer) available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size - f.available() - 1
}

// Lost returns how many bytes were dropped because the queue was full.
func (f *FifoBuffer) Lost() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lost
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = 0
	f.write = 0
	f.lost = 0
}
