package pipeline

import (
	"sync"

	"FinAgent/internal/model"
)

// Sink receives render blocks in display order.
type Sink interface {
	Emit(b model.Block)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(b model.Block)

func (f SinkFunc) Emit(b model.Block) { f(b) }

// BufferSink collects blocks in memory.
type BufferSink struct {
	mu     sync.Mutex
	blocks []model.Block
}

func (s *BufferSink) Emit(b model.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, b)
}

// Blocks returns a copy of the collected blocks.
func (s *BufferSink) Blocks() []model.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Block(nil), s.blocks...)
}

// Tee fans every block out to all sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(b model.Block) {
		for _, s := range sinks {
			s.Emit(b)
		}
	})
}
