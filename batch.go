package statekit

// Batch executes the operations with notifications deferred. Events produced
// inside the batch are queued and deduplicated per key to the final event,
// then flushed once after every operation has run: one notification per
// changed key, carrying that key's final value, in first-change key order.
//
// Nested batches are folded into the outermost one and flush when it ends.
// The flush runs even if an operation panics, so listeners never miss state
// that was already written through.
func (s *Service) Batch(ops ...func()) {
	s.mu.Lock()
	s.batchDepth++
	if s.batchDepth == 1 {
		s.pending = make(map[Key]Event)
		s.pendingOrder = nil
	}
	s.mu.Unlock()

	defer s.flushBatch()

	for _, op := range ops {
		if op != nil {
			op()
		}
	}
}

// flushBatch ends one batch level and, at the outermost level, delivers the
// queued events.
func (s *Service) flushBatch() {
	s.mu.Lock()
	s.batchDepth--
	if s.batchDepth > 0 {
		s.mu.Unlock()
		return
	}
	pending := s.pending
	order := s.pendingOrder
	s.pending = nil
	s.pendingOrder = nil
	s.mu.Unlock()

	if len(order) == 0 {
		return
	}

	s.metrics.RecordBatchFlush()
	for _, key := range order {
		s.fanout(pending[key])
	}
}
