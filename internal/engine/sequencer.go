package engine

// sequencer hands out request epochs. Only the response carrying the latest
// epoch may change state. Callers hold the engine mutex.
type sequencer struct {
	epoch uint64
}

func (s *sequencer) next() uint64 {
	s.epoch++
	return s.epoch
}

func (s *sequencer) current(epoch uint64) bool {
	return s.epoch == epoch
}

// issued reports whether any request has been started
func (s *sequencer) issued() bool {
	return s.epoch > 0
}
