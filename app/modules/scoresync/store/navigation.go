package scorestore

import "github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"

// Cell addresses one position in the (participant x hole) entry grid.
type Cell struct {
	ParticipantID sharedtypes.PlayerID
	HoleNumber    int
}

// participantIndexLocked returns the display-order index, -1 if unknown.
func (s *Store) participantIndexLocked(id sharedtypes.PlayerID) int {
	for i, pid := range s.order {
		if pid == id {
			return i
		}
	}
	return -1
}

func (s *Store) holeIndexLocked(number int) int {
	for i, h := range s.holes {
		if h.Number == number {
			return i
		}
	}
	return -1
}

// MoveUp moves to the previous participant in display order, clamped at the
// first row.
func (s *Store) MoveUp(from Cell) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.participantIndexLocked(from.ParticipantID)
	if i > 0 {
		from.ParticipantID = s.order[i-1]
	}
	return from
}

// MoveDown moves to the next participant in display order, clamped at the
// last row.
func (s *Store) MoveDown(from Cell) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.participantIndexLocked(from.ParticipantID)
	if i >= 0 && i < len(s.order)-1 {
		from.ParticipantID = s.order[i+1]
	}
	return from
}

// MoveLeft moves to the previous hole, clamped at the first.
func (s *Store) MoveLeft(from Cell) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.holeIndexLocked(from.HoleNumber)
	if i > 0 {
		from.HoleNumber = s.holes[i-1].Number
	}
	return from
}

// MoveRight moves to the next hole, clamped at the last.
func (s *Store) MoveRight(from Cell) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.holeIndexLocked(from.HoleNumber)
	if i >= 0 && i < len(s.holes)-1 {
		from.HoleNumber = s.holes[i+1].Number
	}
	return from
}

// Next advances one cell in hole-major order: through the participants of a
// hole, then to the first participant of the next hole, wrapping from the
// last cell of the grid to the first.
func (s *Store) Next(from Cell) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi := s.participantIndexLocked(from.ParticipantID)
	hi := s.holeIndexLocked(from.HoleNumber)
	if pi < 0 || hi < 0 || len(s.order) == 0 {
		return from
	}
	pi++
	if pi >= len(s.order) {
		pi = 0
		hi++
		if hi >= len(s.holes) {
			hi = 0
		}
	}
	return Cell{ParticipantID: s.order[pi], HoleNumber: s.holes[hi].Number}
}

// Prev is the inverse of Next.
func (s *Store) Prev(from Cell) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi := s.participantIndexLocked(from.ParticipantID)
	hi := s.holeIndexLocked(from.HoleNumber)
	if pi < 0 || hi < 0 || len(s.order) == 0 {
		return from
	}
	pi--
	if pi < 0 {
		pi = len(s.order) - 1
		hi--
		if hi < 0 {
			hi = len(s.holes) - 1
		}
	}
	return Cell{ParticipantID: s.order[pi], HoleNumber: s.holes[hi].Number}
}
