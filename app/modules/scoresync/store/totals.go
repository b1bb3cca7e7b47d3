package scorestore

import "github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"

// ScoreToPar returns a participant's running score relative to par through
// throughHole inclusive (0 means all holes). Only holes with a recorded
// stroke count contribute.
func (s *Store) ScoreToPar(participantID sharedtypes.PlayerID, throughHole int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toParLocked(participantID, func(hole int) bool {
		return throughHole == 0 || hole <= throughHole
	})
}

// FrontNineToPar returns score-to-par over holes 1-9.
func (s *Store) FrontNineToPar(participantID sharedtypes.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toParLocked(participantID, func(hole int) bool { return hole <= 9 })
}

// BackNineToPar returns score-to-par over holes 10-18.
func (s *Store) BackNineToPar(participantID sharedtypes.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toParLocked(participantID, func(hole int) bool { return hole >= 10 })
}

// TotalToPar returns score-to-par over the whole round.
func (s *Store) TotalToPar(participantID sharedtypes.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toParLocked(participantID, func(int) bool { return true })
}

// GrossStrokes returns the raw stroke total over recorded holes.
func (s *Store) GrossStrokes(participantID sharedtypes.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, h := range s.holes {
		if e := s.byCell[cellKey{participant: participantID, hole: h.Number}]; e != nil && e.Current.Strokes != nil {
			total += int(*e.Current.Strokes)
		}
	}
	return total
}

func (s *Store) toParLocked(participantID sharedtypes.PlayerID, include func(hole int) bool) int {
	toPar := 0
	for _, h := range s.holes {
		if !include(h.Number) {
			continue
		}
		e := s.byCell[cellKey{participant: participantID, hole: h.Number}]
		if e == nil || e.Current.Strokes == nil {
			continue
		}
		toPar += int(*e.Current.Strokes) - h.Par
	}
	return toPar
}
