package transcript

// AssignSpeakers labels transcription segments using diarization turns.
//
// Each transcription segment takes the speaker of the turn with the largest
// temporal overlap. On ties the earliest turn wins. Segments that overlap no
// turn keep their existing label. The input slice is not modified; order and
// text are preserved.
func AssignSpeakers(segments []Segment, turns []Segment) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	if len(turns) == 0 {
		return out
	}

	for i := range out {
		best := -1
		bestOverlap := 0.0
		for j, turn := range turns {
			if turn.Speaker == "" {
				continue
			}
			ov := overlap(out[i], turn)
			if ov > bestOverlap {
				best = j
				bestOverlap = ov
			}
		}
		if best >= 0 {
			out[i].Speaker = turns[best].Speaker
		}
	}
	return out
}

// overlap returns the length of the intersection of two intervals in seconds
func overlap(a, b Segment) float64 {
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	if end <= start {
		return 0
	}
	return end - start
}
