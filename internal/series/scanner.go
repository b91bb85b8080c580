package series

// direction is the current trend of the series walk.
type direction int

const (
	unknown direction = iota
	rising
	falling
)

// Scan walks the series once and returns its local extrema in index order.
//
// Each step compares value[i] to value[i-1]: strictly greater means rising,
// strictly less means falling, equal leaves the trend unchanged (plateaus
// are absorbed into the current run and never produce an extremum of their
// own). A flip from rising to falling records the previous index as a Peak;
// a flip from falling to rising records it as a Trough.
//
// The first point is seeded retroactively once the first real move is known
// (Peak when the series starts by falling, Trough when it starts by rising),
// and the last point is always appended as a closing extremum of the kind
// opposite to the last recorded one, so a drawdown in progress at the end of
// the record is not truncated.
//
// The returned sequence strictly alternates kind and its indices strictly
// increase. An entirely flat series yields exactly a Peak at the first index
// and a Trough at the last; callers will see one zero-magnitude event.
func Scan(s Series) ([]ExtremumPoint, error) {
	if len(s) < 2 {
		return nil, ErrInsufficientData
	}

	var points []ExtremumPoint
	trend := unknown

	for i := 1; i < len(s); i++ {
		var next direction
		switch {
		case s[i] > s[i-1]:
			next = rising
		case s[i] < s[i-1]:
			next = falling
		default:
			continue
		}

		if trend == unknown {
			kind := Trough
			if next == falling {
				kind = Peak
			}
			points = append(points, ExtremumPoint{Index: 0, Value: s[0], Kind: kind})
		} else if next != trend {
			kind := Peak
			if next == rising {
				kind = Trough
			}
			points = append(points, ExtremumPoint{Index: i - 1, Value: s[i-1], Kind: kind})
		}
		trend = next
	}

	if trend == unknown {
		// No value change anywhere: close off the single flat run.
		return []ExtremumPoint{
			{Index: 0, Value: s[0], Kind: Peak},
			{Index: len(s) - 1, Value: s[len(s)-1], Kind: Trough},
		}, nil
	}

	closing := Peak
	if points[len(points)-1].Kind == Peak {
		closing = Trough
	}
	points = append(points, ExtremumPoint{
		Index: len(s) - 1,
		Value: s[len(s)-1],
		Kind:  closing,
	})

	return points, nil
}
