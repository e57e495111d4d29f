package metrics

import "math"

// EpisodeTracker accumulates per-env returns and lengths across a
// vectorized rollout, folding finished episodes into aggregate stats.
type EpisodeTracker struct {
	returns  []float64
	lengths  []int
	finished []float64

	count     int
	sumReturn float64
	maxReturn float64
}

func NewEpisodeTracker(numEnvs int) *EpisodeTracker {
	return &EpisodeTracker{
		returns:   make([]float64, numEnvs),
		lengths:   make([]int, numEnvs),
		maxReturn: math.Inf(-1),
	}
}

// Observe folds one vectorized step into the tracker. Short reward or
// done rows are tolerated; missing entries count as zero/false.
func (e *EpisodeTracker) Observe(rewards []float64, dones []bool) {
	for i := range e.returns {
		if i < len(rewards) {
			e.returns[i] += rewards[i]
		}
		e.lengths[i]++

		if i < len(dones) && dones[i] {
			e.finish(i)
		}
	}
}

func (e *EpisodeTracker) finish(i int) {
	ret := e.returns[i]
	e.finished = append(e.finished, ret)
	e.count++
	e.sumReturn += ret
	if ret > e.maxReturn {
		e.maxReturn = ret
	}
	e.returns[i] = 0
	e.lengths[i] = 0
}

func (e *EpisodeTracker) Episodes() int { return e.count }

// Returns lists every completed episode's return, in completion order.
func (e *EpisodeTracker) Returns() []float64 { return e.finished }

func (e *EpisodeTracker) MeanReturn() float64 {
	if e.count == 0 {
		return 0
	}
	return e.sumReturn / float64(e.count)
}

func (e *EpisodeTracker) MaxReturn() float64 {
	if e.count == 0 {
		return 0
	}
	return e.maxReturn
}

func (e *EpisodeTracker) Reset() {
	for i := range e.returns {
		e.returns[i] = 0
		e.lengths[i] = 0
	}
	e.finished = nil
	e.count = 0
	e.sumReturn = 0
	e.maxReturn = math.Inf(-1)
}
