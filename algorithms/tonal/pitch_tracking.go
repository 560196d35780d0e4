package tonal

import (
	"fmt"
	"math"
)

// TrackingMode selects how per-frame candidates become the final pitch track
type TrackingMode int

const (
	// TrackingViterbi decodes the lowest-cost path over all frames
	TrackingViterbi TrackingMode = iota

	// TrackingLocalBest keeps the best candidate of each frame with no
	// smoothing. Lower fidelity: octave errors and isolated spurious frames
	// pass through unchanged.
	TrackingLocalBest
)

// String returns the mode name used in configuration files
func (m TrackingMode) String() string {
	switch m {
	case TrackingViterbi:
		return "viterbi"
	case TrackingLocalBest:
		return "local_best"
	default:
		return "unknown"
	}
}

// ParseTrackingMode maps a configuration name to a TrackingMode
func ParseTrackingMode(name string) (TrackingMode, error) {
	switch name {
	case "viterbi", "":
		return TrackingViterbi, nil
	case "local_best":
		return TrackingLocalBest, nil
	default:
		return TrackingViterbi, fmt.Errorf("unknown tracking mode %q", name)
	}
}

// PitchEstimate is the final per-frame result. Frequency and Confidence are
// zero for unvoiced frames.
type PitchEstimate struct {
	Index      int     `json:"index"`
	Time       float64 `json:"time"` // Frame start in seconds
	Voiced     bool    `json:"voiced"`
	Frequency  float64 `json:"frequency,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TrackerParams contains the cost model of the pitch tracker
type TrackerParams struct {
	Mode TrackingMode `json:"mode"`

	// Confidence at which voiced and unvoiced explanations cost the same
	VoicingThreshold float64 `json:"voicing_threshold"`

	// Cost per octave of frequency change between consecutive voiced frames
	JumpCost float64 `json:"jump_cost"`

	// Cost of entering or leaving the unvoiced state from a confident candidate
	SwitchCost float64 `json:"switch_cost"`
}

// DefaultTrackerParams returns the default cost model
func DefaultTrackerParams() TrackerParams {
	return TrackerParams{
		Mode:             TrackingViterbi,
		VoicingThreshold: 0.35,
		JumpCost:         0.6,
		SwitchCost:       0.2,
	}
}

// PitchTracker turns per-frame candidates into one estimate per frame.
//
// In Viterbi mode each frame has the states {unvoiced, candidate 1..k}.
// A candidate emits at 1-confidence, unvoiced at 1-VoicingThreshold.
// Moving between voiced states costs JumpCost per octave; moving into or out
// of unvoiced costs SwitchCost unless the voiced side is below the voicing
// threshold. The pass is sequential by nature.
type PitchTracker struct {
	params TrackerParams
}

// NewPitchTracker validates params and creates a tracker
func NewPitchTracker(params TrackerParams) (*PitchTracker, error) {
	if params.VoicingThreshold <= 0 || params.VoicingThreshold >= 1 {
		return nil, fmt.Errorf("voicing threshold must be in (0, 1): %v", params.VoicingThreshold)
	}
	if params.JumpCost < 0 || params.SwitchCost < 0 {
		return nil, fmt.Errorf("transition costs must be non-negative: jump=%v switch=%v",
			params.JumpCost, params.SwitchCost)
	}
	if params.Mode != TrackingViterbi && params.Mode != TrackingLocalBest {
		return nil, fmt.Errorf("unsupported tracking mode: %d", params.Mode)
	}
	return &PitchTracker{params: params}, nil
}

// Track resolves frames (ordered by index) into estimates. hopSeconds sets the
// Time of each estimate.
func (pt *PitchTracker) Track(frames []FrameCandidates, hopSeconds float64) []PitchEstimate {
	if len(frames) == 0 {
		return []PitchEstimate{}
	}

	var path []int
	switch pt.params.Mode {
	case TrackingLocalBest:
		path = pt.localBestPath(frames)
	default:
		path = pt.viterbiPath(frames)
	}

	estimates := make([]PitchEstimate, len(frames))
	for t, frame := range frames {
		estimates[t] = PitchEstimate{
			Index: frame.Index,
			Time:  float64(frame.Index) * hopSeconds,
		}
		if state := path[t]; state > 0 {
			c := frame.Candidates[state-1]
			estimates[t].Voiced = true
			estimates[t].Frequency = c.Frequency
			estimates[t].Confidence = c.Confidence
		}
	}

	return estimates
}

// viterbiPath returns the state index per frame of the minimum-cost path.
// State 0 is unvoiced and state s > 0 is candidate s-1. Ties go to the lower state.
func (pt *PitchTracker) viterbiPath(frames []FrameCandidates) []int {
	n := len(frames)
	cost := make([][]float64, n)
	back := make([][]int, n)

	for t := range n {
		states := len(frames[t].Candidates) + 1
		cost[t] = make([]float64, states)
		back[t] = make([]int, states)

		for s := range states {
			emit := pt.emission(frames[t], s)
			if t == 0 {
				cost[t][s] = emit
				back[t][s] = -1
				continue
			}

			best := math.Inf(1)
			bestPrev := 0
			for p := range cost[t-1] {
				c := cost[t-1][p] + pt.transition(frames[t-1], p, frames[t], s)
				if c < best {
					best = c
					bestPrev = p
				}
			}
			cost[t][s] = best + emit
			back[t][s] = bestPrev
		}
	}

	path := make([]int, n)
	state := 0
	for s := range cost[n-1] {
		if cost[n-1][s] < cost[n-1][state] {
			state = s
		}
	}
	for t := n - 1; t >= 0; t-- {
		path[t] = state
		state = back[t][state]
	}

	return path
}

// localBestPath picks the most confident candidate per frame, or unvoiced when
// it falls below the voicing threshold
func (pt *PitchTracker) localBestPath(frames []FrameCandidates) []int {
	path := make([]int, len(frames))
	for t, frame := range frames {
		best := -1
		for i, c := range frame.Candidates {
			if best < 0 || c.Confidence > frame.Candidates[best].Confidence {
				best = i
			}
		}
		if best >= 0 && frame.Candidates[best].Confidence >= pt.params.VoicingThreshold {
			path[t] = best + 1
		}
	}
	return path
}

func (pt *PitchTracker) emission(frame FrameCandidates, state int) float64 {
	if state == 0 {
		return 1.0 - pt.params.VoicingThreshold
	}
	return 1.0 - frame.Candidates[state-1].Confidence
}

func (pt *PitchTracker) transition(prev FrameCandidates, from int, cur FrameCandidates, to int) float64 {
	switch {
	case from == 0 && to == 0:
		return 0
	case from == 0:
		return pt.switchCost(cur.Candidates[to-1])
	case to == 0:
		return pt.switchCost(prev.Candidates[from-1])
	default:
		f0 := prev.Candidates[from-1].Frequency
		f1 := cur.Candidates[to-1].Frequency
		return pt.params.JumpCost * math.Abs(math.Log2(f1/f0))
	}
}

func (pt *PitchTracker) switchCost(c PitchCandidate) float64 {
	if c.Confidence < pt.params.VoicingThreshold {
		return 0
	}
	return pt.params.SwitchCost
}

// GetParameters returns the tracker parameters
func (pt *PitchTracker) GetParameters() TrackerParams {
	return pt.params
}
