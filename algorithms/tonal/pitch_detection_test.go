package tonal

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/pitchrange/algorithms/common"
	"github.com/matryer/is"
)

const testSampleRate = 44100

func sineFrame(freq float64, n int) common.Frame {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return common.Frame{Samples: samples}
}

func newTestEstimator(t *testing.T, mutate func(*EstimatorParams)) *PitchEstimator {
	t.Helper()
	params := DefaultEstimatorParams(testSampleRate, 65.4, 2093.0)
	if mutate != nil {
		mutate(&params)
	}
	pe, err := NewPitchEstimator(params)
	if err != nil {
		t.Fatalf("NewPitchEstimator: %v", err)
	}
	return pe
}

func TestPitchEstimator_Sine(t *testing.T) {
	for _, useFFT := range []bool{true, false} {
		for _, freq := range []float64{82.41, 220.0, 440.0, 1046.5} {
			is := is.New(t)

			pe := newTestEstimator(t, func(p *EstimatorParams) { p.UseFFT = useFFT })
			fc, err := pe.Estimate(sineFrame(freq, 2048))
			is.NoErr(err)
			is.True(fc.Voiced())
			is.True(!fc.Fallback) // a clean sine dips below the threshold

			primary := fc.Candidates[0]
			is.True(math.Abs(primary.Frequency-freq) < freq*0.003) // within ~5 cents
			is.True(primary.Confidence > 0.9)
		}
	}
}

func TestPitchEstimator_HarmonicTone(t *testing.T) {
	is := is.New(t)

	// Sawtooth-like tone with a weaker fundamental than its second harmonic
	const f0 = 150.0
	samples := make([]float64, 2048)
	for i := range samples {
		x := 2 * math.Pi * f0 * float64(i) / testSampleRate
		samples[i] = 0.3*math.Sin(x) + 0.4*math.Sin(2*x) + 0.2*math.Sin(3*x) + 0.1*math.Sin(4*x)
	}

	fc, err := newTestEstimator(t, nil).Estimate(common.Frame{Samples: samples})
	is.NoErr(err)
	is.True(fc.Voiced())
	is.True(math.Abs(fc.Candidates[0].Frequency-f0) < 1.0)
}

func TestPitchEstimator_AlternatesAreDiscounted(t *testing.T) {
	is := is.New(t)

	pe := newTestEstimator(t, nil)
	fc, err := pe.Estimate(sineFrame(220, 2048))
	is.NoErr(err)

	is.True(len(fc.Candidates) > 1) // period multiples show up as alternates
	is.True(len(fc.Candidates) <= pe.GetParameters().MaxCandidates)
	for _, alt := range fc.Candidates[1:] {
		is.True(alt.Confidence <= pe.GetParameters().AlternateWeight)
		is.True(alt.Frequency < 220) // multiples of the period are subharmonics
		is.True(alt.Frequency >= 65.4)
	}
}

func TestPitchEstimator_Silence(t *testing.T) {
	is := is.New(t)

	fc, err := newTestEstimator(t, nil).Estimate(common.Frame{Index: 3, Samples: make([]float64, 2048)})
	is.NoErr(err)
	is.Equal(fc.Index, 3)
	is.True(!fc.Voiced())
}

func TestPitchEstimator_OutOfRangeIsUnvoiced(t *testing.T) {
	is := is.New(t)

	// The first dip sits at the 440 Hz period, above the configured maximum
	pe := newTestEstimator(t, func(p *EstimatorParams) { p.MaxFreq = 300 })
	fc, err := pe.Estimate(sineFrame(440, 2048))
	is.NoErr(err)
	is.True(!fc.Voiced())
}

func TestPitchEstimator_NoiseHasLowConfidence(t *testing.T) {
	pe := newTestEstimator(t, nil)

	for seed := uint64(1); seed <= 5; seed++ {
		is := is.New(t)

		rng := rand.New(rand.NewPCG(seed, seed*7919))
		samples := make([]float64, 2048)
		for i := range samples {
			samples[i] = rng.Float64()*2 - 1
		}

		fc, err := pe.Estimate(common.Frame{Samples: samples})
		is.NoErr(err)
		for _, c := range fc.Candidates {
			is.True(c.Confidence <= 0.5) // noise never passes the first-dip threshold
		}
	}
}

func TestPitchEstimator_DifferenceFunctionsAgree(t *testing.T) {
	is := is.New(t)

	pe := newTestEstimator(t, nil)
	rng := rand.New(rand.NewPCG(42, 43))
	x := make([]float64, 2048)
	for i := range x {
		x[i] = 0.5*math.Sin(2*math.Pi*196*float64(i)/testSampleRate) + 0.2*(rng.Float64()*2-1)
	}

	direct := pe.differenceDirect(x)
	viaFFT := pe.differenceFFT(x)
	is.Equal(len(direct), len(viaFFT))

	for tau := range direct {
		is.True(math.Abs(direct[tau]-viaFFT[tau]) < 1e-8*(1+direct[tau]))
	}
}

func TestCumulativeMeanNormalized(t *testing.T) {
	is := is.New(t)

	cmndf := CumulativeMeanNormalized([]float64{0, 2, 4, 0})
	is.Equal(cmndf[0], 1.0)
	is.Equal(cmndf[1], 1.0)     // 2·1/2
	is.Equal(cmndf[2], 4.0/3.0) // 4·2/6
	is.Equal(cmndf[3], 0.0)

	zero := CumulativeMeanNormalized([]float64{0, 0, 0})
	is.Equal(zero, []float64{1, 1, 1}) // zero running sum maps to 1
}

func TestPitchEstimator_Errors(t *testing.T) {
	is := is.New(t)

	pe := newTestEstimator(t, nil)
	_, err := pe.Estimate(common.Frame{Samples: make([]float64, 100)})
	is.True(err != nil) // wrong frame size

	bad := []func(*EstimatorParams){
		func(p *EstimatorParams) { p.SampleRate = 0 },
		func(p *EstimatorParams) { p.MinFreq = 0 },
		func(p *EstimatorParams) { p.MaxFreq = p.MinFreq },
		func(p *EstimatorParams) { p.Threshold = 1.5 },
		func(p *EstimatorParams) { p.MaxCandidates = 0 },
		func(p *EstimatorParams) { p.FrameLength = 4 },
		func(p *EstimatorParams) { p.FrameLength = 32 }, // lag window is empty
	}
	for _, mutate := range bad {
		params := DefaultEstimatorParams(testSampleRate, 65.4, 2093.0)
		mutate(&params)
		_, err := NewPitchEstimator(params)
		is.True(err != nil)
	}
}

func TestPitchEstimator_LagRange(t *testing.T) {
	is := is.New(t)

	minLag, maxLag := newTestEstimator(t, nil).LagRange()
	is.Equal(minLag, 21)  // floor(44100/2093)
	is.Equal(maxLag, 675) // ceil(44100/65.4)
}
