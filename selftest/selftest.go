// Package selftest runs the correctness properties and end-to-end
// scenarios the ct, ctmpi, and pkcs1 packages are expected to satisfy,
// and the statistical timing check that backs the suite's trace-
// independence claims. It is the engine behind the ctcheck CLI and the
// HTTP self-test endpoint.
package selftest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/lookbusy1344/constant-time-go/ct"
	"github.com/lookbusy1344/constant-time-go/cterr"
	"github.com/lookbusy1344/constant-time-go/ctmpi"
	"github.com/lookbusy1344/constant-time-go/pkcs1"
	"github.com/lookbusy1344/constant-time-go/report"
)

// Options configures a Run.
type Options struct {
	Iterations      int
	RunProperties   bool
	RunScenarios    bool
	RunTiming       bool
	TimingSamples   int
	TimingBufSize   int
	MaxSkewRatio    float64
	FailFast        bool
	// rng is overridable by tests for determinism; nil means time-seeded.
	rng *rand.Rand
}

// DefaultOptions returns sensible defaults for an interactive run.
func DefaultOptions() Options {
	return Options{
		Iterations:    1000,
		RunProperties: true,
		RunScenarios:  true,
		RunTiming:     true,
		TimingSamples: 5000,
		TimingBufSize: 256,
		MaxSkewRatio:  0.15,
	}
}

func (o Options) rand() *rand.Rand {
	if o.rng != nil {
		return o.rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Run executes the configured checks and returns the accumulated report.
func Run(opts Options) *report.Report {
	rep := report.New(time.Now())

	if opts.RunProperties {
		for _, res := range runProperties(opts) {
			rep.AddProperty(res)
			if opts.FailFast && !res.Passed {
				rep.Finalize()
				return rep
			}
		}
	}

	if opts.RunScenarios {
		for _, res := range runScenarios() {
			rep.AddScenario(res)
			if opts.FailFast && !res.Passed {
				rep.Finalize()
				return rep
			}
		}
	}

	if opts.RunTiming {
		for _, res := range runTimingChecks(opts) {
			rep.AddTiming(res)
		}
	}

	rep.Finalize()
	return rep
}

func runProperties(opts Options) []report.PropertyResult {
	rnd := opts.rand()
	n := opts.Iterations
	if n <= 0 {
		n = 1
	}

	return []report.PropertyResult{
		checkMaskOfBit(n, rnd),
		checkSelect(n, rnd),
		checkMemCompare(n, rnd),
		checkSizeComparisons(n, rnd),
		checkMPISafeCondAssign(n, rnd),
		checkMPISafeCondSwap(n, rnd),
	}
}

func checkMaskOfBit(n int, rnd *rand.Rand) report.PropertyResult {
	name := "mask_of_bit: zero maps to zero, nonzero maps to all-ones"
	if got := ct.MaskOfBit(uint32(0)); got != 0 {
		return report.PropertyResult{Name: name, Passed: false, Iterations: n,
			FailureDetail: fmt.Sprintf("mask_of_bit(0) = %#x, want 0", got)}
	}
	for i := 0; i < n; i++ {
		v := rnd.Uint32()
		if v == 0 {
			v = 1
		}
		if got := ct.MaskOfBit(v); got != ^uint32(0) {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("mask_of_bit(%#x) = %#x, want all-ones", v, got)}
		}
	}
	return report.PropertyResult{Name: name, Passed: true, Iterations: n}
}

func checkSelect(n int, rnd *rand.Rand) report.PropertyResult {
	name := "select: cond=1 yields a, cond=0 yields b"
	for i := 0; i < n; i++ {
		a, b := rnd.Uint32(), rnd.Uint32()
		if got := ct.Select(uint32(1), a, b); got != a {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("select(1, %#x, %#x) = %#x, want %#x", a, b, got, a)}
		}
		if got := ct.Select(uint32(0), a, b); got != b {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("select(0, %#x, %#x) = %#x, want %#x", a, b, got, b)}
		}
	}
	return report.PropertyResult{Name: name, Passed: true, Iterations: n}
}

func checkMemCompare(n int, rnd *rand.Rand) report.PropertyResult {
	name := "ct_memcmp: zero iff equal"
	for i := 0; i < n; i++ {
		length := rnd.Intn(64) + 1
		u := randomBytes(rnd, length)
		v := append([]byte(nil), u...)

		if got := ct.MemCompare(u, v); got != 0 {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("MemCompare(equal, len=%d) = %d, want 0", length, got)}
		}

		idx := rnd.Intn(length)
		v[idx] ^= 0xFF
		if got := ct.MemCompare(u, v); got == 0 {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("MemCompare(differing at %d, len=%d) = 0, want nonzero", idx, length)}
		}
	}
	return report.PropertyResult{Name: name, Passed: true, Iterations: n}
}

func checkSizeComparisons(n int, rnd *rand.Rand) report.PropertyResult {
	name := "size_lt/size_gt/size_eq/uint_lt agree with mathematical comparison"
	for i := 0; i < n; i++ {
		x, y := rnd.Uint32()%1000, rnd.Uint32()%1000

		wantLT := uint(0)
		if x < y {
			wantLT = 1
		}
		if got := ct.SizeLT(uint(x), uint(y)); got != wantLT {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("SizeLT(%d,%d) = %d, want %d", x, y, got, wantLT)}
		}

		wantGT := uint(0)
		if x > y {
			wantGT = 1
		}
		if got := ct.SizeGT(uint(x), uint(y)); got != wantGT {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("SizeGT(%d,%d) = %d, want %d", x, y, got, wantGT)}
		}

		wantEQ := uint(0)
		if x == y {
			wantEQ = 1
		}
		if got := ct.SizeEQ(uint(x), uint(y)); got != wantEQ {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("SizeEQ(%d,%d) = %d, want %d", x, y, got, wantEQ)}
		}

		wantULT := uint(0)
		if x < y {
			wantULT = 1
		}
		if got := ct.UintLT(x, y); got != wantULT {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: fmt.Sprintf("UintLT(%d,%d) = %d, want %d", x, y, got, wantULT)}
		}
	}
	return report.PropertyResult{Name: name, Passed: true, Iterations: n}
}

func checkMPISafeCondAssign(n int, rnd *rand.Rand) report.PropertyResult {
	name := "mpi_safe_cond_assign: assign=1 copies, assign=0 is identity"
	for i := 0; i < n; i++ {
		xLimbs := randomLimbs(rnd, 1+rnd.Intn(4))
		yLimbs := randomLimbs(rnd, 1+rnd.Intn(4))

		x := &ctmpi.Int{Sign: 1, Limbs: append([]ctmpi.Limb(nil), xLimbs...)}
		y := &ctmpi.Int{Sign: -1, Limbs: append([]ctmpi.Limb(nil), yLimbs...)}
		if err := ctmpi.SafeCondAssign(x, y, 0); err != nil {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: err.Error()}
		}
		if !limbsEqualPrefix(x.Limbs, xLimbs) {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: "assign=0 modified x"}
		}

		x2 := &ctmpi.Int{Sign: 1, Limbs: append([]ctmpi.Limb(nil), xLimbs...)}
		if err := ctmpi.SafeCondAssign(x2, y, 1); err != nil {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: err.Error()}
		}
		if x2.Sign != y.Sign || !limbsEqualPrefix(x2.Limbs, yLimbs) {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: "assign=1 did not copy y into x"}
		}
	}
	return report.PropertyResult{Name: name, Passed: true, Iterations: n}
}

func checkMPISafeCondSwap(n int, rnd *rand.Rand) report.PropertyResult {
	name := "mpi_safe_cond_swap: swap=1 exchanges, swap=0 is identity"
	for i := 0; i < n; i++ {
		xLimbs := randomLimbs(rnd, 1+rnd.Intn(4))
		yLimbs := randomLimbs(rnd, 1+rnd.Intn(4))

		x := &ctmpi.Int{Sign: 1, Limbs: append([]ctmpi.Limb(nil), xLimbs...)}
		y := &ctmpi.Int{Sign: -1, Limbs: append([]ctmpi.Limb(nil), yLimbs...)}
		if err := ctmpi.SafeCondSwap(x, y, 0); err != nil {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1, FailureDetail: err.Error()}
		}
		if !limbsEqualPrefix(x.Limbs, xLimbs) || !limbsEqualPrefix(y.Limbs, yLimbs) {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: "swap=0 modified an operand"}
		}

		x2 := &ctmpi.Int{Sign: 1, Limbs: append([]ctmpi.Limb(nil), xLimbs...)}
		y2 := &ctmpi.Int{Sign: -1, Limbs: append([]ctmpi.Limb(nil), yLimbs...)}
		if err := ctmpi.SafeCondSwap(x2, y2, 1); err != nil {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1, FailureDetail: err.Error()}
		}
		if x2.Sign != -1 || y2.Sign != 1 || !limbsEqualPrefix(x2.Limbs, yLimbs) || !limbsEqualPrefix(y2.Limbs, xLimbs) {
			return report.PropertyResult{Name: name, Passed: false, Iterations: i + 1,
				FailureDetail: "swap=1 did not exchange operands"}
		}
	}
	return report.PropertyResult{Name: name, Passed: true, Iterations: n}
}

func randomBytes(rnd *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rnd.Read(b) //nolint:errcheck // math/rand.Rand.Read never errors
	return b
}

func randomLimbs(rnd *rand.Rand, n int) []ctmpi.Limb {
	limbs := make([]ctmpi.Limb, n)
	for i := range limbs {
		limbs[i] = ctmpi.Limb(rnd.Uint64())
	}
	return limbs
}

// limbsEqualPrefix reports whether got equals want with any trailing
// zero-extension got may carry (SafeCondAssign/SafeCondSwap grow their
// operands rather than truncate).
func limbsEqualPrefix(got []ctmpi.Limb, want []ctmpi.Limb) bool {
	if len(got) < len(want) {
		return false
	}
	for i, w := range want {
		if got[i] != w {
			return false
		}
	}
	for i := len(want); i < len(got); i++ {
		if got[i] != 0 {
			return false
		}
	}
	return true
}

// buildPaddedBlock constructs 0x00 || 0x02 || padCount bytes of padByte
// || 0x00 || msg.
func buildPaddedBlock(padByte byte, padCount int, msg []byte) []byte {
	block := make([]byte, 0, 2+padCount+1+len(msg))
	block = append(block, 0x00, 0x02)
	for i := 0; i < padCount; i++ {
		block = append(block, padByte)
	}
	block = append(block, 0x00)
	block = append(block, msg...)
	return block
}

func runScenarios() []report.ScenarioResult {
	return []report.ScenarioResult{
		scenarioS1(), scenarioS2(), scenarioS3(), scenarioS4(), scenarioS5(), scenarioS6(),
	}
}

func scenarioS1() report.ScenarioResult {
	const name = "S1: valid padding, fits"
	input := buildPaddedBlock(0xAB, 250, []byte("Hello"))
	output := make([]byte, 128)
	n, err := pkcs1.Unpad(input, output)
	if err != nil {
		return report.ScenarioResult{Name: name, Passed: false, FailureDetail: err.Error()}
	}
	if n != 5 || string(output[:5]) != "Hello" {
		return report.ScenarioResult{Name: name, Passed: false,
			FailureDetail: fmt.Sprintf("olen=%d output=%q", n, output[:n])}
	}
	return report.ScenarioResult{Name: name, Passed: true}
}

func scenarioS2() report.ScenarioResult {
	const name = "S2: no separator"
	input := make([]byte, 258)
	input[0], input[1] = 0x00, 0x02
	for i := 2; i < len(input); i++ {
		input[i] = 0xCD
	}
	output := make([]byte, 128)
	_, err := pkcs1.Unpad(input, output)
	if !errors.Is(err, cterr.ErrInvalidPadding) {
		return report.ScenarioResult{Name: name, Passed: false,
			FailureDetail: fmt.Sprintf("err=%v, want ErrInvalidPadding", err)}
	}
	return report.ScenarioResult{Name: name, Passed: true}
}

func scenarioS3() report.ScenarioResult {
	const name = "S3: PS too short"
	input := buildPaddedBlock(0xAB, 5, make([]byte, 250))
	output := make([]byte, 1024)
	_, err := pkcs1.Unpad(input, output)
	if !errors.Is(err, cterr.ErrInvalidPadding) {
		return report.ScenarioResult{Name: name, Passed: false,
			FailureDetail: fmt.Sprintf("err=%v, want ErrInvalidPadding", err)}
	}
	return report.ScenarioResult{Name: name, Passed: true}
}

func scenarioS4() report.ScenarioResult {
	const name = "S4: output too large"
	msg := make([]byte, 200)
	for i := range msg {
		msg[i] = 0x42
	}
	input := buildPaddedBlock(0xAB, 8, msg)
	output := make([]byte, 100)
	_, err := pkcs1.Unpad(input, output)
	if !errors.Is(err, cterr.ErrOutputTooLarge) {
		return report.ScenarioResult{Name: name, Passed: false,
			FailureDetail: fmt.Sprintf("err=%v, want ErrOutputTooLarge", err)}
	}
	for i, b := range output {
		if b != msg[i] {
			return report.ScenarioResult{Name: name, Passed: false,
				FailureDetail: "output did not reveal the first 100 bytes of plaintext"}
		}
	}
	return report.ScenarioResult{Name: name, Passed: true}
}

func scenarioS5() report.ScenarioResult {
	const name = "S5: leading byte wrong"
	input := buildPaddedBlock(0xAB, 250, []byte("Hello"))
	input[0] = 0x01
	output := make([]byte, 128)
	_, err := pkcs1.Unpad(input, output)
	if !errors.Is(err, cterr.ErrInvalidPadding) {
		return report.ScenarioResult{Name: name, Passed: false,
			FailureDetail: fmt.Sprintf("err=%v, want ErrInvalidPadding", err)}
	}
	return report.ScenarioResult{Name: name, Passed: true}
}

func scenarioS6() report.ScenarioResult {
	const name = "S6: cond_swap identity check over 8 limbs"
	newInts := func() (*ctmpi.Int, *ctmpi.Int) {
		x := &ctmpi.Int{Sign: 1, Limbs: make([]ctmpi.Limb, 8)}
		y := &ctmpi.Int{Sign: 1, Limbs: make([]ctmpi.Limb, 8)}
		for i := range x.Limbs {
			x.Limbs[i] = 0x1111111111111111
			y.Limbs[i] = 0xFFFFFFFFFFFFFFFF
		}
		return x, y
	}

	x, y := newInts()
	xBefore, yBefore := append([]ctmpi.Limb(nil), x.Limbs...), append([]ctmpi.Limb(nil), y.Limbs...)
	if err := ctmpi.SafeCondSwap(x, y, 0); err != nil {
		return report.ScenarioResult{Name: name, Passed: false, FailureDetail: err.Error()}
	}
	if !limbsEqualPrefix(x.Limbs, xBefore) || !limbsEqualPrefix(y.Limbs, yBefore) {
		return report.ScenarioResult{Name: name, Passed: false, FailureDetail: "swap=0 changed a value"}
	}

	x, y = newInts()
	if err := ctmpi.SafeCondSwap(x, y, 1); err != nil {
		return report.ScenarioResult{Name: name, Passed: false, FailureDetail: err.Error()}
	}
	if !limbsEqualPrefix(x.Limbs, yBefore) || !limbsEqualPrefix(y.Limbs, xBefore) {
		return report.ScenarioResult{Name: name, Passed: false, FailureDetail: "swap=1 did not exchange values"}
	}
	return report.ScenarioResult{Name: name, Passed: true}
}

// runTimingChecks performs a coarse statistical check that wall-clock
// time for ct.MemCompare does not correlate with where two buffers
// first differ. It is not a substitute for the symbolic/trace analysis
// called for in property 7, but catches gross regressions (e.g. an
// accidentally reintroduced early-return).
func runTimingChecks(opts Options) []report.TimingResult {
	samples := opts.TimingSamples
	if samples <= 0 {
		samples = 1000
	}
	bufSize := opts.TimingBufSize
	if bufSize <= 0 {
		bufSize = 64
	}
	maxSkew := opts.MaxSkewRatio
	if maxSkew <= 0 {
		maxSkew = 0.15
	}
	rnd := opts.rand()

	return []report.TimingResult{
		timeMemCompare(rnd, samples, bufSize, maxSkew),
	}
}

func timeMemCompare(rnd *rand.Rand, samples, bufSize int, maxSkew float64) report.TimingResult {
	const name = "ct_memcmp duration is independent of mismatch position"

	a := randomBytes(rnd, bufSize)

	earlyTotal := time.Duration(0)
	lateTotal := time.Duration(0)

	for i := 0; i < samples; i++ {
		early := append([]byte(nil), a...)
		early[0] ^= 0xFF
		start := time.Now()
		ct.MemCompare(a, early)
		earlyTotal += time.Since(start)

		late := append([]byte(nil), a...)
		late[bufSize-1] ^= 0xFF
		start = time.Now()
		ct.MemCompare(a, late)
		lateTotal += time.Since(start)
	}

	earlyAvg := float64(earlyTotal) / float64(samples)
	lateAvg := float64(lateTotal) / float64(samples)
	skew := math.Abs(earlyAvg-lateAvg) / math.Max(earlyAvg, lateAvg)

	return report.TimingResult{
		Name:         name,
		Passed:       skew <= maxSkew,
		Samples:      samples,
		SkewRatio:    skew,
		MaxSkewRatio: maxSkew,
	}
}
