package frame

import (
	"errors"
	"fmt"
	"math"

	"github.com/nazgoflac/flac/internal/bits"
)

// A SubFrame contains the decoded audio data of a channel.
type SubFrame struct {
	// Header specifies the attributes of the subframe, like prediction method
	// and order, residual coding parameters, etc.
	Header *SubHeader
	// Samples contains the decoded audio samples of the channel.
	Samples []Sample
}

// A Sample is an audio sample. The size of each sample is between 4 and 32
// bits.
type Sample int32

// NewSubFrame parses and returns a new subframe, which consists of a subframe
// header and encoded audio samples. bps is the subframe's effective
// bits-per-sample, which may be one bit wider than the frame's bits-per-sample
// for the side channel of an inter-channel decorrelation mode.
//
// Subframe format (pseudo code):
//
//	type SUBFRAME struct {
//	   header      SUBFRAME_HEADER
//	   enc_samples SUBFRAME_CONSTANT || SUBFRAME_FIXED || SUBFRAME_LPC ||
//	               SUBFRAME_VERBATIM
//	}
//
// ref: http://flac.sourceforge.net/format.html#subframe
func (h *Header) NewSubFrame(br *bits.Reader, bps uint) (subframe *SubFrame, err error) {
	// Parse subframe header.
	subframe = new(SubFrame)
	subframe.Header, err = h.NewSubHeader(br)
	if err != nil {
		return nil, err
	}

	// A wasted-bits-per-sample count shortens the effective sample width for
	// the remainder of the subframe.
	sh := subframe.Header
	effBps := bps - uint(sh.WastedBitCount)

	switch sh.PredMethod {
	case PredConstant:
		subframe.Samples, err = h.DecodeConstant(br, effBps)
	case PredFixed:
		subframe.Samples, err = h.DecodeFixed(br, int(sh.PredOrder), effBps)
	case PredLPC:
		subframe.Samples, err = h.DecodeLPC(br, int(sh.PredOrder), effBps)
	case PredVerbatim:
		subframe.Samples, err = h.DecodeVerbatim(br, effBps)
	default:
		return nil, fmt.Errorf("frame.Header.NewSubFrame: unknown subframe prediction method: %d", sh.PredMethod)
	}
	if err != nil {
		return nil, err
	}

	if sh.WastedBitCount > 0 {
		for i, s := range subframe.Samples {
			subframe.Samples[i] = s << uint(sh.WastedBitCount)
		}
	}

	return subframe, nil
}

// A SubHeader is a subframe header, which contains information about how the
// subframe audio samples are encoded.
type SubHeader struct {
	// PredMethod is the subframe prediction method.
	PredMethod PredMethod
	// WastedBitCount is the number of wasted bits per sample.
	WastedBitCount int8
	// PredOrder is the subframe predictor order, which is used accordingly:
	//    Fixed: Predictor order.
	//    LPC:   LPC order.
	PredOrder int8
}

// PredMethod specifies the subframe prediction method.
type PredMethod int8

// Subframe prediction methods.
const (
	PredConstant PredMethod = iota
	PredFixed
	PredLPC
	PredVerbatim
)

// NewSubHeader parses and returns a new subframe header.
//
// Subframe header format (pseudo code):
//
//	type SUBFRAME_HEADER struct {
//	   _                uint1 // zero-padding, to prevent sync-fooling.
//	   type             uint6
//	   // 0: no wasted bits-per-sample in source subblock, k = 0.
//	   // 1: k wasted bits-per-sample in source subblock, k-1 follows, unary
//	   // coded; e.g. k=3 => 001 follows, k=7 => 0000001 follows.
//	   wasted_bit_count uint1+k
//	}
//
// ref: http://flac.sourceforge.net/format.html#subframe_header
func (h *Header) NewSubHeader(br *bits.Reader) (sh *SubHeader, err error) {
	// field 0: padding (1 bit)
	padding, err := br.Read(1)
	if err != nil {
		return nil, err
	}
	if padding != 0 {
		return nil, errors.New("frame.Header.NewSubHeader: invalid padding; must be 0")
	}

	// field 1: type (6 bits)
	n, err := br.Read(6)
	if err != nil {
		return nil, err
	}

	// Subframe prediction method.
	//    000000: SUBFRAME_CONSTANT
	//    000001: SUBFRAME_VERBATIM
	//    00001x: reserved
	//    0001xx: reserved
	//    001xxx: if(xxx <= 4) SUBFRAME_FIXED, xxx=order ; else reserved
	//    01xxxx: reserved
	//    1xxxxx: SUBFRAME_LPC, xxxxx=order-1
	sh = new(SubHeader)
	switch {
	case n == 0:
		sh.PredMethod = PredConstant
	case n == 1:
		sh.PredMethod = PredVerbatim
	case n < 8:
		return nil, fmt.Errorf("frame.Header.NewSubHeader: invalid subframe prediction method; reserved bit pattern: %06b", n)
	case n < 16:
		const predOrderMask = 0x07
		sh.PredOrder = int8(n) & predOrderMask
		if sh.PredOrder > 4 {
			return nil, fmt.Errorf("frame.Header.NewSubHeader: invalid subframe prediction method; reserved bit pattern: %06b", n)
		}
		sh.PredMethod = PredFixed
	case n < 32:
		return nil, fmt.Errorf("frame.Header.NewSubHeader: invalid subframe prediction method; reserved bit pattern: %06b", n)
	case n < 64:
		const predOrderMask = 0x1F
		sh.PredOrder = int8(n)&predOrderMask + 1
		sh.PredMethod = PredLPC
	default:
		// should be unreachable.
		panic(fmt.Errorf("frame.Header.NewSubHeader: unhandled subframe prediction method; bit pattern: %06b", n))
	}

	// Wasted bits-per-sample, 1+k bits.
	hasWastedBits, err := br.Read(1)
	if err != nil {
		return nil, err
	}
	if hasWastedBits != 0 {
		// k wasted bits-per-sample in source subblock, k-1 follows, unary coded;
		// e.g. k=3 => 001 follows, k=7 => 0000001 follows.
		n, err := br.ReadUnary()
		if err != nil {
			return nil, err
		}
		sh.WastedBitCount = int8(n) + 1
	}

	return sh, nil
}

// DecodeConstant decodes and returns a slice of samples. The first sample is
// constant throughout the entire subframe.
//
// ref: http://flac.sourceforge.net/format.html#subframe_constant
func (h *Header) DecodeConstant(br *bits.Reader, bps uint) (samples []Sample, err error) {
	// Read constant sample.
	x, err := br.Read(bps)
	if err != nil {
		return nil, err
	}
	sample := Sample(bits.IntN(x, bps))

	// Duplicate the constant sample, sample count number of times.
	samples = make([]Sample, h.SampleCount)
	for i := range samples {
		samples[i] = sample
	}

	return samples, nil
}

// fixedCoeffs maps from prediction order to the LPC coefficients used in fixed
// encoding.
//
//	x_0[n] = 0
//	x_1[n] = x[n-1]
//	x_2[n] = 2*x[n-1] - x[n-2]
//	x_3[n] = 3*x[n-1] - 3*x[n-2] + x[n-3]
//
// ref: Section 2.2 of http://www.hpl.hp.com/techreports/1999/HPL-1999-144.pdf
var fixedCoeffs = [...][]int32{
	0: {},
	1: {1},
	2: {2, -1},
	3: {3, -3, 1},
	4: {4, -6, 4, -1},
}

// DecodeFixed decodes and returns a slice of samples.
//
// ref: http://flac.sourceforge.net/format.html#subframe_fixed
func (h *Header) DecodeFixed(br *bits.Reader, predOrder int, bps uint) (samples []Sample, err error) {
	// Unencoded warm-up samples:
	//    n bits = frame's bits-per-sample * predictor order
	warm := make([]Sample, predOrder)
	for i := range warm {
		x, err := br.Read(bps)
		if err != nil {
			return nil, err
		}
		warm[i] = Sample(bits.IntN(x, bps))
	}

	residuals, err := h.DecodeResidual(br, predOrder)
	if err != nil {
		return nil, err
	}
	return lpcDecode(fixedCoeffs[predOrder], warm, residuals, 0), nil
}

// lpcDecode decodes a set of samples using LPC (Linear Predictive Coding) with
// FIR (Finite Impulse Response) predictors.
func lpcDecode(coeffs []int32, warm []Sample, residuals []int32, shift uint) (samples []Sample) {
	samples = make([]Sample, len(warm)+len(residuals))
	copy(samples, warm)
	for i := len(warm); i < len(samples); i++ {
		var sum int64
		for j, coeff := range coeffs {
			sum += int64(coeff) * int64(samples[i-j-1])
		}
		samples[i] = Sample(int64(residuals[i-len(warm)]) + sum>>shift)
	}
	return samples
}

// DecodeLPC decodes and returns a slice of samples.
//
// ref: http://flac.sourceforge.net/format.html#subframe_lpc
func (h *Header) DecodeLPC(br *bits.Reader, lpcOrder int, bps uint) (samples []Sample, err error) {
	// Unencoded warm-up samples:
	//    n bits = frame's bits-per-sample * lpc order
	warm := make([]Sample, lpcOrder)
	for i := range warm {
		x, err := br.Read(bps)
		if err != nil {
			return nil, err
		}
		warm[i] = Sample(bits.IntN(x, bps))
	}

	// (Quantized linear predictor coefficients' precision in bits) - 1.
	x, err := br.Read(4)
	if err != nil {
		return nil, err
	}
	if x == 0xF {
		// 1111: invalid.
		return nil, errors.New("frame.Header.DecodeLPC: invalid quantized lpc precision; reserved bit pattern: 1111")
	}
	qlpcPrec := uint(x) + 1

	// Quantized linear predictor coefficient shift needed in bits.
	x, err = br.Read(5)
	if err != nil {
		return nil, err
	}
	qlpcShift := bits.IntN(x, 5)
	if qlpcShift < 0 {
		return nil, errors.New("frame.Header.DecodeLPC: negative quantized lpc shift not supported")
	}

	// Unencoded predictor coefficients.
	coeffs := make([]int32, lpcOrder)
	for i := range coeffs {
		x, err := br.Read(qlpcPrec)
		if err != nil {
			return nil, err
		}
		coeffs[i] = int32(bits.IntN(x, qlpcPrec))
	}

	residuals, err := h.DecodeResidual(br, lpcOrder)
	if err != nil {
		return nil, err
	}

	return lpcDecode(coeffs, warm, residuals, uint(qlpcShift)), nil
}

// DecodeVerbatim decodes and returns a slice of samples. The samples are stored
// unencoded.
//
// ref: http://flac.sourceforge.net/format.html#subframe_verbatim
func (h *Header) DecodeVerbatim(br *bits.Reader, bps uint) (samples []Sample, err error) {
	samples = make([]Sample, h.SampleCount)
	for i := range samples {
		x, err := br.Read(bps)
		if err != nil {
			return nil, err
		}
		samples[i] = Sample(bits.IntN(x, bps))
	}

	return samples, nil
}

// DecodeResidual decodes and returns a slice of residuals.
//
// ref: http://flac.sourceforge.net/format.html#residual
func (h *Header) DecodeResidual(br *bits.Reader, predOrder int) (residuals []int32, err error) {
	// Residual coding method.
	method, err := br.Read(2)
	if err != nil {
		return nil, err
	}
	switch method {
	case 0:
		// 00: partitioned Rice coding with 4-bit Rice parameter;
		//     RESIDUAL_CODING_METHOD_PARTITIONED_RICE follows
		return h.decodeRicePartitions(br, predOrder, 4)
	case 1:
		// 01: partitioned Rice coding with 5-bit Rice parameter;
		//     RESIDUAL_CODING_METHOD_PARTITIONED_RICE2 follows
		return h.decodeRicePartitions(br, predOrder, 5)
	}
	// 1x: reserved
	return nil, fmt.Errorf("frame.Header.DecodeResidual: invalid residual coding method; reserved bit pattern: %02b", method)
}

// decodeRicePartitions decodes and returns a slice of residuals, partitioned
// according to the partitioned-Rice scheme, using a Rice parameter of
// paramSize bits.
//
// ref: http://flac.sourceforge.net/format.html#partitioned_rice
// ref: http://flac.sourceforge.net/format.html#partitioned_rice2
func (h *Header) decodeRicePartitions(br *bits.Reader, predOrder int, paramSize uint) (residuals []int32, err error) {
	// Partition order.
	partOrder, err := br.Read(4)
	if err != nil {
		return nil, err
	}

	// Rice partitions.
	partCount := int(math.Pow(2, float64(partOrder)))
	for partNum := 0; partNum < partCount; partNum++ {
		// Encoding parameter.
		riceParam, err := br.Read(paramSize)
		if err != nil {
			return nil, err
		}

		escape := (paramSize == 4 && riceParam == 0xF) || (paramSize == 5 && riceParam == 0x1F)

		var partSampleCount int
		if partOrder == 0 {
			partSampleCount = int(h.SampleCount) - predOrder
		} else if partNum != 0 {
			partSampleCount = int(h.SampleCount) / partCount
		} else {
			partSampleCount = int(h.SampleCount)/partCount - predOrder
		}

		if escape {
			// The partition is stored unencoded; n follows as a 5-bit number of
			// bits per sample.
			n, err := br.Read(5)
			if err != nil {
				return nil, err
			}
			for i := 0; i < partSampleCount; i++ {
				x, err := br.Read(uint(n))
				if err != nil {
					return nil, err
				}
				residuals = append(residuals, int32(bits.IntN(x, uint(n))))
			}
			continue
		}

		partResiduals, err := riceDecode(br, uint(riceParam), partSampleCount)
		if err != nil {
			return nil, err
		}
		residuals = append(residuals, partResiduals...)
	}

	return residuals, nil
}

// riceDecode decodes the residual signals of a partition encoded using Rice
// coding.
func riceDecode(br *bits.Reader, k uint, n int) (residuals []int32, err error) {
	residuals = make([]int32, n)
	for i := 0; i < n; i++ {
		// Read unary encoded most significant bits.
		high, err := br.ReadUnary()
		if err != nil {
			return nil, err
		}

		// Read binary encoded least significant bits.
		low, err := br.Read(k)
		if err != nil {
			return nil, err
		}
		folded := uint32(high)<<k | uint32(low)

		// ZigZag decode.
		residuals[i] = bits.DecodeZigZag(folded)
	}
	return residuals, nil
}
