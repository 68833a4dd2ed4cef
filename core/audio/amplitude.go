package audio

import "math"

// Amplitude computes the normalized RMS level of a chunk of audio in the
// given encoding, in the range [0, 1].
//
// Unsupported encodings and empty chunks report 0 so callers can feed the
// result straight into level meters without special-casing.
func Amplitude(encoding EncodingInfo, chunk []byte) float64 {
	if len(chunk) == 0 {
		return 0
	}

	switch encoding.Format {
	case EncodingLinear16:
		sampleCount := len(chunk) / 2
		if sampleCount == 0 {
			return 0
		}

		var sum float64
		for i := 0; i+1 < len(chunk); i += 2 {
			sample := int16(uint16(chunk[i]) | uint16(chunk[i+1])<<8)
			normalized := float64(sample) / math.MaxInt16
			sum += normalized * normalized
		}
		return math.Sqrt(sum / float64(sampleCount))

	case EncodingMulaw, EncodingALaw:
		// Companded formats are only ever passed through to providers;
		// level metering runs on the linear16 playback path.
		return 0
	}

	return 0
}
