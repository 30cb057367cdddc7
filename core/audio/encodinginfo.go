package audio

const (
	DefaultSampleRate = 24000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// BytesPerSecond assumes mono audio, which is all the wire protocol carries.
func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.Format.ByteSize()
}

// DurationMs reports how long nBytes of audio play for.
func (e EncodingInfo) DurationMs(nBytes int) float64 {
	bps := e.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return float64(nBytes) / float64(bps) * 1000.0
}

// BytesForMs reports how many bytes cover ms milliseconds, rounded down to a
// whole sample.
func (e EncodingInfo) BytesForMs(ms float64) int {
	n := int(ms / 1000.0 * float64(e.BytesPerSecond()))
	if size := e.Format.ByteSize(); size > 1 {
		n -= n % size
	}
	return n
}

// FormatFromWire maps a wire format name onto local encoding metadata.
// Unrecognized names fall back to the default encoding.
func FormatFromWire(name string, rate int) EncodingInfo {
	info := EncodingInfo{SampleRate: rate}
	switch name {
	case "audio/pcm", "pcm16", "linear16":
		info.Format = EncodingLinear16
	case "audio/pcma", "g711_alaw", "alaw":
		info.Format = EncodingALaw
		info.SampleRate = 8000
	case "audio/pcmu", "g711_ulaw", "mulaw":
		info.Format = EncodingMulaw
		info.SampleRate = 8000
	default:
		return GetDefaultEncodingInfo()
	}
	if info.SampleRate == 0 {
		info.SampleRate = DefaultSampleRate
	}
	return info
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
