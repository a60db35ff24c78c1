package ffmpeg

// Canonical speech-recognition input: 16 kHz mono signed 16-bit PCM WAV.
const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	TargetCodec      = "pcm_s16le"
)

// AudioMetadata represents metadata extracted from an audio file
type AudioMetadata struct {
	Duration   float64 `json:"duration"`    // seconds
	SampleRate int     `json:"sample_rate"` // Hz
	Channels   int     `json:"channels"`
	Bitrate    int     `json:"bitrate"` // bits per second
	Format     string  `json:"format"`  // container, e.g. "matroska,webm"
	Codec      string  `json:"codec"`
	Size       int64   `json:"size"`
}

// wavHeaderSize is the canonical RIFF header ffmpeg writes for PCM output.
const wavHeaderSize = 44

// bytesPerSecond of the canonical PCM format.
const bytesPerSecond = TargetSampleRate * TargetChannels * 2
