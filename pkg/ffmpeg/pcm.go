package ffmpeg

import (
	"fmt"
	"os"
)

// PCMDuration derives the length in seconds of a WAV written by ConvertToPCM
// from its size on disk.
func PCMDuration(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat pcm file: %w", err)
	}
	data := info.Size() - wavHeaderSize
	if data <= 0 {
		return 0, nil
	}
	return float64(data) / float64(bytesPerSecond), nil
}
