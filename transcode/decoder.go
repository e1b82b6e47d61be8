package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/RyanBlaney/vocembed/logging"
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	FFmpegPath       string        `json:"ffmpeg_path"`
	Timeout          time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns a decoder configuration for 16 kHz mono
// speech material
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 16000,
		FFmpegPath:       "ffmpeg",
		Timeout:          30 * time.Second,
	}
}

// Decoder reads labeled spans out of audio files via ffmpeg, resampled to
// mono float64 PCM at the target rate
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a decoder with the given config (nil uses defaults)
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "transcode"}),
	}
}

// DecodeSegment decodes the [start, end) span of a file. Seeking happens in
// ffmpeg so only the requested span is read and resampled.
func (d *Decoder) DecodeSegment(ctx context.Context, filename string, start, end float64) (*AudioData, error) {
	if end <= start {
		return nil, fmt.Errorf("invalid segment span [%.3f, %.3f)", start, end)
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", filename,
		"-t", fmt.Sprintf("%.3f", end-start),
		"-map", "0:a:0?",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-af", fmt.Sprintf("aresample=%d:resampler=soxr", d.config.TargetSampleRate),
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed for %s [%.3f, %.3f): %w (%s)",
			filename, start, end, err, stderr.String())
	}

	samples := bytesToFloat64(stdout.Bytes())
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio decoded from %s [%.3f, %.3f)", filename, start, end)
	}

	d.logger.Debug("decoded segment", logging.Fields{
		"file":    filename,
		"start":   start,
		"end":     end,
		"samples": len(samples),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Duration:   time.Duration(float64(len(samples)) / float64(d.config.TargetSampleRate) * float64(time.Second)),
	}, nil
}

// bytesToFloat64 converts raw f64le output to samples
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}
	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)
	for i := 0; i < sampleCount; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
