package audio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speak-sfx/internal/domain"
	"speak-sfx/internal/infra/audio"
)

const (
	testRate  = 16000
	frameSize = 1600 // 100ms
)

// scriptedReader plays back a list of frame amplitudes, then silence forever.
type scriptedReader struct {
	amplitudes []int16
	reads      int
}

func (s *scriptedReader) ReadFrame() ([]int16, error) {
	var amp int16
	if s.reads < len(s.amplitudes) {
		amp = s.amplitudes[s.reads]
	}
	s.reads++

	frame := make([]int16, frameSize)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = amp
		} else {
			frame[i] = -amp
		}
	}
	return frame, nil
}

func repeat(amp int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = amp
	}
	return out
}

func concat(parts ...[]int16) []int16 {
	var out []int16
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func testListenerConfig() audio.ListenerConfig {
	cfg := audio.DefaultListenerConfig()
	cfg.SampleRate = testRate
	return cfg
}

func TestEnergy(t *testing.T) {
	assert.Zero(t, audio.Energy(nil))
	assert.InDelta(t, 1000, audio.Energy([]int16{1000, -1000, 1000, -1000}), 0.001)
}

func TestListener_CalibrateRaisesThresholdInNoise(t *testing.T) {
	listener := audio.NewListener(testListenerConfig())
	reader := &scriptedReader{amplitudes: repeat(2000, 20)}

	require.NoError(t, listener.Calibrate(context.Background(), reader))

	assert.Greater(t, listener.Threshold(), 300.0)
	assert.Equal(t, 11, reader.reads, "ten 100ms frames fill the window, the eleventh crosses it")
}

func TestListener_NoSpeechTimesOut(t *testing.T) {
	listener := audio.NewListener(testListenerConfig())
	reader := &scriptedReader{}

	_, err := listener.Listen(context.Background(), reader, 6*time.Second)

	require.ErrorIs(t, err, domain.ErrNoSpeech)
	assert.LessOrEqual(t, reader.reads, 51)
}

func TestListener_StopsOnPause(t *testing.T) {
	listener := audio.NewListener(testListenerConfig())
	reader := &scriptedReader{amplitudes: concat(repeat(0, 5), repeat(5000, 10))}

	samples, err := listener.Listen(context.Background(), reader, 8*time.Second)
	require.NoError(t, err)

	seconds := float64(len(samples)) / testRate
	// 0.5s pre-roll + 1.0s speech + at most 0.5s trailing silence.
	assert.GreaterOrEqual(t, seconds, 1.0)
	assert.LessOrEqual(t, seconds, 2.1)
	assert.Less(t, reader.reads, 30)
}

func TestListener_StopsAtPhraseLimit(t *testing.T) {
	listener := audio.NewListener(testListenerConfig())
	reader := &scriptedReader{amplitudes: concat(repeat(0, 2), repeat(5000, 200))}

	samples, err := listener.Listen(context.Background(), reader, 2*time.Second)
	require.NoError(t, err)

	seconds := float64(len(samples)) / testRate
	assert.LessOrEqual(t, seconds, 2.0+0.5+0.1)
	assert.GreaterOrEqual(t, seconds, 2.0)
}

func TestListener_DropsShortBursts(t *testing.T) {
	listener := audio.NewListener(testListenerConfig())
	// A lone click, silence, then a real phrase.
	reader := &scriptedReader{amplitudes: concat(repeat(5000, 1), repeat(0, 10), repeat(5000, 8))}

	samples, err := listener.Listen(context.Background(), reader, 8*time.Second)
	require.NoError(t, err)
	assert.Greater(t, reader.reads, 11, "the click alone must not end the capture")
	assert.NotEmpty(t, samples)
}

func TestListener_HonoursCancel(t *testing.T) {
	listener := audio.NewListener(testListenerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := listener.Listen(ctx, &scriptedReader{}, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	wav := audio.EncodeWAV(samples, 22050)

	require.Len(t, wav, 44+len(samples)*2)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))

	pcm, rate, err := audio.PCMFromWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, 22050, rate)
	assert.Equal(t, []byte{0, 0, 1, 0, 0xff, 0xff, 0xff, 0x7f, 0x00, 0x80}, pcm)
}

func TestPCMFromWAV_RejectsOtherContainers(t *testing.T) {
	_, _, err := audio.PCMFromWAV([]byte("ID3\x03mp3 data here"))
	assert.Error(t, err)
}
