package audio

import (
	"context"
	"fmt"
	"math"
	"time"

	"speak-sfx/internal/domain"
)

// FrameReader yields consecutive blocks of mono 16-bit samples.
type FrameReader interface {
	ReadFrame() ([]int16, error)
}

type ListenerConfig struct {
	SampleRate     int
	Calibration    time.Duration
	InitialTimeout time.Duration
	// PauseThreshold is the trailing silence that ends a phrase.
	PauseThreshold time.Duration
	// MinPhrase is the least speech kept as a phrase; shorter bursts are dropped.
	MinPhrase time.Duration
	// PreRoll is the audio kept from before speech was detected.
	PreRoll         time.Duration
	EnergyThreshold float64
	DynamicDamping  float64
	DynamicRatio    float64
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		SampleRate:      16000,
		Calibration:     time.Second,
		InitialTimeout:  5 * time.Second,
		PauseThreshold:  800 * time.Millisecond,
		MinPhrase:       300 * time.Millisecond,
		PreRoll:         500 * time.Millisecond,
		EnergyThreshold: 300,
		DynamicDamping:  0.15,
		DynamicRatio:    1.5,
	}
}

// Listener is an energy based voice activity detector.
// It keeps the adjusted threshold between calls.
type Listener struct {
	cfg       ListenerConfig
	threshold float64
}

func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{cfg: cfg, threshold: cfg.EnergyThreshold}
}

func (l *Listener) Threshold() float64 {
	return l.threshold
}

// Calibrate reads ambient noise for the calibration window and moves the
// energy threshold towards it.
func (l *Listener) Calibrate(ctx context.Context, r FrameReader) error {
	var elapsed time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := r.ReadFrame()
		if err != nil {
			return fmt.Errorf("reading calibration frame: %w", err)
		}
		elapsed += l.frameDuration(frame)
		if elapsed > l.cfg.Calibration {
			return nil
		}
		l.adjust(frame)
	}
}

// Listen waits for speech and records one phrase. It returns
// domain.ErrNoSpeech when nothing louder than the threshold arrives within
// the initial timeout. Recording ends after phraseLimit or after the pause
// threshold of trailing silence, whichever comes first.
func (l *Listener) Listen(ctx context.Context, r FrameReader, phraseLimit time.Duration) ([]int16, error) {
	var elapsed time.Duration

	for {
		var frames [][]int16
		var preRoll time.Duration

		// Wait for the first loud frame.
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			frame, err := r.ReadFrame()
			if err != nil {
				return nil, fmt.Errorf("reading frame: %w", err)
			}
			d := l.frameDuration(frame)
			elapsed += d
			if l.cfg.InitialTimeout > 0 && elapsed > l.cfg.InitialTimeout {
				return nil, domain.ErrNoSpeech
			}

			frames = append(frames, frame)
			preRoll += d
			for len(frames) > 1 && preRoll > l.cfg.PreRoll+d {
				preRoll -= l.frameDuration(frames[0])
				frames = frames[1:]
			}

			if Energy(frame) > l.threshold {
				break
			}
			l.adjust(frame)
		}

		// Record until the phrase limit or a long enough pause.
		var phrase, pause time.Duration
		var pauseFrames int
		phraseStart := elapsed
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			frame, err := r.ReadFrame()
			if err != nil {
				return nil, fmt.Errorf("reading frame: %w", err)
			}
			d := l.frameDuration(frame)
			elapsed += d
			if phraseLimit > 0 && elapsed-phraseStart > phraseLimit {
				break
			}

			frames = append(frames, frame)
			phrase += d
			if Energy(frame) > l.threshold {
				pause = 0
				pauseFrames = 0
			} else {
				pause += d
				pauseFrames++
			}
			if pause > l.cfg.PauseThreshold {
				break
			}
		}

		if phrase-pause >= l.cfg.MinPhrase {
			return trimPause(frames, pauseFrames, l.cfg.PreRoll, l.frameDuration), nil
		}
	}
}

func (l *Listener) adjust(frame []int16) {
	if len(frame) == 0 || l.cfg.SampleRate <= 0 {
		return
	}
	seconds := l.frameDuration(frame).Seconds()
	damping := math.Pow(l.cfg.DynamicDamping, seconds)
	target := Energy(frame) * l.cfg.DynamicRatio
	l.threshold = l.threshold*damping + target*(1-damping)
}

func (l *Listener) frameDuration(frame []int16) time.Duration {
	if l.cfg.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(frame)) * time.Second / time.Duration(l.cfg.SampleRate)
}

// trimPause drops trailing silence beyond the pre-roll length.
func trimPause(frames [][]int16, pauseFrames int, keep time.Duration, dur func([]int16) time.Duration) []int16 {
	if pauseFrames > len(frames) {
		pauseFrames = len(frames)
	}
	end := len(frames) - pauseFrames
	var kept time.Duration
	for end < len(frames) {
		d := dur(frames[end])
		if kept+d > keep {
			break
		}
		kept += d
		end++
	}

	var samples []int16
	for _, f := range frames[:end] {
		samples = append(samples, f...)
	}
	return samples
}

// Energy is the root mean square amplitude of a frame.
func Energy(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
