// Package notify plays the cue heard when a timer runs out.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

var ErrUnsupported = errors.New("unsupported sound format")

// Player plays a sound file through the default audio output and blocks
// until it has finished. Volume is in beep's base-2 scale: 0 is unchanged,
// -1 halves the amplitude.
type Player struct {
	Path   string
	Volume float64
}

func NewPlayer(path string, volume float64) *Player {
	return &Player{Path: path, Volume: volume}
}

func (p *Player) Notify(ctx context.Context) error {
	f, err := os.Open(p.Path)
	if err != nil {
		return fmt.Errorf("open sound: %w", err)
	}
	streamer, format, err := decode(p.Path, f)
	if err != nil {
		f.Close()
		return err
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(
		&effects.Volume{Streamer: streamer, Base: 2, Volume: p.Volume},
		beep.Callback(func() { close(done) }),
	))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func decode(path string, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return wav.Decode(rc)
	case ".ogg", ".oga":
		return vorbis.Decode(rc)
	case ".mp3":
		return mp3.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// Bell rings the terminal bell.
type Bell struct {
	W io.Writer
}

func (b Bell) Notify(context.Context) error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

type Notifier interface {
	Notify(ctx context.Context) error
}

// FirstOf tries each notifier in turn and stops at the first that works.
func FirstOf(ns ...Notifier) Notifier {
	return chain(ns)
}

type chain []Notifier

func (c chain) Notify(ctx context.Context) error {
	var errs []error
	for _, n := range c {
		err := n.Notify(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}
