package notify

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pcmWAV builds a mono 16-bit PCM file holding n silent samples.
func pcmWAV(rate uint32, n int) []byte {
	var b bytes.Buffer
	data := uint32(n * 2)
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, 36+data)
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate*2)
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, data)
	b.Write(make([]byte, data))
	return b.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	rc := io.NopCloser(bytes.NewReader(pcmWAV(8000, 100)))
	streamer, format, err := decode("notify.WAV", rc)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", format.SampleRate)
	}
	if streamer.Len() != 100 {
		t.Errorf("Expected 100 samples, got %d", streamer.Len())
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, _, err := decode("notify.flac", io.NopCloser(strings.NewReader("")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestPlayerMissingFile(t *testing.T) {
	p := NewPlayer(filepath.Join(t.TempDir(), "notify.ogg"), 0)
	err := p.Notify(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

type failing struct{ calls int }

func (f *failing) Notify(context.Context) error {
	f.calls++
	return errors.New("no audio device")
}

func TestFirstOfFallsBack(t *testing.T) {
	var out bytes.Buffer
	first := &failing{}

	if err := FirstOf(first, Bell{W: &out}).Notify(context.Background()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if first.calls != 1 {
		t.Errorf("Expected the first notifier to be tried once, got %d", first.calls)
	}
	if out.String() != "\a" {
		t.Errorf("Expected bell, got %q", out.String())
	}
}

func TestFirstOfAllFail(t *testing.T) {
	err := FirstOf(&failing{}, &failing{}).Notify(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no audio device") {
		t.Errorf("Expected joined error, got %v", err)
	}
}
