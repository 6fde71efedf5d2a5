package audio

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestWriteBuffer(t *testing.T) {
	in := []float32{1, -1, 0.5, 2}
	buf := make([]byte, len(in)*2*2)
	writeBuffer(in, buf, 2)
	expected := []byte{
		0xff, 0x7f, 0xff, 0x7f,
		0x01, 0x80, 0x01, 0x80,
		0xff, 0x3f, 0xff, 0x3f,
		0xff, 0x7f, 0xff, 0x7f,
	}
	for i := range expected {
		expectEqual(t, buf[i], expected[i])
	}
}

func TestHeadlessSink(t *testing.T) {
	config := testConfig()
	sink := NewHeadlessSink(config)
	expectEqual(t, sink.IsReady(), true)
	if err := sink.Submit(make([]float32, config.BufferSize+1)); err == nil {
		t.Errorf("expected error for buffer length")
	}
	expectEqual(t, sink.Submitted(), int64(0))

	in := make([]float32, config.BufferSize)
	in[3] = 0.25
	expectNoError(t, sink.Submit(in))
	in[3] = 0
	expectEqual(t, sink.Last()[3], float32(0.25))
	expectEqual(t, sink.Submitted(), int64(1))

	sink.SetBusy(true)
	expectEqual(t, sink.IsReady(), false)
	expectNoError(t, sink.Close())
}

func TestWavSink(t *testing.T) {
	config := testConfig()
	path := filepath.Join(t.TempDir(), "out.wav")
	sink, err := NewWavSink(path, config)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	expectEqual(t, sink.IsReady(), true)
	if err := sink.Submit(make([]float32, 3)); err == nil {
		t.Errorf("expected error for buffer length")
	}
	in := make([]float32, config.BufferSize)
	in[0] = 0.5
	in[1] = -2
	expectNoError(t, sink.Submit(in))
	expectNoError(t, sink.Submit(make([]float32, config.BufferSize)))
	expectNoError(t, sink.Close())

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer f.Close()
	decoder := wav.NewDecoder(f)
	expectEqual(t, decoder.IsValidFile(), true)
	expectNoError(t, decoder.FwdToPCM())
	format := decoder.Format()
	expectEqual(t, format.SampleRate, config.SampleRate)
	expectEqual(t, format.NumChannels, 1)
	expectEqual(t, int(decoder.SampleBitDepth()), 16)
	expectEqual(t, int(decoder.PCMLen()), config.BufferSize*2*2)
	buf := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, config.BufferSize*2),
		SourceBitDepth: 16,
	}
	_, err = decoder.PCMBuffer(buf)
	expectNoError(t, err)
	expectEqual(t, buf.Data[0], 16383)
	expectEqual(t, buf.Data[1], -32767)
}
