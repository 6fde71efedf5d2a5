package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jinjor/desktop-synth/src/audio"
	"golang.org/x/sync/errgroup"
)

var (
	outDir  = flag.String("o", ".", "output directory")
	note    = flag.Int("note", 69, "MIDI note to hold")
	seconds = flag.Float64("seconds", 2, "length of each file")
	fm      = flag.Float64("fm", 0, "frequency of a sine modulator (0 disables FM)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	if *note < 0 || *note > 127 {
		log.Fatalf("invalid note %v\n", *note)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("error: %v\n", err)
	}

	g, ctx := errgroup.WithContext(context.Background())
	for _, shape := range audio.ShapeNames() {
		shape := shape
		g.Go(func() error {
			path := filepath.Join(*outDir, shape+".wav")
			if err := render(ctx, shape, path); err != nil {
				return fmt.Errorf("failed to render %v: %w", shape, err)
			}
			log.Printf("saved %v\n", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully rendered all shapes.")
}

func render(ctx context.Context, shape string, path string) (err error) {
	config := audio.DefaultConfig()
	sink, err := audio.NewWavSink(path, config)
	if err != nil {
		return err
	}
	a, err := audio.NewAudio(config, sink)
	if err != nil {
		sink.Close()
		return err
	}
	defer func() {
		if e := a.Close(); e != nil && err == nil {
			err = e
		}
	}()
	commands := [][]string{
		{"set", "voice", "1", "shape", shape},
		{"set", "voice", "1", "amp", "0.5"},
	}
	if *fm > 0 {
		commands = append(commands,
			[]string{"add_voice"},
			[]string{"set", "voice", "2", "freq", strconv.FormatFloat(*fm, 'f', -1, 64)},
			[]string{"set", "voice", "1", "mod", "2"},
		)
	}
	commands = append(commands, []string{"note_on", strconv.Itoa(*note)})
	for _, command := range commands {
		if err := a.Update(command); err != nil {
			return err
		}
	}
	frames := int(*seconds * float64(config.SampleRate) / float64(config.BufferSize))
	for i := 0; i < frames; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := a.Tick(); err != nil {
			return err
		}
	}
	return nil
}
