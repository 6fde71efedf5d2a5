package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"golang.org/x/sync/errgroup"
)

const defaultSockFileName = "/tmp/desktop-synth.sock"

var (
	sinkName   = flag.String("sink", "oto", "audio output: oto, portaudio, wav or headless")
	wavPath    = flag.String("wav", "out.wav", "output file for -sink wav")
	sockPath   = flag.String("sock", defaultSockFileName, "unix socket for commands and reports")
	enableMidi = flag.Bool("midi", false, "listen to MIDI IN")
	midiPort   = flag.String("midi-port", "", "MIDI IN port name (first port if empty)")
	tick       = flag.Duration("tick", 0, "engine tick interval (default 1/120s)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := audio.DefaultConfig()
	if *tick > 0 {
		config.TickInterval = *tick
	}
	sink, err := newSink(*sinkName, config)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	synth, err := audio.NewAudio(config, sink)
	if err != nil {
		sink.Close()
		log.Fatalf("error: %v\n", err)
	}
	defer func() {
		if err := synth.Close(); err != nil {
			log.Printf("error while closing audio: %v", err)
		}
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return synth.Start(ctx)
	})
	if *enableMidi {
		g.Go(func() error {
			return audio.ListenToMidiIn(ctx, *midiPort, synth.Notes())
		})
	}
	g.Go(func() error {
		// the client going away shuts everything down
		defer cancel()
		return withIPCConnection(ctx, *sockPath, func(conn net.Conn) error {
			ctx, stop := context.WithCancel(ctx)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer stop()
				return receiveCommands(ctx, conn, synth.CommandCh)
			})
			g.Go(func() error {
				return sendReports(ctx, conn, synth)
			})
			return g.Wait()
		})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func newSink(name string, config *audio.Config) (audio.Sink, error) {
	switch name {
	case "oto":
		return audio.NewOtoSink(config)
	case "portaudio":
		return audio.NewPortAudioSink(config)
	case "wav":
		return audio.NewWavSink(*wavPath, config)
	case "headless":
		return audio.NewHeadlessSink(config), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	go func() {
		// unblocks Accept on shutdown
		<-ctx.Done()
		listener.Close()
	}()
	log.Printf("start listening on %v...\n", sockFileName)
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			log.Printf("failed to parse %q: %v\n", line, err)
			line = []byte{}
			continue
		}
		select {
		case <-ctx.Done():
			break loop
		case commandCh <- command:
		}
		log.Printf("received: %s\n", string(line))
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Fields(line)
	if len(lineStr) == 0 {
		return nil, fmt.Errorf("empty line")
	}
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, audio *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	audio.Changes.Add("voices")
	frames := 0
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			var b strings.Builder
			if audio.Changes.Has("voices") {
				audio.Changes.Delete("voices")
				b.WriteString("voices ")
				b.Write(audio.VoicesJSON())
				b.WriteString("\n")
			}
			b.WriteString("fft")
			for _, value := range audio.GetFFT() {
				b.WriteString(" " + strconv.FormatFloat(value, 'f', 6, 64))
			}
			b.WriteString("\n")
			frames++
			if frames%60 == 0 {
				stats := audio.Stats()
				fmt.Fprintf(&b, "stats %d %d %.3f\n", stats.Frames, stats.Dropped, stats.Budget)
			}
			if _, err := conn.Write([]byte(b.String())); err != nil {
				if ctx.Err() != nil {
					break loop
				}
				return err
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
