// Command voicetester synthesizes one line of speech and renders it through
// the playback engine into a WAV file, exercising the full TTS path without
// a browser client.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/flash-studio/backend/internal/config"
	"github.com/zhouzirui/flash-studio/backend/internal/model/voice"
	"github.com/zhouzirui/flash-studio/backend/internal/service/ai"
	"github.com/zhouzirui/flash-studio/backend/internal/service/playback"
)

func main() {
	text := flag.String("text", "Hello from Flash Studio.", "text to synthesize")
	voiceID := flag.String("voice", "kore", "voice id from the catalog")
	out := flag.String("out", "voicetester.wav", "output wav path")
	timeout := flag.Duration("timeout", 60*time.Second, "synthesis timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	if _, ok := voice.FindByID(*voiceID); !ok {
		log.Fatalf("unknown voice %q", *voiceID)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc, err := ai.NewService(ctx, cfg.AI, cfg.Media)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}

	payload, err := svc.GenerateSpeech(ctx, *text, *voiceID)
	if err != nil {
		log.Fatalf("speech synthesis failed: %v", err)
	}
	log.Printf("received %d bytes of audio", len(payload))

	output, err := newWavFileOutput(*out)
	if err != nil {
		log.Fatalf("failed to open output: %v", err)
	}

	engine := playback.NewEngine(output)
	done := make(chan struct{})
	engine.OnEnded(func() { close(done) })

	if err := engine.Play(payload, "audio/wav"); err != nil {
		log.Fatalf("playback failed: %v", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		engine.Stop()
		log.Fatal("timed out waiting for playback to finish")
	}

	fmt.Printf("wrote %s\n", *out)
}

// wavFileOutput renders PCM frames into a WAV file, standing in for a real
// audio device.
type wavFileOutput struct {
	path string
	file *os.File
	enc  *wav.Encoder
	rate int
	ch   int
}

func newWavFileOutput(path string) (*wavFileOutput, error) {
	return &wavFileOutput{path: path}, nil
}

func (o *wavFileOutput) Start(sampleRate, channels int) error {
	f, err := os.Create(o.path)
	if err != nil {
		return err
	}
	o.file = f
	o.rate = sampleRate
	o.ch = channels
	o.enc = wav.NewEncoder(f, sampleRate, 16, channels, 1)
	return nil
}

func (o *wavFileOutput) Write(pcm []byte) (int, error) {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buf := &audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{NumChannels: o.ch, SampleRate: o.rate},
		SourceBitDepth: 16,
	}
	if err := o.enc.Write(buf); err != nil {
		return 0, err
	}
	return len(pcm), nil
}

func (o *wavFileOutput) Close() error {
	if o.enc != nil {
		if err := o.enc.Close(); err != nil {
			return err
		}
		o.enc = nil
	}
	if o.file != nil {
		err := o.file.Close()
		o.file = nil
		return err
	}
	return nil
}
