// Command captester records a short clip through the capture recorder from a
// system audio command (arecord, sox, ffmpeg) and saves the finalized
// attachment payload, exercising the microphone path without a browser
// client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/zhouzirui/flash-studio/backend/internal/service/capture"
)

func main() {
	cmdLine := flag.String("cmd", "arecord -q -f S16_LE -r 24000 -c 1 -t wav -", "capture command writing audio to stdout")
	mimeType := flag.String("mime", "audio/wav", "mime type of the captured payload")
	duration := flag.Duration("duration", 5*time.Second, "how long to record")
	out := flag.String("out", "captester.wav", "output path")
	flag.Parse()

	fields := strings.Fields(*cmdLine)
	if len(fields) == 0 {
		log.Fatal("empty capture command")
	}

	source := newCommandSource(fields[0], fields[1:]...)
	recorder := capture.NewRecorder(source, *mimeType)

	if err := recorder.Start(context.Background()); err != nil {
		log.Fatalf("failed to start recording: %v", err)
	}
	log.Printf("recording for %s...", *duration)
	time.Sleep(*duration)

	att, ok := recorder.Stop()
	if !ok {
		log.Fatal("no recording was active")
	}
	if len(att.Data) == 0 {
		log.Fatalf("capture produced no audio; check that %q can record", fields[0])
	}

	if err := os.WriteFile(*out, att.Data, 0o644); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	fmt.Printf("wrote %s (%s, %s, %d bytes)\n", *out, att.Kind, att.MIMEType, len(att.Data))
}

// commandSource adapts the stdout of a system capture command into the
// recorder's chunk channel. Close kills the command, which ends the stream
// and closes the channel.
type commandSource struct {
	name string
	args []string

	cmd    *exec.Cmd
	cancel context.CancelFunc
}

func newCommandSource(name string, args ...string) *commandSource {
	return &commandSource{name: name, args: args}
}

func (s *commandSource) Open(ctx context.Context) (<-chan []byte, error) {
	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, s.name, s.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	s.cmd = cmd
	s.cancel = cancel

	ch := make(chan []byte, 8)
	go func() {
		defer close(ch)
		buf := make([]byte, 4096)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				ch <- append([]byte(nil), buf[:n]...)
			}
			if readErr != nil {
				if readErr != io.EOF {
					log.Printf("[capture] reading %s output: %v", s.name, readErr)
				}
				return
			}
		}
	}()
	return ch, nil
}

func (s *commandSource) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.cmd != nil {
		// The command was killed; the exit status is not meaningful.
		_ = s.cmd.Wait()
		s.cmd = nil
	}
	return nil
}
