// Program lassoctl drives a Lasso host protocol engine over stdio, for
// manual testing against a wire-format client without real hardware.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/creachadair/command"

	"github.com/lassohost/lasso"
	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/lassolog"
	"github.com/lassohost/lasso/transport"
)

// readBytes drains r on its own goroutine and delivers each byte on
// the returned channel, which is closed once r returns an error
// (typically io.EOF). Separated from cmdRun so a test can close it
// over a short reader instead of os.Stdin.
func readBytes(r io.Reader) <-chan byte {
	ch := make(chan byte, 256)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		for {
			b, err := br.ReadByte()
			if err != nil {
				return
			}
			ch <- b
		}
	}()
	return ch
}

func main() {
	var configPath string

	root := &command.C{
		Name: filepath.Base(os.Args[0]),
		Help: "Drive a Lasso host protocol engine over stdio.",
		Commands: []*command.C{
			{
				Name:  "run",
				Usage: "run -config <path>",
				Help: `Run a Lasso host reading commands from stdin and writing
strobe frames and replies to stdout. The demo data space is a fixed
three-cell chain (speed, status, id) registered at startup; real
deployments replace demoRegistry with their own cell layout.`,
				SetFlags: func(env *command.Env, fs *flag.FlagSet) {
					fs.StringVar(&configPath, "config", "", "configuration file (YAML); defaults built in if omitted")
				},
				Run: func(env *command.Env) error {
					return cmdRun(configPath)
				},
			},
			{
				Name:  "inspect",
				Usage: "inspect -config <path>",
				Help:  "Print the resolved configuration without starting a host.",
				SetFlags: func(env *command.Env, fs *flag.FlagSet) {
					fs.StringVar(&configPath, "config", "", "configuration file (YAML); defaults built in if omitted")
				},
				Run: func(env *command.Env) error {
					return cmdInspect(configPath)
				},
			},
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

func loadConfig(path string) (*lasso.Config, error) {
	if path == "" {
		return lasso.DefaultConfig(), nil
	}
	return lasso.LoadConfig(path)
}

func cmdInspect(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Printf("tick_period_ms:          %d\n", cfg.TickPeriodMS)
	fmt.Printf("command_encoding:        %s\n", cfg.CommandEncoding)
	fmt.Printf("strobe_encoding:         %s\n", cfg.StrobeEncoding)
	fmt.Printf("processing_mode:         %s\n", cfg.ProcessingMode)
	fmt.Printf("strobe_dynamics:         %s\n", cfg.StrobeDynamics)
	fmt.Printf("command_buffer_size:     %d\n", cfg.CommandBufferSize)
	fmt.Printf("response_buffer_size:    %d\n", cfg.ResponseBufferSize)
	fmt.Printf("max_frame_size:          %d\n", cfg.MaxFrameSize)
	fmt.Printf("baudrate:                %d\n", cfg.BaudRate)
	return nil
}

// demoRegistry builds a small, fixed data space so lassoctl run has
// something to strobe: a writeable float "speed", a read-only uint8
// "status", and a permanent char "id".
func demoRegistry() *cell.Registry {
	reg := cell.NewRegistry(false)
	speed := make([]byte, 4)
	status := make([]byte, 1)
	id := []byte("lasso-demo")

	speedType := cell.NewType(cell.KindFloat, 4, true, true, false)
	statusType := cell.NewType(cell.KindUint, 1, true, false, false)
	idType := cell.NewType(cell.KindChar, 1, true, false, true)

	reg.Register(speedType, 1, speed, "speed", "rpm", nil, 1)
	reg.Register(statusType, 1, status, "status", "", nil, 1)
	reg.Register(idType, len(id), id, "id", "", nil, 1)
	return reg
}

// stdioTransport sends strobe and reply bytes to an *os.File, flushing
// every write since the client may be reading interactively.
type stdioTransport struct {
	w *bufio.Writer
}

func (t stdioTransport) Send(data []byte) transport.Status {
	if _, err := t.w.Write(data); err != nil {
		return transport.Error
	}
	if err := t.w.Flush(); err != nil {
		return transport.Error
	}
	return transport.OK
}

func cmdRun(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	reg := demoRegistry()
	out := stdioTransport{w: bufio.NewWriter(os.Stdout)}
	log := lassolog.New(os.Stderr)

	h, err := lasso.NewHost(cfg, reg, out, log)
	if err != nil {
		return fmt.Errorf("lassoctl: construct host: %w", err)
	}

	in := readBytes(os.Stdin)

	tick := time.NewTicker(time.Duration(cfg.TickPeriodMS) * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case b, ok := <-in:
			if !ok {
				return nil
			}
			h.ReceiveByte(b)
		case <-tick.C:
			h.Tick()
		}
	}
}
