// Command hostrun boots the kernel on an emulated PC inside the host process.
// Keys typed on the host terminal are forwarded to the kernel as PS/2
// scancodes, the programmable interval timer fires at the requested rate and
// the text mode framebuffer is mirrored to the terminal. When the kernel
// halts, or ctrl+c is pressed, the final framebuffer can be saved as a PNG.
package main

import (
	"bibos/device/video/console"
	"bibos/kernel/hal"
	"bibos/kernel/kmain"
	"bibos/machine"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-tty"
)

const (
	keyCtrlC   = 0x03
	idleWindow = 2 * time.Second
	keyBacklog = 16
)

var (
	cmdLine  = flag.String("cmdline", "", "kernel command line (e.g. \"diagColor=14 selfTest=off\")")
	hz       = flag.Int("hz", 18, "timer interrupt frequency")
	snapshot = flag.String("snapshot", "", "save the final framebuffer to this PNG file")
	headless = flag.Bool("headless", false, "boot, print the screen to stdout and exit without reading the terminal")
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[hostrun] error: %s\n", err.Error())
	os.Exit(1)
}

func main() {
	flag.Parse()
	if *hz <= 0 {
		exit(errors.New("timer frequency must be positive"))
	}

	cfg := machine.DefaultConfig()
	cfg.CmdLine = *cmdLine

	m := machine.New(cfg)
	m.Boot(kmain.Kmain)
	if err := m.WaitIdle(idleWindow); err != nil {
		exit(err)
	}

	var err error
	if *headless {
		fmt.Println(strings.Join(m.Screen(), "\n"))
	} else {
		err = interactive(m)
	}

	if !m.Halted() {
		m.Shutdown()
	}

	if err != nil {
		exit(err)
	}

	if *snapshot != "" {
		palette := console.NewVgaText(0, 0, 0).Palette()
		if cons := hal.Console(); cons != nil {
			palette = cons.Palette()
		}
		if err = renderCells(m.Snapshot(), palette).SavePNG(*snapshot); err != nil {
			exit(err)
		}
	}

	if _, exited := m.DebugExit.ExitCode(); exited {
		os.Exit(m.DebugExit.Status())
	}
}

// interactive drives the machine from the host terminal until the kernel
// halts or ctrl+c is pressed. All stimuli are applied from this goroutine
// and the screen is only read while the CPU is idle.
func interactive(m *machine.Machine) error {
	term, err := tty.Open()
	if err != nil {
		return err
	}
	defer term.Close()

	restore, err := term.Raw()
	if err != nil {
		return err
	}
	defer func() { _ = restore() }()

	stop := make(chan struct{})
	defer close(stop)
	keys := forwardRunes(term.ReadRune, stop)

	out := term.Output()
	_, _ = out.WriteString("\x1b[2J")
	mirror(out, m.Snapshot())

	ticker := time.NewTicker(time.Second / time.Duration(*hz))
	defer ticker.Stop()

	for {
		var stimulus func()

		select {
		case <-m.Done():
			mirror(out, m.Snapshot())
			return nil
		case <-ticker.C:
			stimulus = m.Tick
		case r, ok := <-keys:
			if !ok || r == keyCtrlC {
				return nil
			}
			codes := scancodes(r)
			if codes == nil {
				continue
			}
			stimulus = func() { m.PressScancodes(codes...) }
		}

		if err := m.Step(stimulus, idleWindow); err != nil {
			return err
		}
		mirror(out, m.Snapshot())
	}
}

// forwardRunes reads runes on a separate goroutine and delivers them on the
// returned channel. The channel is closed when read fails or once stop is
// closed.
func forwardRunes(read func() (rune, error), stop <-chan struct{}) <-chan rune {
	keys := make(chan rune, keyBacklog)
	go func() {
		defer close(keys)
		for {
			r, err := read()
			if err != nil {
				return
			}
			select {
			case keys <- r:
			case <-stop:
				return
			}
		}
	}()
	return keys
}
