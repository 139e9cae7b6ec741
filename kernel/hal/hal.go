// Package hal owns the devices the kernel talks to: the text console and its
// two output sinks, the interrupt controllers and any driver found by
// DetectHardware.
package hal

import (
	"bibos/device"
	"bibos/device/pic"
	"bibos/device/tty"
	"bibos/device/video/console"
	"bibos/kernel"
	"bibos/kernel/hal/bootinfo"
	"bibos/kernel/kfmt"
	"bibos/kernel/sync"
	"bytes"
	"io"
	"sort"
	"strconv"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole *console.VgaText
	stdout        *tty.Sink
	stderr        *tty.Sink

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

const defaultDiagColor = console.LightRed

var (
	devices  managedDevices
	initLock sync.IRQSpinlock
	strBuf   bytes.Buffer

	// The following are mocked by tests.
	consoleProbesFn = func() []device.ProbeFn { return console.ProbeFuncs }
	driverListFn    = device.DriverList
	cmdLineFn       = bootinfo.CmdLine

	errNoConsole = &kernel.Error{Module: "hal", Message: "no text console detected"}
)

// InitTerminal detects the text console, creates the primary (white on black)
// and diagnostic sinks on top of it and connects them to kfmt. The
// foreground color of the diagnostic sink can be changed with the diagColor
// boot command line option. Calling InitTerminal again is a no-op.
func InitTerminal() *kernel.Error {
	var err *kernel.Error
	initLock.Do(func() {
		if devices.activeConsole == nil {
			err = initTerminal()
		}
	})
	return err
}

func initTerminal() *kernel.Error {
	strBuf.Reset()

	var cons *console.VgaText
	for _, probe := range consoleProbesFn() {
		drv, ok := probe().(*console.VgaText)
		if !ok || drv == nil {
			continue
		}

		if err := drv.DriverInit(&strBuf); err != nil {
			return err
		}
		cons = drv
		break
	}

	if cons == nil {
		return errNoConsole
	}

	devices.activeConsole = cons
	devices.stdout = tty.NewSink(cons, console.ColorCode(console.White, console.Black))
	devices.stderr = tty.NewSink(cons, console.ColorCode(diagColor(), console.Black))
	devices.stdout.Clear()

	kfmt.SetOutputSink(devices.stdout)
	kfmt.SetDiagnosticSink(devices.stderr)

	// replay the console init output now that it can be displayed
	initLog := append([]byte(nil), strBuf.Bytes()...)
	w := kfmt.PrefixWriter{Sink: devices.stdout, Prefix: driverPrefix(cons)}
	_, _ = w.Write(initLog)

	return nil
}

// diagColor returns the diagnostic sink foreground color selected on the
// boot command line.
func diagColor() console.Color {
	v, ok := cmdLineFn()["diagColor"]
	if !ok {
		return defaultDiagColor
	}

	index, err := strconv.Atoi(v)
	if err != nil || index < 0 || index > int(console.White) {
		return defaultDiagColor
	}
	return console.Color(index)
}

// Stdout returns the primary output sink or nil if no console is present.
func Stdout() *tty.Sink {
	_ = InitTerminal()
	return devices.stdout
}

// Stderr returns the diagnostic output sink or nil if no console is present.
func Stderr() *tty.Sink {
	_ = InitTerminal()
	return devices.stderr
}

// Console returns the active text console.
func Console() *console.VgaText {
	return devices.activeConsole
}

// PICs returns the chained interrupt controllers.
func PICs() *pic.ChainedPICs {
	return pic.Default()
}

// ActiveDrivers returns the drivers initialized by DetectHardware.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := driverListFn()
	sort.Sort(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and initializes every
// driver whose hardware is present.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}
	if w.Sink == nil {
		w.Sink = io.Discard
	}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		w.Prefix = driverPrefix(drv)
		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

func driverPrefix(drv device.Driver) []byte {
	strBuf.Reset()
	major, minor, patch := drv.DriverVersion()
	kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
	return append([]byte(nil), strBuf.Bytes()...)
}
