package hal

import (
	"bibos/device"
	"bibos/device/video/console"
	"bibos/kernel"
	"bibos/kernel/hal/bootinfo"
	"bibos/kernel/kfmt"
	"bibos/machine/physmem"
	"bytes"
	"io"
	"strings"
	"testing"
)

func resetHAL(t *testing.T) {
	devices = managedDevices{}
	t.Cleanup(func() {
		devices = managedDevices{}
		consoleProbesFn = func() []device.ProbeFn { return console.ProbeFuncs }
		driverListFn = device.DriverList
		cmdLineFn = bootinfo.CmdLine
		kfmt.SetOutputSink(nil)
		kfmt.SetDiagnosticSink(nil)
	})
}

func mockConsoleProbe(fb *physmem.Region) {
	consoleProbesFn = func() []device.ProbeFn {
		return []device.ProbeFn{
			func() device.Driver { return nil },
			func() device.Driver {
				return console.NewVgaText(80, 25, fb.Addr())
			},
		}
	}
}

func screenText(cons *console.VgaText) string {
	var buf bytes.Buffer
	w, h := cons.Dimensions()
	for row := uint32(0); row < h; row++ {
		for col := uint32(0); col < w; col++ {
			buf.WriteByte(cons.ReadCell(row, col).Char)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

func TestInitTerminal(t *testing.T) {
	resetHAL(t)

	mockConsoleProbe(physmem.MustMap(80 * 25 * 2))
	cmdLineFn = func() map[string]string { return map[string]string{"diagColor": "10"} }

	if err := InitTerminal(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if Stdout() == nil || Stderr() == nil || Console() == nil {
		t.Fatal("expected the terminal devices to be initialized")
	}

	if got, exp := Stdout().Attr(), console.ColorCode(console.White, console.Black); got != exp {
		t.Fatalf("expected stdout attribute 0x%x; got 0x%x", exp, got)
	}
	if got, exp := Stderr().Attr(), console.ColorCode(console.LightGreen, console.Black); got != exp {
		t.Fatalf("expected stderr attribute 0x%x; got 0x%x", exp, got)
	}

	if kfmt.GetOutputSink() != io.Writer(Stdout()) || kfmt.GetDiagnosticSink() != io.Writer(Stderr()) {
		t.Fatal("expected kfmt sinks to be connected to the terminal")
	}

	if text := screenText(Console()); !strings.Contains(text, "[hal] vga_text_console(1.0.0): framebuffer at 0x") {
		t.Fatalf("expected console init output to be replayed; got:\n%s", text)
	}

	// a second call keeps the existing sinks
	stdout := Stdout()
	if err := InitTerminal(); err != nil || Stdout() != stdout {
		t.Fatal("expected InitTerminal to be idempotent")
	}
}

func TestInitTerminalWithoutConsole(t *testing.T) {
	resetHAL(t)
	consoleProbesFn = func() []device.ProbeFn { return nil }

	if err := InitTerminal(); err != errNoConsole {
		t.Fatalf("expected errNoConsole; got %v", err)
	}
	if Stdout() != nil || Stderr() != nil {
		t.Fatal("expected no sinks without a console")
	}
}

func TestDiagColor(t *testing.T) {
	defer func() { cmdLineFn = bootinfo.CmdLine }()

	specs := []struct {
		cmdLine map[string]string
		exp     console.Color
	}{
		{map[string]string{}, console.LightRed},
		{map[string]string{"diagColor": "14"}, console.Yellow},
		{map[string]string{"diagColor": "16"}, console.LightRed},
		{map[string]string{"diagColor": "red"}, console.LightRed},
	}

	for specIndex, spec := range specs {
		cmdLineFn = func() map[string]string { return spec.cmdLine }
		if got := diagColor(); got != spec.exp {
			t.Errorf("[spec %d] expected color %d; got %d", specIndex, spec.exp, got)
		}
	}
}

type mockDriver struct {
	name    string
	initErr *kernel.Error
}

func (d *mockDriver) DriverName() string                      { return d.name }
func (d *mockDriver) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 2 }
func (d *mockDriver) DriverInit(w io.Writer) *kernel.Error {
	if d.initErr == nil {
		kfmt.Fprintf(w, "probing\n")
	}
	return d.initErr
}

func TestDetectHardware(t *testing.T) {
	resetHAL(t)

	var buf bytes.Buffer
	kfmt.SetOutputSink(&buf)

	var (
		good    = &mockDriver{name: "good"}
		early   = &mockDriver{name: "early"}
		failing = &mockDriver{name: "failing", initErr: &kernel.Error{Module: "test", Message: "no device"}}
	)

	driverListFn = func() device.DriverInfoList {
		return device.DriverInfoList{
			{Order: device.DetectOrderLast, Probe: func() device.Driver { return good }},
			{Order: device.DetectOrderNormal, Probe: func() device.Driver { return failing }},
			{Order: device.DetectOrderNormal, Probe: func() device.Driver { return nil }},
			{Order: device.DetectOrderEarly, Probe: func() device.Driver { return early }},
		}
	}

	DetectHardware()

	exp := "[hal] early(0.1.2): probing\n" +
		"[hal] early(0.1.2): initialized\n" +
		"[hal] failing(0.1.2): init failed: no device\n" +
		"[hal] good(0.1.2): probing\n" +
		"[hal] good(0.1.2): initialized\n"

	if buf.String() != exp {
		t.Fatalf("expected output:\n%s\ngot:\n%s", exp, buf.String())
	}

	active := ActiveDrivers()
	if len(active) != 2 || active[0] != device.Driver(early) || active[1] != device.Driver(good) {
		t.Fatalf("expected early and good drivers to be active; got %v", active)
	}
}

func TestPICs(t *testing.T) {
	p := PICs()
	if off1, off2 := p.Offsets(); off1 != 32 || off2 != 40 {
		t.Fatalf("expected offsets (32, 40); got (%d, %d)", off1, off2)
	}
	if PICs() != p {
		t.Fatal("expected PICs to return the same instance")
	}
}
