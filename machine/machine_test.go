package machine

import (
	"bibos/kernel/cpu"
	"bibos/kernel/hal/bootinfo"
	"testing"
	"time"
	"unsafe"
)

func TestMachineBootInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CmdLine = "selfTest=off"
	m := New(cfg)

	info := bootinfo.GetInfo()
	if info.FramebufferAddr != uintptr(unsafe.Pointer(&m.vram[0])) {
		t.Fatal("expected the framebuffer to point at the machine video memory")
	}

	if info.FramebufferWidth != 80 || info.FramebufferHeight != 25 {
		t.Fatalf("expected 80x25 text mode; got %dx%d", info.FramebufferWidth, info.FramebufferHeight)
	}

	if info.HeapStart != uintptr(unsafe.Pointer(&m.ram[0])) || info.HeapSize != 100*1024 {
		t.Fatalf("unexpected heap range 0x%x+%d", info.HeapStart, info.HeapSize)
	}

	if info.CmdLine != "selfTest=off" || m.Config().CmdLine != "selfTest=off" {
		t.Fatalf("unexpected command line %q", info.CmdLine)
	}
}

func TestMachineScreen(t *testing.T) {
	m := New(Config{Columns: 4, Rows: 2})
	m.vram[0] = 0x0f00 | 'h'
	m.vram[1] = 0x0f00 | 'i'
	m.vram[5] = 0x4f00 | '!'

	snapshot := m.Snapshot()
	if len(snapshot) != 2 || len(snapshot[0]) != 4 {
		t.Fatalf("expected a 4x2 snapshot; got %d rows", len(snapshot))
	}

	if c := snapshot[1][1]; c.Char != '!' || c.Attr != 0x4f {
		t.Fatalf("unexpected cell %+v", c)
	}

	screen := m.Screen()
	if screen[0] != "hi" || screen[1] != " !" {
		t.Fatalf("unexpected screen %q", screen)
	}
}

func TestMachineInterruptDelivery(t *testing.T) {
	m := New(DefaultConfig())
	defer cpu.SetInterruptDispatcher(nil)

	vectors := make(chan uint8, 4)
	cpu.SetInterruptDispatcher(func(v uint8) {
		vectors <- v
		if v >= 0x70 {
			cpu.PortWriteByte(0xa0, 0x20)
		}
		cpu.PortWriteByte(0x20, 0x20)
	})

	m.Boot(func() {
		cpu.EnableInterrupts()
		for {
			cpu.WaitForInterrupt()
		}
	})

	if err := m.WaitIdle(time.Second); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		stimulus func()
		exp      uint8
	}{
		{m.Tick, 0x08},
		{func() { m.PressScancodes(0x1e) }, 0x09},
		{func() { m.RaiseIRQ(14) }, 0x76},
	}

	for specIndex, spec := range specs {
		if err := m.Step(spec.stimulus, time.Second); err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}

		select {
		case v := <-vectors:
			if v != spec.exp {
				t.Errorf("[spec %d] expected vector 0x%x; got 0x%x", specIndex, spec.exp, v)
			}
		default:
			t.Errorf("[spec %d] expected an interrupt to be delivered", specIndex)
		}
	}

	if m.Halted() {
		t.Fatal("expected the CPU to keep running")
	}

	m.Shutdown()
	if !m.Halted() {
		t.Fatal("expected the CPU to halt after Shutdown")
	}
}

func TestMachineDebugExitPowersOff(t *testing.T) {
	m := New(DefaultConfig())

	m.Boot(func() {
		cpu.PortWriteDword(0xf4, 0x10)
		cpu.EnableInterrupts()
		for {
			cpu.WaitForInterrupt()
		}
	})

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the debug exit device to power off the machine")
	}

	if code, ok := m.DebugExit.ExitCode(); !ok || code != 0x10 {
		t.Fatalf("expected exit code 0x10; got 0x%x, %t", code, ok)
	}
}
