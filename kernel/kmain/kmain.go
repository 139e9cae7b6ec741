package kmain

import (
	"bibos/device/keyboard"
	"bibos/device/qemu"
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/gate"
	"bibos/kernel/hal"
	"bibos/kernel/hal/bootinfo"
	"bibos/kernel/irq"
	"bibos/kernel/kfmt"
	"bibos/kernel/mem"
	"bibos/kernel/mem/heap"
	"unsafe"
)

var (
	errHeapNotReclaimed = &kernel.Error{Module: "kmain", Message: "heap arena was not reclaimed after every allocation was freed"}
	errCorruptValue     = &kernel.Error{Module: "kmain", Message: "heap value changed while it was in use"}
)

// Kmain is the entry point of the kernel. The platform entry code invokes it
// once the boot information has been recorded with bootinfo.SetInfo.
//
// Kmain is not expected to return. After booting it idles, servicing
// interrupts, until the machine is powered off.
//
//go:noinline
func Kmain() {
	if err := hal.InitTerminal(); err != nil {
		kfmt.Panic(err)
	}
	kfmt.Printf("Hello, World!\n")

	if err := irq.Init(hal.PICs(), hal.Stdout(), keyboard.NewUS104Set1()); err != nil {
		kfmt.Panic(err)
	} else if err = gate.Init(); err != nil {
		kfmt.Panic(err)
	}

	hal.DetectHardware()
	cpu.EnableInterrupts()

	info := bootinfo.GetInfo()
	if err := heap.Init(info.HeapStart, mem.Size(info.HeapSize)); err != nil {
		kfmt.Panic(err)
	}

	cmdLine := bootinfo.CmdLine()
	if cmdLine["heapDemo"] != "off" {
		if err := heapDemo(); err != nil {
			kfmt.Panic(err)
		}
	}

	if cmdLine["selfTest"] != "off" {
		gate.Int3()
	}

	kfmt.Printf("It did not crash\n")

	if _, exit := cmdLine["exitOnBoot"]; exit {
		qemu.Exit(qemu.ExitSuccess)
	}

	for {
		cpu.WaitForInterrupt()
	}
}

// heapDemo exercises the kernel heap: a boxed value, a growing vector and a
// reference counted cell. Once everything is released the next allocation
// must land at the start of the arena again.
func heapDemo() *kernel.Error {
	boxLayout, err := heap.NewLayout(unsafe.Sizeof(uint64(0)), unsafe.Alignof(uint64(0)))
	if err != nil {
		return err
	}

	box, err := heap.Alloc(boxLayout)
	if err != nil {
		return err
	}
	value := (*uint64)(unsafe.Pointer(box))
	*value = 41
	kfmt.Printf("heap_value (%d) at 0x%x\n", *value, box)

	vec := heap.NewUint64Vec(heap.Kernel())
	for i := 0; i < 500; i++ {
		if err = vec.Push(uint64(i)); err != nil {
			return err
		}
	}

	kfmt.Printf("vec [")
	for i := 0; i < 5; i++ {
		v, _ := vec.Get(i)
		if i != 0 {
			kfmt.Printf(" ")
		}
		kfmt.Printf("%d", v)
	}
	kfmt.Printf("]... at 0x%x\n", vec.Addr())

	shared, err := heap.NewShared(heap.Kernel(), 3)
	if err != nil {
		return err
	}
	clone, err := shared.Clone()
	if err != nil {
		return err
	}
	kfmt.Printf("current reference count is %d\n", clone.RefCount())
	shared.Release()
	kfmt.Printf("reference count is %d now\n", clone.RefCount())
	clone.Release()

	if *value != 41 {
		return errCorruptValue
	}

	vec.Drop()
	heap.Free(box, boxLayout)

	again, err := heap.Alloc(boxLayout)
	if err != nil {
		return err
	}
	heap.Free(again, boxLayout)

	if again != heap.KernelStats().HeapStart {
		return errHeapNotReclaimed
	}
	return nil
}
