package cpu

import "sync"

// PortDevice is implemented by hardware that responds to port I/O. The size
// argument is the access width in bytes (1, 2 or 4).
type PortDevice interface {
	PortRead(port uint16, size uint8) uint32
	PortWrite(port uint16, size uint8, val uint32)
}

var (
	portLock sync.RWMutex
	portMap  = make(map[uint16]PortDevice)
)

// AttachPortDevice routes accesses to the supplied ports to dev.
func AttachPortDevice(dev PortDevice, ports ...uint16) {
	portLock.Lock()
	for _, port := range ports {
		portMap[port] = dev
	}
	portLock.Unlock()
}

// DetachPortDevices disconnects every attached port device.
func DetachPortDevices() {
	portLock.Lock()
	portMap = make(map[uint16]PortDevice)
	portLock.Unlock()
}

func portDevice(port uint16) PortDevice {
	portLock.RLock()
	dev := portMap[port]
	portLock.RUnlock()
	return dev
}

func portWrite(port uint16, size uint8, val uint32) {
	if dev := portDevice(port); dev != nil {
		dev.PortWrite(port, size, val)
	}
}

// Reads from ports without a device see a floating bus.
func portRead(port uint16, size uint8, floating uint32) uint32 {
	if dev := portDevice(port); dev != nil {
		return dev.PortRead(port, size)
	}
	return floating
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8) {
	portWrite(port, 1, uint32(val))
}

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16) {
	portWrite(port, 2, uint32(val))
}

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32) {
	portWrite(port, 4, val)
}

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8 {
	return uint8(portRead(port, 1, 0xff))
}

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16 {
	return uint16(portRead(port, 2, 0xffff))
}

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32 {
	return portRead(port, 4, 0xffffffff)
}

// IOWait performs a write to an unused port giving slow devices time to
// process the previous command.
func IOWait() {
	PortWriteByte(0x80, 0)
}
