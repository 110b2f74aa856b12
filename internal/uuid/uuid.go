// Package uuid generates the 16-byte document identifiers the shell assigns
// client-side when adding documents without an _id.
//
// Layout: TIME_LOW(32) | TIME_MID(16) | TIME_HI_AND_VER(16) | PROCESS_ID(16)
// | HW_MAC(48). The time fields come from a 100ns-tick clock; when calls
// land inside one clock granule the logical counter borrows from the future
// so the time prefix stays strictly monotonic within the process.
package uuid

import (
	"encoding/binary"
	"net"
	"os"
	"sync"
	"time"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

const version = 0x1000

// UUID is a generated 16-byte identifier.
type UUID [16]byte

// Generator holds the process-wide clock/counter state. The lifecycle is
// explicit (Init once with a caller-supplied seed, Generate any number of
// times, Shutdown when done) because the seed must never be chosen
// implicitly on first use.
type Generator struct {
	mu       sync.Mutex
	lastTime uint64
	pid      uint16
	mac      [6]byte
	ready    bool
}

var global Generator

// Init prepares the process-wide generator. The seed feeds the fallback
// node identity when no hardware address is discoverable. Calling Init on
// an initialised generator reseeds it.
func Init(seed uint64) {
	global.Init(seed)
}

// Generate returns the next identifier from the process-wide generator.
func Generate() (UUID, error) {
	return global.Generate()
}

// Shutdown releases the process-wide generator.
func Shutdown() {
	global.Shutdown()
}

// Init seeds the generator. No I/O happens under the lock: the hardware
// address is discovered before the state is swapped in.
func (g *Generator) Init(seed uint64) {
	mac, ok := hardwareAddr()
	if !ok {
		// Derive a stable node id from the seed, clock, and pid. The
		// multicast bit is set so it can never collide with a real MAC.
		mix := seed ^ uint64(time.Now().UnixNano()) ^ uint64(os.Getpid())<<32
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], mix*0x9e3779b97f4a7c15)
		copy(mac[:], buf[2:])
		mac[0] |= 0x01
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pid = uint16(os.Getpid())
	g.mac = mac
	g.lastTime = 0
	g.ready = true
}

// Generate produces the next identifier. It fails once Shutdown has run.
func (g *Generator) Generate() (UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		return UUID{}, errs.New(errs.KindInternal, "", "UUID generator is not initialized")
	}

	ts := clockTicks()
	if ts <= g.lastTime {
		// Clock granularity exhausted: borrow from the future to keep
		// the time prefix strictly increasing.
		ts = g.lastTime + 1
	}
	g.lastTime = ts

	var u UUID
	binary.BigEndian.PutUint32(u[0:4], uint32(ts))            // TIME_LOW
	binary.BigEndian.PutUint16(u[4:6], uint16(ts>>32))        // TIME_MID
	binary.BigEndian.PutUint16(u[6:8], uint16(ts>>48)|version) // TIME_HI_AND_VER
	binary.BigEndian.PutUint16(u[8:10], g.pid)                // PROCESS_ID
	copy(u[10:16], g.mac[:])                                  // HW_MAC
	return u, nil
}

// Shutdown releases the generator. Further Generate calls fail until the
// next Init.
func (g *Generator) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
}

// TimePrefix returns the 64-bit monotonic time prefix of u, suitable for
// ordering identifiers generated by one process.
func (u UUID) TimePrefix() uint64 {
	low := uint64(binary.BigEndian.Uint32(u[0:4]))
	mid := uint64(binary.BigEndian.Uint16(u[4:6]))
	hi := uint64(binary.BigEndian.Uint16(u[6:8]) &^ version)
	return hi<<48 | mid<<32 | low
}

// clockTicks returns the system clock as 100ns ticks.
func clockTicks() uint64 {
	return uint64(time.Now().UnixNano() / 100)
}

// hardwareAddr returns the first usable adapter MAC.
func hardwareAddr() ([6]byte, bool) {
	var mac [6]byte
	ifaces, err := net.Interfaces()
	if err != nil {
		return mac, false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) < 6 {
			continue
		}
		copy(mac[:], iface.HardwareAddr[:6])
		return mac, true
	}
	return mac, false
}
