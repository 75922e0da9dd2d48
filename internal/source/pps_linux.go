//go:build linux

package source

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux PPS API (include/uapi/linux/pps.h):
// PPS_FETCH = _IOWR('p', 0xa4, struct pps_fdata *) — размер в номере ioctl равен размеру указателя
// pps_fdata { pps_kinfo info; pps_ktime timeout; }
// pps_kinfo: assert_sequence u32, clear_sequence u32, assert_tu (sec s64, nsec s32, flags u32), clear_tu, current_mode
// Нулевой timeout без PPS_TIME_INVALID — ядро отвечает сразу, не дожидаясь фронта.
const (
	ppsIoctlFetch = 0xc0000000 | uintptr(unsafe.Sizeof(uintptr(0)))<<16 | 'p'<<8 | 0xa4
	ppsFdataSize  = 64
	ppsAssertSeq  = 0
	ppsAssertSec  = 8
	ppsAssertNsec = 16
)

func init() {
	openPPSDevice = openLinuxPPS
}

type linuxPPS struct {
	f   *os.File
	buf [ppsFdataSize]byte
}

func openLinuxPPS(index int) (ppsDevice, error) {
	path := filepath.Join("/dev", fmt.Sprintf("pps%d", index))
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &linuxPPS{f: f}, nil
}

// fetch выполняет PPS_FETCH и разбирает последний assert.
func (d *linuxPPS) fetch() (ppsEvent, error) {
	for i := range d.buf {
		d.buf[i] = 0
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), ppsIoctlFetch, uintptr(unsafe.Pointer(&d.buf[0])))
	if errno != 0 {
		return ppsEvent{}, errno
	}
	return ppsEvent{
		seq:  binary.LittleEndian.Uint32(d.buf[ppsAssertSeq:]),
		sec:  int64(binary.LittleEndian.Uint64(d.buf[ppsAssertSec:])),
		nsec: int32(binary.LittleEndian.Uint32(d.buf[ppsAssertNsec:])),
	}, nil
}

func (d *linuxPPS) Close() error {
	return d.f.Close()
}
