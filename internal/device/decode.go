// internal/device/decode.go
package device

import (
	"fmt"
	"strings"
)

// DecodeTelemetry converts a telemetry block into a snapshot.
// Layout is protocol-locked.
// No IO. No side effects.
func DecodeTelemetry(regs []uint16) (Telemetry, error) {
	if len(regs) < TelemetryRegs {
		return Telemetry{}, fmt.Errorf("device: telemetry block too short: got=%d want=%d", len(regs), TelemetryRegs)
	}

	return Telemetry{
		TempNozzle:    scaled(regs[RegTempNozzle], 10),
		TempBed:       scaled(regs[RegTempBed], 10),
		TargetNozzle:  scaled(regs[RegTargetNozzle], 10),
		TargetBed:     scaled(regs[RegTargetBed], 10),
		AxisZ:         scaled(regs[RegAxisZ], 100),
		FanExtruder:   int(regs[RegFanExtruder]),
		FanPrint:      int(regs[RegFanPrint]),
		PrintSpeed:    int(regs[RegPrintSpeed]),
		Flow:          int(regs[RegFlow]),
		State:         State(regs[RegState]),
		JobID:         regs[RegJobID],
		Progress:      int(regs[RegProgress]),
		TimePrinting:  u32(regs[RegTimePrinting], regs[RegTimePrinting+1]),
		TimeRemaining: u32(regs[RegTimeRemaining], regs[RegTimeRemaining+1]),
	}, nil
}

// scaled reads a signed fixed-point register.
func scaled(r uint16, div float64) float64 {
	return float64(int16(r)) / div
}

func u32(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// ---- ASCII <-> REGISTERS ----

// encodeASCII packs s into regs registers, two bytes per register,
// big-endian, zero padded. Non-printable bytes become '?'.
func encodeASCII(s string, regs int) []uint16 {
	out := make([]uint16, regs)

	b := []byte(s)
	if len(b) > regs*2 {
		b = b[:regs*2]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < regs*2; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// decodeASCII unpacks registers written by encodeASCII, stopping at the
// first zero byte.
func decodeASCII(regs []uint16) string {
	var sb strings.Builder
	for _, r := range regs {
		for _, c := range [2]byte{byte(r >> 8), byte(r)} {
			if c == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
