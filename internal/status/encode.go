// internal/status/encode.go
package status

// Encode converts a Snapshot into the live part of a status block.
// Name slots are left zero.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotLinkCode] = uint16(s.Link)
	regs[SlotLastErrorCode] = uint16(s.LastErrorCode)
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotPrinterState] = s.PrinterState

	return regs
}
