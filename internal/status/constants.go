// internal/status/constants.go
package status

// Link Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of logical slots per printer.
const SlotsPerBlock = 20

// ---- SLOT INDICES ----

// SlotLinkCode holds the link state.
const SlotLinkCode = 0

// SlotLastErrorCode holds the last error code.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the link has been in error.
const SlotSecondsInError = 2

// SlotPrinterState holds the printer state as seen in telemetry.
const SlotPrinterState = 3

// ---- RESERVED RANGE ----

// Slots 4-10 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- PRINTER NAME ----

// SlotPrinterNameStart is the first slot used for the printer name.
// The name is always placed at the END of the status block.
const SlotPrinterNameStart = 11

// SlotPrinterNameSlots is the number of slots reserved for the printer name.
const SlotPrinterNameSlots = 8

// SlotPrinterNameEnd is the last slot used for the printer name (inclusive).
const SlotPrinterNameEnd = SlotPrinterNameStart + SlotPrinterNameSlots - 1

// ---- LIMITS ----

// PrinterNameMaxChars is the maximum number of ASCII characters stored for the name.
const PrinterNameMaxChars = 16

// SecondsInErrorMax is where seconds_in_error saturates.
const SecondsInErrorMax = 65535
