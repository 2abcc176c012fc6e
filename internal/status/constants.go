// internal/status/constants.go
package status

// Node Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per node.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the node health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the access status flags of the last failed poll.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the node has been in error.
const SlotSecondsInError = 2

// SlotNodeAddress holds the bus address of the node.
const SlotNodeAddress = 3

// ---- RESERVED RANGE ----

// Slots 4-10 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// SecondsInErrorMax is the saturation value of SlotSecondsInError.
const SecondsInErrorMax = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a node answering every poll.
const HealthOK uint16 = 1

// HealthError represents a node failing its polls.
const HealthError uint16 = 2
