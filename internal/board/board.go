// Package board is the catalog of supported development boards.
//
// The catalog is closed: every board is one of the [Kind] values below, and
// device generation switches over Kind rather than looking boards up
// dynamically.
package board

import (
	"fmt"
	"sort"
)

// Kind identifies a board family with its own device generator.
type Kind int

const (
	// KindAZ3166 is the MXChip IoT DevKit (AZ3166).
	KindAZ3166 Kind = iota + 1
	// KindESP32 is an Arduino-core ESP32 board.
	KindESP32
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAZ3166:
		return "az3166"
	case KindESP32:
		return "esp32"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Board describes one supported board.
type Board struct {
	// ID is the stable identifier stored in project configuration.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// DetailInfo is a one-line description.
	DetailInfo string `json:"detailInfo"`
	// Kind selects the device generator.
	Kind Kind `json:"-"`
	// Package is the Arduino package name under <arduino>/packages.
	Package string `json:"-"`
	// Architecture is the Arduino hardware architecture under the package.
	Architecture string `json:"-"`
	// FQBN is the fully qualified board name passed to the Arduino tooling.
	FQBN string `json:"-"`
}

// Well-known board IDs.
const (
	DevKitID = "devkit"
	ESP32ID  = "esp32"
)

// DefaultID is the board used when a project does not name one.
const DefaultID = DevKitID

var builtin = map[string]Board{
	DevKitID: {
		ID:           DevKitID,
		Name:         "MXChip IoT DevKit",
		DetailInfo:   "MXChip - Microsoft Azure IoT Developer Kit",
		Kind:         KindAZ3166,
		Package:      "AZ3166",
		Architecture: "stm32f4",
		FQBN:         "AZ3166:stm32f4:MXCHIP_AZ3166",
	},
	ESP32ID: {
		ID:           ESP32ID,
		Name:         "Arduino ESP32",
		DetailInfo:   "Arduino-core ESP32 boards (M5Stack Core)",
		Kind:         KindESP32,
		Package:      "esp32",
		Architecture: "esp32",
		FQBN:         "esp32:esp32:m5stack-core-esp32",
	},
}

// Registry resolves board IDs to descriptors.
type Registry interface {
	// Find returns the board with the given ID.
	Find(id string) (Board, bool)
}

// Catalog is the built-in [Registry].
type Catalog struct{}

// Find returns the built-in board with the given ID.
func (Catalog) Find(id string) (Board, bool) {
	b, ok := builtin[id]
	return b, ok
}

// List returns every built-in board sorted by ID.
func (Catalog) List() []Board {
	out := make([]Board, 0, len(builtin))
	for _, b := range builtin {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NotFoundError reports a board ID missing from the registry.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("board %q not found", e.ID)
}

var _ Registry = Catalog{}
