package device

// Kind classifies how a Property's admissible values are described.
type Kind int

const (
	// KindEnum properties decode to a fixed, named enumeration.
	KindEnum Kind = iota
	// KindLiteral properties decode to one of a small set of bounded
	// integer literals (e.g. humidity_target's {40,50,60,70}).
	KindLiteral
	// KindRaw properties expose a raw numeric/string value with no
	// enumerated admissible set (temperature, humidity, runtime_seconds,
	// device name, error, filter percentage).
	KindRaw
)

// Property describes one named attribute of a device model: how to decode
// it from the raw status dictionary, how (if at all) to write it back, and
// what values are admissible.
type Property struct {
	Name string
	Kind Kind

	// Decode reads the typed value out of the raw dictionary. Must never
	// fail — missing keys fall back to a documented default.
	Decode func(raw RawStatus) any

	// Coerce converts an arbitrary input (a string received over MQTT, or
	// an already-typed Go value) into this attribute's declared type.
	// Returns ErrInvalidValue if coercion is impossible. nil for
	// read-only attributes.
	Coerce func(input any) (any, error)

	// Encode mutates raw in place for the given already-coerced value and
	// returns the ordered commands to enqueue (usually one; two when an
	// implicit power-on precedes the attribute's own command; zero if the
	// write is a no-op). nil for read-only attributes.
	Encode func(raw RawStatus, value any) ([]Command, error)

	// Admissible returns the declared value set for introspection and
	// inbound command validation: enum member names, literal value
	// strings, or nil for unbounded/free-typed attributes.
	Admissible func() []string
}

// Table is a static description table mapping attribute name to Property.
// The State type is a thin interpreter over a Table; no reflection is
// involved in decoding or encoding.
type Table map[string]*Property
