// Package connman declares the narrow interface the engine uses to
// reach the bearer/connection manager, an external collaborator this
// module never implements itself.
package connman

// ConnectionState tracks a Connection through its lifecycle. Failed
// and Closed are terminal: a Connection never regresses to an earlier
// state once reached.
type ConnectionState int

const (
	Opening ConnectionState = iota
	Open
	Failed
	Closed
)

func (s ConnectionState) String() string {
	switch s {
	case Opening:
		return "Opening"
	case Open:
		return "Open"
	case Failed:
		return "Failed"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Kind distinguishes the bearer context requested: the default MMS
// context, or a fallback requiring explicit user opt-in.
type Kind int

const (
	KindDefault Kind = iota
	KindUser
)

// Connection is an open (or opening) cellular data context bound to
// one IMSI, carrying the MMSC URL, an optional proxy, and the local
// network interface name the HTTP client must bind to.
type Connection interface {
	IMSI() string
	MMSCURL() string
	ProxyHostPort() string // empty when no proxy is configured
	NetIf() string
	State() ConnectionState
	Close()
}

// ConnMan opens and tracks bearer connections on the engine's behalf.
// OpenConnection returns nil, nil when no connection can be obtained
// (e.g. no SIM present) rather than an error, matching the reference's
// "ConnMan returns nothing" contract.
type ConnMan interface {
	DefaultIMSI() string
	OpenConnection(imsi string, kind Kind) (Connection, error)

	// Busy reports whether ConnMan has pending work, consulted by the
	// dispatcher's idle-shutdown check.
	Busy() bool
}
