package mms

// From is the decoded form of a From header: either a concrete
// address or a request that the MMSC insert the sender's own address.
type From struct {
	InsertAddress bool
	Address       string
	MIBEnum       int
}

// Expiry is the decoded form of an Expiry or Delivery-Time header:
// either an absolute point in time or a delta in seconds from now.
type Expiry struct {
	Absolute bool
	At       int64 // seconds since epoch, when Absolute
	DeltaSec int64 // seconds from now, when !Absolute
}
