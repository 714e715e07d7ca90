package domain

// SignedDocument is a finalized signed XML document. Once produced, Data
// is final: any re-serialization (pretty-printing, re-parse and reprint)
// invalidates the digest and must never happen between signing and
// transmission.
type SignedDocument struct {
	// Data is the exact byte sequence to transmit.
	Data []byte

	// ElementID is the ID attribute of the signed element, i.e. the
	// target of the signature's reference URI.
	ElementID string
}
