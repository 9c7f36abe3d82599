package model

// Observer receives every record the consumer applies to its live structures.
// Observe is called on the consumer goroutine and must not block.
type Observer interface {
	Observe(rec *PacketRecord)
}
