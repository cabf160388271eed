package auction

// Broadcaster receives every accepted product mutation. The store calls it
// synchronously from inside the critical section that produced the update, so
// implementations must never call back into the store.
type Broadcaster interface {
	BroadcastProduct(Product)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(Product)

func (f BroadcasterFunc) BroadcastProduct(p Product) { f(p) }
