package game

// Registry maps a username to its single live connection. It is owned by the
// hub goroutine and must only be touched from inside the hub loop.
type Registry struct {
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register records the mapping, or fails with ErrAlreadyConnected if the
// username already has a live connection. This is the single source of truth
// for "is this user already playing elsewhere".
func (reg *Registry) Register(c *Client) error {
	if _, taken := reg.clients[c.username]; taken {
		return ErrAlreadyConnected
	}
	reg.clients[c.username] = c
	return nil
}

// Unregister removes the mapping, but only if it still points at c. A stale
// disconnect arriving after the same user reconnected must not evict the new
// connection. Idempotent.
func (reg *Registry) Unregister(c *Client) {
	if current, ok := reg.clients[c.username]; ok && current == c {
		delete(reg.clients, c.username)
	}
}

func (reg *Registry) Lookup(username string) (*Client, bool) {
	c, ok := reg.clients[username]
	return c, ok
}

func (reg *Registry) Count() int {
	return len(reg.clients)
}

func (reg *Registry) Each(fn func(c *Client)) {
	for _, c := range reg.clients {
		fn(c)
	}
}
