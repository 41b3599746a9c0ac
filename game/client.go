package game

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client is one live connection bound to one identity. The pumps are the only
// code that touches the socket; everything else goes through the hub.
type Client struct {
	username string
	session  NetworkSession
	hub      *Hub

	outbox chan []byte
	pings  chan struct{}

	limiter *rate.Limiter

	// Location state. Owned by the hub goroutine: the pumps never read or
	// write these.
	roomID  string
	inLobby bool
}

func NewClient(username string, session NetworkSession, hub *Hub) *Client {
	return &Client{
		username: username,
		session:  session,
		hub:      hub,
		outbox:   make(chan []byte, 256),
		pings:    make(chan struct{}, 1),
		limiter:  rate.NewLimiter(10, 20),
	}
}

func (c *Client) Username() string { return c.username }

// ReadPump reads frames until the socket dies, parses them once, and posts
// the resulting actions to the hub. The hub is also the one replying to
// malformed frames so that the outbox stays single-producer.
func (c *Client) ReadPump() {
	defer c.hub.post(command{kind: cmdDisconnect, client: c})

	for {
		data, err := c.session.Read()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		action, err := ParseAction(data)
		if err != nil {
			c.hub.post(command{kind: cmdMalformed, client: c})
			continue
		}
		c.hub.post(command{kind: cmdAction, client: c, action: action})
	}
}

func (c *Client) WritePump() {
loop:
	for {
		select {
		case data, ok := <-c.outbox:
			if !ok {
				break loop
			}
			if err := c.session.Write(data); err != nil {
				break loop
			}
		case _, ok := <-c.pings:
			if !ok {
				break loop
			}
			if err := c.session.Ping(); err != nil {
				break loop
			}
		}
	}
	c.session.Close("")
}

// send enqueues without blocking; a client that cannot drain its outbox loses
// frames rather than stalling the hub. Hub goroutine only.
func (c *Client) send(data []byte) {
	select {
	case c.outbox <- data:
	default:
		log.Warn().Str("username", c.username).Msg("outbox full, dropping frame")
	}
}

// ping requests one ping frame from the write pump. Hub goroutine only.
func (c *Client) ping() {
	select {
	case c.pings <- struct{}{}:
	default:
	}
}

// release ends the write pump. Hub goroutine only, exactly once per client.
func (c *Client) release() {
	close(c.outbox)
	close(c.pings)
}
