package ws

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans sandbox events out to subscribers keyed by environment ID.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

// message couples a payload with its environment identifier.
type message struct {
	environmentID string
	payload       []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	environmentID string
	client        Subscriber
}

// NewHub creates an initialized Hub and starts its event loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.environmentID]; !ok {
				h.clients[sub.environmentID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.environmentID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.environmentID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.environmentID)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.environmentID]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.environmentID)
				}
			}
		}
	}
}

// Register adds a client to an environment stream.
func (h *Hub) Register(environmentID string, client Subscriber) {
	h.register <- subscription{environmentID: environmentID, client: client}
}

// Unregister removes a client.
func (h *Hub) Unregister(environmentID string, client Subscriber) {
	h.unreg <- subscription{environmentID: environmentID, client: client}
}

// Broadcast sends payload to every client watching the environment.
func (h *Hub) Broadcast(environmentID string, payload []byte) {
	h.broadcast <- message{environmentID: environmentID, payload: payload}
}
