package services

// Broadcaster fans an event out to every member of a room. Implemented by
// realtime.Hub.
type Broadcaster interface {
	Broadcast(room, event string, payload interface{})
	BroadcastAll(event string, payload interface{})
}

// Member is one connected client. Implemented by realtime.Client.
type Member interface {
	Join(room string)
	Send(event string, payload interface{})
}
