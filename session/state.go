package session

import "fmt"

// State is the position of a session in its lifecycle.
//
//	Unregistered --REGISTER--> Registered --EXIT / disconnect--> Terminated
//	Unregistered --EXIT / disconnect--> Terminated
type State int32

const (
	Unregistered State = iota
	Registered
	Terminated
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "UNREGISTERED"
	case Registered:
		return "REGISTERED"
	case Terminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
