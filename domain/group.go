package domain

// DefaultGroup always exists and receives every message whose recipient list
// is empty.
const DefaultGroup = "general"

type Set map[string]struct{}

// Group is a named set of recipients. Groups are created implicitly the first
// time a sender references them and live only as long as the process.
type Group struct {
	Name      string
	Members   Set
	Delivered uint64
}

func NewGroup(name string) *Group {
	return &Group{Name: name, Members: make(Set)}
}

// Join records a session as a member. Joining twice is a no-op.
func (g *Group) Join(sessionID string) {
	g.Members[sessionID] = struct{}{}
}

func (g *Group) MemberCount() int {
	return len(g.Members)
}
