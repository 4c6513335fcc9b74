package rollingrestart

import (
	"strings"
)

// Role is the part a node plays in the cluster, as far as
// maintenance is concerned.
type Role string

// Roles.
const (
	RoleData   Role = "data"
	RoleMaster Role = "master"
	RoleOther  Role = "other"
)

// DefaultDataMarker is the hostname substring that marks data nodes.
const DefaultDataMarker = "data"

// RolePredicate reports whether a host holds data.
type RolePredicate func(host string) bool

// HostContains returns a RolePredicate that matches hosts containing marker.
func HostContains(marker string) RolePredicate {
	return func(host string) bool {
		return marker != "" && strings.Contains(host, marker)
	}
}

// Node is a host to maintain.
type Node struct {
	Host string
	Role Role
}

// NewNode returns a Node for host. The role is data if isData matches,
// else master if the host contains "master", else other.
func NewNode(host string, isData RolePredicate) Node {
	role := RoleOther
	switch {
	case isData(host):
		role = RoleData
	case strings.Contains(host, string(RoleMaster)):
		role = RoleMaster
	}
	return Node{Host: host, Role: role}
}

// NewNodes returns Nodes for hosts, in the same order.
func NewNodes(hosts []string, isData RolePredicate) []Node {
	nodes := make([]Node, len(hosts))
	for i, h := range hosts {
		nodes[i] = NewNode(h, isData)
	}
	return nodes
}

// ShortName is the hostname without its domain, which is what
// Elasticsearch uses as the default node name.
func (n Node) ShortName() string {
	if i := strings.IndexByte(n.Host, '.'); i > 0 {
		return n.Host[:i]
	}
	return n.Host
}

// IsData reports whether shard allocation has to be managed
// around this node's maintenance.
func (n Node) IsData() bool {
	return n.Role == RoleData
}

func (n Node) String() string {
	return n.Host
}
