// Package permission answers whether an actor holds a named capability.
//
// Capabilities are dotted nodes such as "bukkit.command.unban.player". A
// grant of "bukkit.command.*" covers every node below "bukkit.command", and
// "*" covers everything. A grant prefixed with "-" revokes the node and wins
// over any positive grant.
package permission

import (
	"strings"

	"github.com/shse/warden/actor"
)

type Oracle interface {
	Has(sender actor.Sender, permission string) (bool, error)
}

// Always is an oracle with a fixed answer.
type Always bool

const (
	AllowAll = Always(true)
	DenyAll  = Always(false)
)

var (
	_ Oracle = AllowAll
	_ Oracle = (*Set)(nil)
)

func (a Always) Has(actor.Sender, string) (bool, error) {
	return bool(a), nil
}

// Set is an immutable permission table. The console and operators hold
// every capability.
type Set struct {
	operators map[string]bool
	defaults  []string
	grants    map[string][]string
}

func NewSet(operators []string, defaults []string, grants map[string][]string) *Set {
	set := &Set{
		make(map[string]bool, len(operators)),
		defaults,
		make(map[string][]string, len(grants)),
	}

	for _, name := range operators {
		set.operators[actor.Key(name)] = true
	}

	for name, nodes := range grants {
		key := actor.Key(name)
		set.grants[key] = append(set.grants[key], nodes...)
	}

	return set
}

func (s *Set) Has(sender actor.Sender, permission string) (bool, error) {
	if permission == "" || sender.Name() == actor.ConsoleName {
		return true, nil
	}

	return s.allowed(sender.Name(), permission), nil
}

func (s *Set) IsOperator(name string) bool {
	return s.operators[actor.Key(name)]
}

func (s *Set) allowed(name, permission string) bool {
	if s.IsOperator(name) {
		return true
	}

	nodes := append(append([]string(nil), s.defaults...), s.grants[actor.Key(name)]...)
	permission = strings.ToLower(permission)
	allowed := false

	for _, node := range nodes {
		node = strings.ToLower(strings.TrimSpace(node))

		if strings.HasPrefix(node, "-") {
			if covers(node[1:], permission) {
				return false
			}
			continue
		}

		if covers(node, permission) {
			allowed = true
		}
	}

	return allowed
}

func covers(node, permission string) bool {
	switch {
	case node == "*" || node == permission:
		return true
	case strings.HasSuffix(node, ".*"):
		return strings.HasPrefix(permission, node[:len(node)-1])
	default:
		return false
	}
}
