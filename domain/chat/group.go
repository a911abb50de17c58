// Package chat holds the group membership rules of the chat service.
// It works on identity strings only: no connection, network or UI concern belongs here.
package chat

import (
	"fmt"
	"slices"
	"strings"

	"ics-chat/errors"

	"github.com/samber/lo"
)

type GroupID string

type GroupKind int

const (
	// Private groups are created by a two-party connect and hold exactly two members.
	Private GroupKind = iota
	// Multi groups are created explicitly with at least three members.
	Multi
)

func (k GroupKind) String() string {
	if k == Private {
		return "private"
	}
	return "group"
}

type Set map[string]struct{}

type Group struct {
	ID      GroupID
	Kind    GroupKind
	members Set
}

// GroupInfo is a read-only snapshot of a group.
type GroupInfo struct {
	ID      GroupID
	Kind    GroupKind
	Members []string
}

func (g GroupInfo) Count() int { return len(g.Members) }
func (g GroupInfo) IsPrivate() bool { return g.Kind == Private }

// LeaveResult describes what happened to the group of a departing identity.
// Remaining is set when the group survives; Freed is set when the group was
// dissolved and its last member was released along with the departing one.
type LeaveResult struct {
	Group     GroupID
	Remaining []string
	Freed     []string
}

// Dissolved reports whether the departure removed the group.
func (r LeaveResult) Dissolved() bool { return r.Group != "" && len(r.Remaining) == 0 }

type pair [2]string

func pairOf(a, b string) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

// Directory tracks which identities chat together.
// Every identity belongs to at most one group. Directory is not safe for
// concurrent use: it is owned by the multiplexer loop.
type Directory struct {
	nextID   int
	groups   map[GroupID]*Group
	memberOf map[string]GroupID
	// Private pairs keep their id after dissolution so a reconnection reuses it.
	privatePairs map[pair]GroupID
}

func NewDirectory() *Directory {
	return &Directory{
		nextID:       1,
		groups:       make(map[GroupID]*Group),
		memberOf:     make(map[string]GroupID),
		privatePairs: make(map[pair]GroupID),
	}
}

// ConnectPrivate opens the private chat of a and b.
// Connecting a pair that is already chatting together returns its current group.
func (d *Directory) ConnectPrivate(a, b string) (GroupID, error) {
	if a == b {
		return "", errors.ErrSelfConnect
	}
	key := pairOf(a, b)
	if id, ok := d.privatePairs[key]; ok && d.memberOf[a] == id && d.memberOf[b] == id {
		return id, nil
	}
	if busy := d.busy([]string{a, b}); len(busy) > 0 {
		return "", busyError(busy)
	}

	id, ok := d.privatePairs[key]
	if !ok {
		id = d.newID(Private)
		d.privatePairs[key] = id
	}
	d.add(&Group{ID: id, Kind: Private, members: Set{a: {}, b: {}}})
	return id, nil
}

// CreateGroup creates a multi-party group. Either every member joins or none does.
func (d *Directory) CreateGroup(members []string) (GroupID, error) {
	members = lo.Uniq(members)
	if len(members) < 3 {
		return "", fmt.Errorf("%w: got %d", errors.ErrGroupTooSmall, len(members))
	}
	if busy := d.busy(members); len(busy) > 0 {
		return "", busyError(busy)
	}

	set := make(Set, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	id := d.newID(Multi)
	d.add(&Group{ID: id, Kind: Multi, members: set})
	return id, nil
}

// OtherMembers is the fan-out target of identity: its group minus itself.
func (d *Directory) OtherMembers(identity string) []string {
	id, ok := d.memberOf[identity]
	if !ok {
		return nil
	}
	return lo.Without(d.Members(id), identity)
}

// Leave removes identity from its group. A group left with a single member
// is dissolved and that member is freed. Leaving without a group is a no-op.
func (d *Directory) Leave(identity string) LeaveResult {
	id, ok := d.memberOf[identity]
	if !ok {
		return LeaveResult{}
	}
	group := d.groups[id]
	delete(group.members, identity)
	delete(d.memberOf, identity)

	if len(group.members) > 1 {
		return LeaveResult{Group: id, Remaining: sortedMembers(group.members)}
	}

	freed := sortedMembers(group.members)
	for _, m := range freed {
		delete(d.memberOf, m)
	}
	delete(d.groups, id)
	return LeaveResult{Group: id, Freed: freed}
}

func (d *Directory) GroupOf(identity string) (GroupID, bool) {
	id, ok := d.memberOf[identity]
	return id, ok
}

// Members returns the sorted members of a group, nil when it does not exist.
func (d *Directory) Members(id GroupID) []string {
	group, ok := d.groups[id]
	if !ok {
		return nil
	}
	return sortedMembers(group.members)
}

func (d *Directory) Info(identity string) (GroupInfo, bool) {
	id, ok := d.memberOf[identity]
	if !ok {
		return GroupInfo{}, false
	}
	group := d.groups[id]
	return GroupInfo{ID: id, Kind: group.Kind, Members: sortedMembers(group.members)}, true
}

// Len returns the number of live groups.
func (d *Directory) Len() int { return len(d.groups) }

func (d *Directory) busy(identities []string) []string {
	return lo.Filter(identities, func(identity string, _ int) bool {
		_, grouped := d.memberOf[identity]
		return grouped
	})
}

func (d *Directory) add(group *Group) {
	d.groups[group.ID] = group
	for m := range group.members {
		d.memberOf[m] = group.ID
	}
}

func (d *Directory) newID(kind GroupKind) GroupID {
	id := GroupID(fmt.Sprintf("%s_%d", kind, d.nextID))
	d.nextID++
	return id
}

func busyError(busy []string) error {
	return fmt.Errorf("%w: %s", errors.ErrGroupBusy, strings.Join(busy, ", "))
}

func sortedMembers(set map[string]struct{}) []string {
	members := lo.Keys(set)
	slices.Sort(members)
	return members
}
