package game

import (
	"fmt"
	"math/rand"
	"time"
)

type RoomState int

const (
	StateWaiting RoomState = iota
	StatePlaying
	StateOver
)

func (s RoomState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StatePlaying:
		return "playing"
	case StateOver:
		return "over"
	}
	return "unknown"
}

// A room of one never starts; readiness only counts with an opponent present.
const minMembersToStart = 2

// Member is one user's participation record inside a room. The room owns it;
// the client is only referenced for delivery.
type Member struct {
	client    *Client
	ready     bool
	passed    bool
	shielded  bool
	inventory map[ItemKind]int
}

func (m *Member) Username() string {
	return m.client.username
}

// Room is the per-room state machine: membership, readiness, round
// progression and the handles of its two timers. All methods assume they run
// on the hub goroutine; results are plain facts, broadcasting is the hub's job.
type Room struct {
	id       string
	name     string
	capacity int
	state    RoomState

	members []*Member // index 0 is the host
	round   int

	// generation invalidates in-flight timer callbacks after a transition.
	generation uint64

	countdown   *time.Timer
	itemSpawner *time.Ticker
	spawnStop   chan struct{}

	rng *rand.Rand
}

func NewRoom(id, name string, capacity int, rng *rand.Rand) *Room {
	return &Room{
		id:       id,
		name:     name,
		capacity: capacity,
		state:    StateWaiting,
		members:  make([]*Member, 0, capacity),
		rng:      rng,
	}
}

func (r *Room) Id() string        { return r.id }
func (r *Room) State() RoomState  { return r.state }
func (r *Room) Round() int        { return r.round }
func (r *Room) Generation() uint64 { return r.generation }

func (r *Room) MemberCount() int { return len(r.members) }
func (r *Room) Empty() bool      { return len(r.members) == 0 }

func (r *Room) Host() *Member {
	if len(r.members) == 0 {
		return nil
	}
	return r.members[0]
}

func (r *Room) Member(username string) *Member {
	for _, m := range r.members {
		if m.client.username == username {
			return m
		}
	}
	return nil
}

// AddMember appends a new member. The caller is responsible for having
// detached the client from wherever it was before.
func (r *Room) AddMember(c *Client) (*Member, error) {
	if len(r.members) >= r.capacity {
		return nil, ErrRoomFull
	}
	m := &Member{
		client:    c,
		inventory: make(map[ItemKind]int),
	}
	r.members = append(r.members, m)
	return m, nil
}

// RemoveMember drops the member and reports whether the room emptied. The
// caller must stop timers and delete the room when empty is true.
func (r *Room) RemoveMember(username string) (removed *Member, empty bool, err error) {
	for i, m := range r.members {
		if m.client.username != username {
			continue
		}
		r.members = append(r.members[:i], r.members[i+1:]...)
		return m, len(r.members) == 0, nil
	}
	return nil, false, ErrNotAMember
}

func (r *Room) ToggleReady(username string) (bool, error) {
	m := r.Member(username)
	if m == nil {
		return false, ErrNotAMember
	}
	m.ready = !m.ready
	return m.ready, nil
}

func (r *Room) AllReady() bool {
	if len(r.members) < minMembersToStart {
		return false
	}
	for _, m := range r.members {
		if !m.ready {
			return false
		}
	}
	return true
}

// MarkPassed flips the member's per-round flag and reports whether every
// member has now passed. Passing twice is harmless.
func (r *Room) MarkPassed(username string) (allPassed bool, err error) {
	m := r.Member(username)
	if m == nil {
		return false, ErrNotAMember
	}
	m.passed = true
	return r.AllPassed(), nil
}

func (r *Room) AllPassed() bool {
	for _, m := range r.members {
		if !m.passed {
			return false
		}
	}
	return len(r.members) > 0
}

// ChangeState applies one of the legal transitions. Anything else is a
// programming error in the hub, not a client-recoverable condition.
func (r *Room) ChangeState(next RoomState) {
	legal := (r.state == StateWaiting && next == StatePlaying) ||
		(r.state == StatePlaying && next == StateOver) ||
		(r.state == StateOver && next == StateWaiting)
	if !legal {
		panic(fmt.Sprintf("room %s: illegal transition %s -> %s", r.id, r.state, next))
	}
	r.state = next
}

// BeginRound moves the room into playing and resets per-round member state.
// Timers for the previous generation are invalidated before the new round's
// are scheduled.
func (r *Room) BeginRound() {
	r.StopTimers()
	r.ChangeState(StatePlaying)
	r.round++
	for _, m := range r.members {
		m.passed = false
		m.ready = false
	}
}

// ResetForRematch returns an over room to waiting and clears the finished
// game's metadata. Inventories do not carry across games.
func (r *Room) ResetForRematch() {
	r.ChangeState(StateWaiting)
	r.round = 0
	for _, m := range r.members {
		m.ready = false
		m.passed = false
		m.shielded = false
		m.inventory = make(map[ItemKind]int)
	}
}

func (r *Room) CountdownRunning() bool {
	return r.countdown != nil
}

// StopTimers cancels both timers and advances the generation so that any
// expiry already in flight is dropped by the hub's guard.
func (r *Room) StopTimers() {
	if r.countdown != nil {
		r.countdown.Stop()
		r.countdown = nil
	}
	if r.itemSpawner != nil {
		r.itemSpawner.Stop()
		close(r.spawnStop)
		r.itemSpawner = nil
		r.spawnStop = nil
	}
	r.generation++
}

type RoomSummary struct {
	Id          string `json:"roomId"`
	Name        string `json:"roomName"`
	MemberCount int    `json:"userCount"`
	Capacity    int    `json:"capacity"`
	State       string `json:"state"`
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		Id:          r.id,
		Name:        r.name,
		MemberCount: len(r.members),
		Capacity:    r.capacity,
		State:       r.state.String(),
	}
}

type RoomMemberInfo struct {
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
	Passed   bool   `json:"passed"`
	Host     bool   `json:"host"`
}

type RoomDetail struct {
	RoomSummary
	Round   int              `json:"round"`
	Members []RoomMemberInfo `json:"members"`
}

func (r *Room) Detail() RoomDetail {
	detail := RoomDetail{
		RoomSummary: r.Summary(),
		Round:       r.round,
		Members:     make([]RoomMemberInfo, 0, len(r.members)),
	}
	for i, m := range r.members {
		detail.Members = append(detail.Members, RoomMemberInfo{
			Username: m.client.username,
			Ready:    m.ready,
			Passed:   m.passed,
			Host:     i == 0,
		})
	}
	return detail
}
