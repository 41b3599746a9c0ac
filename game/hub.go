package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/movingsummer/web06-CodeClash/domain"
	"github.com/rs/zerolog/log"
)

type commandKind int

const (
	cmdAction commandKind = iota
	cmdMalformed
	cmdConnect
	cmdDisconnect
	cmdCountdownExpired
	cmdSpawnItems
	cmdProblemsReady
	cmdListRooms
)

// command is one unit of work for the hub loop. Client actions, lifecycle
// events and timer expiries all take this shape, so everything that mutates
// session state is processed strictly one at a time.
type command struct {
	kind   commandKind
	client *Client
	action Action

	// timer / async fields
	roomID   string
	gen      uint64
	problems []domain.Problem
	err      error

	// connect handshake
	errChan chan error

	// directory snapshot reply
	roomsChan chan []RoomSummary
}

// Hub owns the registry, the directory and the lobby presence set. Its Run
// loop is the single writer for all of them: connections and timers post
// commands, the loop applies them in arrival order. Per-room operations are
// therefore linearized for free.
type Hub struct {
	inbox chan command
	done  chan struct{}

	registry  *Registry
	directory *Directory
	lobby     map[string]*Client

	problems ProblemSource

	// Tunable in tests; fixed in production wiring.
	countdownIn   time.Duration
	spawnEvery    time.Duration
	pingEvery     time.Duration
	fetchTimeout  time.Duration
	problemsCount int
}

const (
	defaultCountdown    = 30 * time.Second
	defaultSpawnEvery   = 20 * time.Second
	defaultPingEvery    = 30 * time.Second
	defaultFetchTimeout = 5 * time.Second
	defaultProblemCount = 3
)

func NewHub(problems ProblemSource) *Hub {
	return &Hub{
		inbox:         make(chan command, 1024),
		done:          make(chan struct{}),
		registry:      NewRegistry(),
		directory:     NewDirectory(rand.New(rand.NewSource(time.Now().UnixNano()))),
		lobby:         make(map[string]*Client),
		problems:      problems,
		countdownIn:   defaultCountdown,
		spawnEvery:    defaultSpawnEvery,
		pingEvery:     defaultPingEvery,
		fetchTimeout:  defaultFetchTimeout,
		problemsCount: defaultProblemCount,
	}
}

// Run processes commands until ctx is cancelled. started is closed once the
// loop is accepting work.
func (h *Hub) Run(ctx context.Context, started chan struct{}) {
	pingTicker := time.NewTicker(h.pingEvery)
	defer pingTicker.Stop()
	defer close(h.done)

	close(started)

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			h.registry.Each(func(c *Client) { c.ping() })
		case cmd := <-h.inbox:
			h.dispatch(cmd)
		}
	}
}

func (h *Hub) post(cmd command) {
	select {
	case h.inbox <- cmd:
	case <-h.done:
	}
}

// Connect registers the client under its identity, rejecting duplicates. It
// round-trips through the loop so registration is ordered with everything
// else.
func (h *Hub) Connect(ctx context.Context, c *Client) error {
	errChan := make(chan error, 1)
	select {
	case h.inbox <- command{kind: cmdConnect, client: c, errChan: errChan}:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return context.Canceled
	}
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) dispatch(cmd command) {
	switch cmd.kind {
	case cmdConnect:
		cmd.errChan <- h.registry.Register(cmd.client)
	case cmdDisconnect:
		h.handleDisconnect(cmd.client)
	case cmdMalformed:
		cmd.client.send(EventError("", ErrMalformedAction))
	case cmdAction:
		h.handleAction(cmd.client, cmd.action)
	case cmdCountdownExpired:
		h.handleCountdownExpired(cmd.roomID, cmd.gen)
	case cmdSpawnItems:
		h.handleSpawnItems(cmd.roomID, cmd.gen)
	case cmdProblemsReady:
		h.handleProblemsReady(cmd.roomID, cmd.gen, cmd.problems, cmd.err)
	case cmdListRooms:
		cmd.roomsChan <- h.directory.List()
	}
}

// ListRooms returns a consistent snapshot of the lobby view. It may be stale
// the moment it returns; the lobby broadcasts keep clients converging.
func (h *Hub) ListRooms(ctx context.Context) []RoomSummary {
	roomsChan := make(chan []RoomSummary, 1)
	select {
	case h.inbox <- command{kind: cmdListRooms, roomsChan: roomsChan}:
	case <-ctx.Done():
		return nil
	case <-h.done:
		return nil
	}
	select {
	case rooms := <-roomsChan:
		return rooms
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) handleAction(c *Client, action Action) {
	var err error

	switch a := action.(type) {
	case LobbyInfoAction:
		c.send(EventLobbyInfo(h.directory.List(), len(h.lobby)))
	case RoomInfoAction:
		err = h.handleRoomInfo(c, a.RoomID)
	case EnterLobbyAction:
		h.handleEnterLobby(c)
	case ExitLobbyAction:
		err = h.handleExitLobby(c)
	case CreateRoomAction:
		err = h.handleCreateRoom(c, a.RoomName, a.Capacity)
	case EnterRoomAction:
		err = h.handleEnterRoom(c, a.RoomID)
	case ExitRoomAction:
		err = h.handleExitRoom(c)
	case ChatAction:
		err = h.handleChat(c, a.Message)
	case DMAction:
		err = h.handleDM(c, a.UserName, a.Message)
	case ReadyAction:
		err = h.handleReady(c)
	case KickAction:
		err = h.handleKick(c, a.UserName)
	case ItemAction:
		err = h.handleItem(c, ItemKind(a.Item))
	case PassAction:
		err = h.handlePass(c)
	case ExitResultAction:
		err = h.handleExitResult(c)
	case InviteAction:
		err = h.handleInvite(c, a.UserName)
	}

	// Recoverable failures go back to the acting connection only, never as a
	// broadcast, and never take the loop down.
	if err != nil {
		c.send(EventError(action.actionName(), err))
	}
}

// --- lobby presence ---

func (h *Hub) handleEnterLobby(c *Client) {
	if c.inLobby {
		return
	}
	c.inLobby = true
	h.lobby[c.username] = c
	h.broadcastLobby(EventUserEnterLobby(c.username), c)
}

func (h *Hub) handleExitLobby(c *Client) error {
	if !c.inLobby {
		return ErrNotInLobby
	}
	h.detachFromLobby(c)
	return nil
}

func (h *Hub) detachFromLobby(c *Client) {
	if !c.inLobby {
		return
	}
	c.inLobby = false
	delete(h.lobby, c.username)
	h.broadcastLobby(EventUserExitLobby(c.username), c)
}

// --- room membership ---

func (h *Hub) handleRoomInfo(c *Client, roomID string) error {
	room, ok := h.directory.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	c.send(EventRoomInfo(room.Detail()))
	return nil
}

func (h *Hub) handleCreateRoom(c *Client, name string, capacity int) error {
	room := h.directory.Create(name, capacity)
	h.broadcastLobby(EventUserCreateRoom(room.Summary()), c)

	// The creator occupies the room immediately; a memberless room would be
	// unreachable garbage under the empty-room removal rule.
	if err := h.moveToRoom(c, room); err != nil {
		return err
	}
	c.send(EventCreateRoomReply(room.id))
	return nil
}

func (h *Hub) handleEnterRoom(c *Client, roomID string) error {
	room, ok := h.directory.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return h.moveToRoom(c, room)
}

// moveToRoom atomically detaches the client from its previous location and
// adds it to room. Capacity is checked before anything is undone, so a failed
// enter leaves the previous membership untouched.
func (h *Hub) moveToRoom(c *Client, room *Room) error {
	if c.roomID == room.id {
		return nil
	}
	if room.MemberCount() >= room.capacity {
		return ErrRoomFull
	}

	h.detachFromLobby(c)
	if c.roomID != "" {
		if err := h.leaveCurrentRoom(c); err != nil {
			return err
		}
	}

	if _, err := room.AddMember(c); err != nil {
		return err
	}
	c.roomID = room.id

	c.send(EventEnterRoomReply(room.Detail()))
	h.broadcastRoom(room, EventUserEnterRoom(c.username), c)
	h.broadcastLobby(EventChangeUserCount(room.id, room.MemberCount()), nil)
	return nil
}

func (h *Hub) handleExitRoom(c *Client) error {
	roomID := c.roomID
	if roomID == "" {
		return ErrNotAMember
	}
	if err := h.leaveCurrentRoom(c); err != nil {
		return err
	}
	c.send(EventExitRoomReply(roomID))
	return nil
}

// leaveCurrentRoom removes the client from its room and emits the membership
// broadcasts. An emptied room has its timers cancelled and is deleted, with
// delete_room replacing the usual exit notifications.
func (h *Hub) leaveCurrentRoom(c *Client) error {
	room, ok := h.directory.Get(c.roomID)
	if !ok {
		c.roomID = ""
		return ErrRoomNotFound
	}

	_, empty, err := room.RemoveMember(c.username)
	if err != nil {
		return err
	}
	c.roomID = ""

	if empty {
		room.StopTimers()
		h.directory.Remove(room.id)
		h.broadcastLobby(EventDeleteRoom(room.id), nil)
		return nil
	}

	h.broadcastRoom(room, EventUserExitRoom(c.username), nil)
	h.broadcastLobby(EventChangeUserCount(room.id, room.MemberCount()), nil)

	// A round cannot survive losing a member if everyone remaining is done.
	if room.state == StatePlaying && room.AllPassed() {
		h.endRound(room)
	}
	return nil
}

func (h *Hub) handleKick(c *Client, target string) error {
	room, ok := h.directory.Get(c.roomID)
	if !ok {
		return ErrNotAMember
	}
	host := room.Host()
	if host == nil || host.client != c {
		return ErrUnauthorized
	}
	member := room.Member(target)
	if member == nil || target == c.username {
		return ErrNotAMember
	}

	_, _, err := room.RemoveMember(target)
	if err != nil {
		return err
	}
	member.client.roomID = ""
	member.client.send(EventKicked(c.username))

	h.broadcastRoom(room, EventUserExitRoom(target), nil)
	h.broadcastLobby(EventChangeUserCount(room.id, room.MemberCount()), nil)

	if room.state == StatePlaying && room.AllPassed() {
		h.endRound(room)
	}
	return nil
}

// --- chat / social ---

func (h *Hub) handleChat(c *Client, message string) error {
	if c.roomID != "" {
		room, ok := h.directory.Get(c.roomID)
		if !ok {
			return ErrRoomNotFound
		}
		h.broadcastRoom(room, EventChat(c.username, message), nil)
		return nil
	}
	if c.inLobby {
		h.broadcastLobby(EventChat(c.username, message), nil)
		return nil
	}
	return ErrNotInLobby
}

func (h *Hub) handleDM(c *Client, target, message string) error {
	to, ok := h.registry.Lookup(target)
	if !ok {
		return ErrUserNotFound
	}
	to.send(EventDM(c.username, message))
	return nil
}

// handleInvite is fire-and-forget: nothing is stored, delivery happens only
// if the target is connected right now.
func (h *Hub) handleInvite(c *Client, target string) error {
	if c.roomID == "" {
		return ErrNotAMember
	}
	to, ok := h.registry.Lookup(target)
	if !ok {
		return ErrUserNotFound
	}
	to.send(EventInvite(c.username, c.roomID, to.roomID))
	return nil
}

// --- round progression ---

func (h *Hub) handleReady(c *Client) error {
	room, ok := h.directory.Get(c.roomID)
	if !ok {
		return ErrNotAMember
	}
	if room.state == StateOver {
		room.ResetForRematch()
	}
	if room.state != StateWaiting {
		return ErrMalformedAction
	}

	ready, err := room.ToggleReady(c.username)
	if err != nil {
		return err
	}
	h.broadcastRoom(room, EventReady(c.username, ready), nil)

	if room.AllReady() {
		h.startRound(room)
	}
	return nil
}

// startRound flips the room into playing and kicks off the asynchronous
// problem fetch. The fetch must not block the loop, so its completion
// re-enters as a command carrying the generation captured here.
func (h *Hub) startRound(room *Room) {
	room.BeginRound()
	h.broadcastRoom(room, EventGameStart(room.round), nil)

	gen := room.generation
	roomID := room.id
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.fetchTimeout)
		defer cancel()
		problems, err := h.problems.RandomProblems(ctx, h.problemsCount)
		h.post(command{kind: cmdProblemsReady, roomID: roomID, gen: gen, problems: problems, err: err})
	}()
}

func (h *Hub) handleProblemsReady(roomID string, gen uint64, problems []domain.Problem, err error) {
	room, ok := h.staleGuard(roomID, gen)
	if !ok {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("problem fetch failed, aborting round")
		h.endRound(room)
		return
	}
	h.broadcastRoom(room, EventProblems(room.round, problems), nil)
	h.startItemSpawner(room)
}

func (h *Hub) handlePass(c *Client) error {
	room, ok := h.directory.Get(c.roomID)
	if !ok {
		return ErrNotAMember
	}
	if room.state != StatePlaying {
		return ErrMalformedAction
	}

	allPassed, err := room.MarkPassed(c.username)
	if err != nil {
		return err
	}

	if allPassed {
		// Everyone finished early; no need to wait out the countdown.
		h.endRound(room)
		return nil
	}
	if !room.CountdownRunning() {
		h.startCountdown(room)
		h.broadcastRoom(room, EventCountdown(int(h.countdownIn.Seconds())), nil)
	}
	return nil
}

func (h *Hub) handleCountdownExpired(roomID string, gen uint64) {
	room, ok := h.staleGuard(roomID, gen)
	if !ok {
		return
	}
	h.endRound(room)
}

// endRound is idempotent: the all-passed fast path and a countdown expiry can
// race, and the loser of that race must see nothing left to do.
func (h *Hub) endRound(room *Room) {
	if room.state != StatePlaying {
		return
	}
	room.StopTimers()
	room.ChangeState(StateOver)
	h.broadcastRoom(room, EventGameOver(room.id, room.round), nil)
	h.broadcastLobby(EventRoomGameOver(room.id), nil)
}

func (h *Hub) handleExitResult(c *Client) error {
	room, ok := h.directory.Get(c.roomID)
	if !ok || room.Member(c.username) == nil {
		return ErrNotAMember
	}
	c.send(EventExitResult())
	return nil
}

// --- items ---

func (h *Hub) handleItem(c *Client, kind ItemKind) error {
	room, ok := h.directory.Get(c.roomID)
	if !ok {
		return ErrNotAMember
	}
	if room.state != StatePlaying {
		return ErrMalformedAction
	}
	result, err := room.UseItem(c.username, kind)
	if err != nil {
		return err
	}
	h.broadcastRoom(room, EventItemUse(result), nil)
	return nil
}

func (h *Hub) handleSpawnItems(roomID string, gen uint64) {
	room, ok := h.staleGuard(roomID, gen)
	if !ok {
		return
	}
	for _, m := range room.members {
		kind := room.AssignItem(m)
		m.client.send(EventItemAssign(kind, m.Inventory()))
	}
}

// --- connection lifecycle ---

// handleDisconnect tears the client down exactly as an explicit exit would:
// room exit broadcasts (or delete_room), lobby exit, registry removal, and
// cancellation of any timer the removal invalidated.
func (h *Hub) handleDisconnect(c *Client) {
	if c.roomID != "" {
		if err := h.leaveCurrentRoom(c); err != nil {
			log.Warn().Err(err).Str("username", c.username).Msg("disconnect room cleanup")
		}
	}
	h.detachFromLobby(c)
	h.registry.Unregister(c)
	c.release()
}

// --- timers ---

func (h *Hub) startCountdown(room *Room) {
	if room.countdown != nil {
		return
	}
	gen := room.generation
	roomID := room.id
	room.countdown = time.AfterFunc(h.countdownIn, func() {
		h.post(command{kind: cmdCountdownExpired, roomID: roomID, gen: gen})
	})
}

func (h *Hub) startItemSpawner(room *Room) {
	if room.itemSpawner != nil {
		return
	}
	gen := room.generation
	roomID := room.id
	ticker := time.NewTicker(h.spawnEvery)
	stop := make(chan struct{})
	room.itemSpawner = ticker
	room.spawnStop = stop
	go func() {
		for {
			select {
			case <-ticker.C:
				h.post(command{kind: cmdSpawnItems, roomID: roomID, gen: gen})
			case <-stop:
				return
			}
		}
	}()
}

// staleGuard resolves a timer callback's target room, dropping the callback
// silently when the room is gone or its generation has moved on. The race
// between cancellation and an in-flight expiry is harmless by construction.
func (h *Hub) staleGuard(roomID string, gen uint64) (*Room, bool) {
	room, ok := h.directory.Get(roomID)
	if !ok || room.generation != gen {
		return nil, false
	}
	return room, true
}

// --- fan-out ---

func (h *Hub) broadcastRoom(room *Room, data []byte, except *Client) {
	for _, m := range room.members {
		if m.client != except {
			m.client.send(data)
		}
	}
}

func (h *Hub) broadcastLobby(data []byte, except *Client) {
	for _, c := range h.lobby {
		if c != except {
			c.send(data)
		}
	}
}
