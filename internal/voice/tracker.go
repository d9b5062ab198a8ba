package voice

import (
	"sort"
	"sync"
	"time"
)

// State is one voice state update from the gateway.
// An empty ChannelID means the user left voice.
type State struct {
	GuildID   string
	ChannelID string
	UserID    string
	Bot       bool
	Deafened  bool
}

// Accrual is eligible voice time earned by one member
type Accrual struct {
	GuildID string
	UserID  string
	Minutes float64
}

// PairAccrual is time two members spent together. UserA sorts before UserB.
type PairAccrual struct {
	GuildID string
	UserA   string
	UserB   string
	Minutes float64
}

type member struct {
	channelID string
	bot       bool
	deafened  bool
}

func (m member) eligible() bool {
	return !m.bot && !m.deafened
}

type guildPresence struct {
	settled time.Time
	members map[string]member
}

type pairKey struct {
	guild, a, b string
}

type userKey struct {
	guild, user string
}

// Tracker records who is in which voice channel and accumulates co-presence time.
// Time is only counted while a channel holds at least two eligible members.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	guilds map[string]*guildPresence

	pendingUsers map[userKey]float64
	pendingPairs map[pairKey]float64
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		guilds:       make(map[string]*guildPresence),
		pendingUsers: make(map[userKey]float64),
		pendingPairs: make(map[pairKey]float64),
	}
}

// Update applies a voice state change observed at the given time
func (t *Tracker) Update(s State, at time.Time) {
	if s.GuildID == "" || s.UserID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.guilds[s.GuildID]
	if !ok {
		if s.ChannelID == "" {
			return
		}
		g = &guildPresence{settled: at, members: make(map[string]member)}
		t.guilds[s.GuildID] = g
	}

	// roster is about to change, bank the time spent with the old one
	t.settle(s.GuildID, g, at)

	if s.ChannelID == "" {
		delete(g.members, s.UserID)
		if len(g.members) == 0 {
			delete(t.guilds, s.GuildID)
		}
		return
	}
	g.members[s.UserID] = member{channelID: s.ChannelID, bot: s.Bot, deafened: s.Deafened}
}

// RemoveMember drops a user's presence, e.g. when they leave the guild
func (t *Tracker) RemoveMember(guildID, userID string, at time.Time) {
	t.Update(State{GuildID: guildID, UserID: userID}, at)
}

// ResetGuild forgets every member of a guild, e.g. before re-seeding it from a
// fresh guild snapshot after a reconnect. Time since the last settle is dropped
// since presence during the gap is unknown. Already banked time stays pending.
func (t *Tracker) ResetGuild(guildID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.guilds, guildID)
}

// Tick settles every guild up to now and drains the accumulated time.
// Results are sorted by guild then user ids.
func (t *Tracker) Tick(now time.Time) ([]Accrual, []PairAccrual) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, g := range t.guilds {
		t.settle(id, g, now)
	}

	users := make([]Accrual, 0, len(t.pendingUsers))
	for k, minutes := range t.pendingUsers {
		users = append(users, Accrual{GuildID: k.guild, UserID: k.user, Minutes: minutes})
	}
	pairs := make([]PairAccrual, 0, len(t.pendingPairs))
	for k, minutes := range t.pendingPairs {
		pairs = append(pairs, PairAccrual{GuildID: k.guild, UserA: k.a, UserB: k.b, Minutes: minutes})
	}
	t.pendingUsers = make(map[userKey]float64)
	t.pendingPairs = make(map[pairKey]float64)

	sort.Slice(users, func(i, j int) bool {
		if users[i].GuildID != users[j].GuildID {
			return users[i].GuildID < users[j].GuildID
		}
		return users[i].UserID < users[j].UserID
	})
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].GuildID != pairs[j].GuildID {
			return pairs[i].GuildID < pairs[j].GuildID
		}
		if pairs[i].UserA != pairs[j].UserA {
			return pairs[i].UserA < pairs[j].UserA
		}
		return pairs[i].UserB < pairs[j].UserB
	})
	return users, pairs
}

// ChannelMembers lists the users currently in a channel, sorted
func (t *Tracker) ChannelMembers(guildID, channelID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.guilds[guildID]
	if !ok {
		return nil
	}
	var out []string
	for id, m := range g.members {
		if m.channelID == channelID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// settle credits the time since the guild was last settled. Caller holds t.mu.
func (t *Tracker) settle(guildID string, g *guildPresence, at time.Time) {
	elapsed := at.Sub(g.settled).Minutes()
	if elapsed <= 0 {
		return
	}
	g.settled = at

	channels := make(map[string][]string)
	for id, m := range g.members {
		if m.eligible() {
			channels[m.channelID] = append(channels[m.channelID], id)
		}
	}

	for _, users := range channels {
		if len(users) < 2 {
			continue
		}
		sort.Strings(users)
		for i, a := range users {
			t.pendingUsers[userKey{guildID, a}] += elapsed
			for _, b := range users[i+1:] {
				t.pendingPairs[pairKey{guildID, a, b}] += elapsed
			}
		}
	}
}
