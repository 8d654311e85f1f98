package bot

import (
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/xaenox/channel-bot/internal/models"
)

const (
	confirmationTTL = 5 * time.Minute

	customIDPrefix = "channels"
	actionCreate   = "create"
	actionCancel   = "cancel"
)

type ConfirmationState int

const (
	StatePosted ConfirmationState = iota
	StateConfirmed
	StateCancelled
	StateExpired
)

func (s ConfirmationState) String() string {
	switch s {
	case StatePosted:
		return "posted"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Confirmation is the approval control attached to a channel proposal. It
// belongs to one author and one suggestion set, and leaves the Posted state
// at most once.
type Confirmation struct {
	ID          string
	AuthorID    string
	GuildID     string
	Suggestions []models.ChannelSuggestion

	mu    sync.Mutex
	state ConfirmationState
	timer *time.Timer
}

func (c *Confirmation) State() ConfirmationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Confirmation) Confirm() bool { return c.transition(StateConfirmed) }
func (c *Confirmation) Cancel() bool  { return c.transition(StateCancelled) }
func (c *Confirmation) Expire() bool  { return c.transition(StateExpired) }

func (c *Confirmation) transition(to ConfirmationState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePosted {
		return false
	}
	c.state = to
	return true
}

// Components renders the "Create all" and "Cancel" buttons.
func (c *Confirmation) Components() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Create all",
					Style:    discordgo.SuccessButton,
					CustomID: customID(actionCreate, c.ID, c.AuthorID),
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.DangerButton,
					CustomID: customID(actionCancel, c.ID, c.AuthorID),
				},
			},
		},
	}
}

// customID carries the author so presses can be checked even after the
// confirmation is gone.
func customID(action, id, authorID string) string {
	return strings.Join([]string{customIDPrefix, action, id, authorID}, ":")
}

func parseCustomID(value string) (action, id, authorID string, ok bool) {
	parts := strings.SplitN(value, ":", 4)
	if len(parts) != 4 || parts[0] != customIDPrefix {
		return "", "", "", false
	}
	switch parts[1] {
	case actionCreate, actionCancel:
		return parts[1], parts[2], parts[3], true
	default:
		return "", "", "", false
	}
}

// confirmationStore keeps live confirmations in memory until they are
// resolved or their timer fires.
type confirmationStore struct {
	mu       sync.RWMutex
	items    map[string]*Confirmation
	ttl      time.Duration
	onExpire func(*Confirmation)
}

func newConfirmationStore(ttl time.Duration, onExpire func(*Confirmation)) *confirmationStore {
	return &confirmationStore{
		items:    make(map[string]*Confirmation),
		ttl:      ttl,
		onExpire: onExpire,
	}
}

func (s *confirmationStore) Add(authorID, guildID string, suggestions []models.ChannelSuggestion) *Confirmation {
	c := &Confirmation{
		ID:          uuid.New().String(),
		AuthorID:    authorID,
		GuildID:     guildID,
		Suggestions: suggestions,
		state:       StatePosted,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.timer = time.AfterFunc(s.ttl, func() { s.expire(c.ID) })
	s.items[c.ID] = c
	return c
}

func (s *confirmationStore) Get(id string) (*Confirmation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.items[id]
	return c, exists
}

func (s *confirmationStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, exists := s.items[id]; exists {
		c.timer.Stop()
		delete(s.items, id)
	}
}

func (s *confirmationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *confirmationStore) expire(id string) {
	s.mu.Lock()
	c, exists := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if exists && c.Expire() && s.onExpire != nil {
		s.onExpire(c)
	}
}

// Close stops every pending timer and drops all confirmations.
func (s *confirmationStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.items {
		c.timer.Stop()
		delete(s.items, id)
	}
}
