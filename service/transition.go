package service

import (
	"fmt"
	"strings"

	"harmonychain/models"
)

type EventKind int

const (
	EventStream EventKind = iota + 1
	EventMine
	EventProposal
	EventNavigate
	EventRename
)

func (k EventKind) String() string {
	switch k {
	case EventStream:
		return "stream"
	case EventMine:
		return "mine"
	case EventProposal:
		return "proposal"
	case EventNavigate:
		return "navigate"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one user interaction. Draw is the 1..10 mining roll and is only
// read for EventMine.
type Event struct {
	Kind     EventKind
	Genre    string
	Text     string
	Page     models.Page
	Username string
	Draw     int
}

// Outcome carries the acknowledgements shown on the next render.
type Outcome struct {
	Messages        []string      `json:"messages"`
	SidebarMessages []string      `json:"sidebarMessages,omitempty"`
	Credited        models.Amount `json:"credited"`
}

type Rules struct {
	StreamReward models.Amount
}

const (
	MinDraw = 1
	MaxDraw = 10
)

// MiningYield is draw * miningPower / 10 HMT.
func MiningYield(draw, miningPower int) models.Amount {
	return models.Amount(draw*miningPower) * models.HMT / 10
}

// Apply is the whole event-to-state transition. It never touches s's
// slices in place, so a failed event leaves the caller's copy intact.
func Apply(s models.Session, ev Event, rules Rules) (models.Session, Outcome, error) {
	next := s.Clone()
	var out Outcome

	switch ev.Kind {
	case EventStream:
		genre := ev.Genre
		if genre == "" {
			genre = genres[0]
		}
		if !knownGenre(genre) {
			return s, Outcome{}, fmt.Errorf("%w: %q", models.ErrUnknownGenre, ev.Genre)
		}
		next.State.Balance += rules.StreamReward
		out.Credited = rules.StreamReward
		out.Messages = append(out.Messages, fmt.Sprintf("Streaming %s music...", genre))
		out.SidebarMessages = append(out.SidebarMessages,
			fmt.Sprintf("Earned %s HMT for streaming!", trimZeros(rules.StreamReward)))

	case EventMine:
		if ev.Draw < MinDraw || ev.Draw > MaxDraw {
			return s, Outcome{}, fmt.Errorf("mining draw %d outside [%d, %d]", ev.Draw, MinDraw, MaxDraw)
		}
		y := MiningYield(ev.Draw, next.State.MiningPower)
		next.State.Balance += y
		out.Credited = y
		out.Messages = append(out.Messages, fmt.Sprintf("Mined %s HMT!", y))

	case EventProposal:
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return s, Outcome{}, models.ErrEmptyProposal
		}
		next.Proposals = append(next.Proposals, text)
		out.Messages = append(out.Messages, "Proposal submitted successfully!")

	case EventNavigate:
		if !ev.Page.Valid() {
			return s, Outcome{}, fmt.Errorf("%w: %q", models.ErrUnknownPage, ev.Page)
		}
		next.Page = ev.Page

	case EventRename:
		name := strings.TrimSpace(ev.Username)
		if name == "" {
			name = models.DefaultUsername
		}
		next.Username = name

	default:
		return s, Outcome{}, fmt.Errorf("unsupported event kind %d", ev.Kind)
	}

	return next, out, nil
}

// trimZeros prints 5.00 as "5" and 2.50 as "2.50".
func trimZeros(a models.Amount) string {
	if a%models.HMT == 0 {
		return itoa(int(a / models.HMT))
	}
	return a.String()
}
