package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/store"
)

// Router classifies inbound user events and maps them to handlers:
// global cancel, calendar interactions, the active conversation stage,
// or a top-level menu command.
type Router struct {
	machine *Machine
	records *store.Store
	media   *blobs.Store
	out     io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Machine *Machine
	Records *store.Store
	Media   *blobs.Store // optional; disables motivation commands when nil
	Out     io.Writer    // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Machine == nil {
		return nil, fmt.Errorf("bot: router: machine is required")
	}
	if opts.Records == nil {
		return nil, fmt.Errorf("bot: router: record store is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		machine: opts.Machine,
		records: opts.Records,
		media:   opts.Media,
		out:     out,
	}, nil
}

// Handle dispatches one inbound message and sends every resulting
// outbound message through the adapter.
func (r *Router) Handle(ctx context.Context, adapter Adapter, msg InboundMessage) {
	for _, out := range r.Dispatch(msg) {
		if err := adapter.Send(ctx, out); err != nil {
			log.Printf("bot: router: send to %d: %v", out.OwnerID, err)
		}
	}
}

// Dispatch resolves a single inbound event. Resolution order:
//  1. Cancel command/button → global cancel (silent no-op while idle)
//  2. Calendar interaction token → widget decode
//  3. Active conversation stage → feed the machine
//  4. Top-level menu command
func (r *Router) Dispatch(msg InboundMessage) []OutboundMessage {
	text := strings.TrimSpace(msg.Text)
	fmt.Fprintf(r.out, "bot: router: recv [owner=%d user=%s] %q\n",
		msg.OwnerID, msg.UserName, truncate(text, 80))

	// 1. Global cancel short-circuits any stage.
	if text == "/cancel" || text == BtnCancel {
		act := r.machine.Advance(msg.OwnerID, Event{Kind: EventCancel})
		return r.renderAction(msg.OwnerID, act)
	}

	// 2. Calendar interactions.
	if msg.CallbackToken != "" && IsCalendarToken(msg.CallbackToken) {
		return r.dispatchCalendar(msg)
	}

	// 3. Active conversation stage consumes the input.
	if r.machine.Stage(msg.OwnerID) != StageIdle {
		fmt.Fprintf(r.out, "bot: router: → stage %d\n", r.machine.Stage(msg.OwnerID))
		ev := Event{Kind: EventText, Text: text}
		if msg.MediaKind != "" {
			ev = Event{Kind: EventMediaUpload, MediaKind: msg.MediaKind, MediaData: msg.MediaData}
		}
		act := r.machine.Advance(msg.OwnerID, ev)
		return r.renderAction(msg.OwnerID, act)
	}

	// 4. Top-level menu commands.
	return r.dispatchMenu(msg.OwnerID, text)
}

// dispatchCalendar decodes a calendar token and routes the result.
// Navigation re-renders in place; a day selection becomes a DateSelected
// event only when the current stage expects a date.
func (r *Router) dispatchCalendar(msg InboundMessage) []OutboundMessage {
	ev := DecodeCalendarToken(msg.CallbackToken)
	switch ev.Kind {
	case CalendarNavigate:
		kb := RenderCalendar(ev.Year, ev.Month, time.Now())
		return []OutboundMessage{{
			OwnerID:       msg.OwnerID,
			Inline:        &kb,
			EditMessageID: msg.CallbackMessageID,
		}}

	case CalendarDaySelected:
		date := time.Date(ev.Year, ev.Month, ev.Day, 0, 0, 0, 0, time.Local)
		if r.machine.ExpectsDate(msg.OwnerID) {
			act := r.machine.Advance(msg.OwnerID, Event{Kind: EventDateSelected, Date: date})
			return r.renderAction(msg.OwnerID, act)
		}
		// A date with no flow asking for one: offer the schedule menu.
		return []OutboundMessage{{
			OwnerID: msg.OwnerID,
			Text: fmt.Sprintf("Выбрана дата: %s\nВыбери действие:",
				date.Format(dateLayout)),
			Keyboard: ScheduleMenuKeyboard(),
		}}

	default:
		return nil
	}
}

// dispatchMenu handles top-level commands when no flow is active.
func (r *Router) dispatchMenu(ownerID int64, text string) []OutboundMessage {
	switch text {
	case "/start":
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "Привет! Я твой школьный органайзер. Что хочешь сделать?",
			Keyboard: MainMenuKeyboard(),
		}}

	case BtnHomeworkMenu:
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "Меню домашних заданий:",
			Keyboard: HomeworkMenuKeyboard(),
		}}

	case BtnScheduleMenu:
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "Меню расписания:",
			Keyboard: ScheduleMenuKeyboard(),
		}}

	case BtnBack:
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "Главное меню:",
			Keyboard: MainMenuKeyboard(),
		}}

	case BtnAddHomework:
		return r.renderAction(ownerID, r.machine.StartHomework(ownerID))

	case BtnMyHomework:
		return r.listHomework(ownerID)

	case BtnCompleteHW:
		return r.renderAction(ownerID, r.machine.StartComplete(ownerID))

	case BtnAddEvent:
		return r.renderAction(ownerID, r.machine.StartEvent(ownerID))

	case BtnMyEvents:
		return r.listEvents(ownerID)

	case BtnCalendar:
		kb := RenderCalendar(0, 0, time.Now())
		return []OutboundMessage{{
			OwnerID: ownerID,
			Text:    "Выбери дату:",
			Inline:  &kb,
		}}

	case BtnMotivation:
		return r.sendMotivation(ownerID)

	case BtnAddMotivation:
		return r.renderAction(ownerID, r.machine.StartMotivation(ownerID))

	case "/db_check":
		return r.dbCheck(ownerID)

	default:
		fmt.Fprintf(r.out, "bot: router: → unknown %q\n", truncate(text, 40))
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "Не понимаю 🤔 Выбери действие из меню:",
			Keyboard: MainMenuKeyboard(),
		}}
	}
}

// renderAction translates a machine action into outbound messages.
// List entries go out first, batched, then the prompt itself.
func (r *Router) renderAction(ownerID int64, act Action) []OutboundMessage {
	if act.Kind == ActionNone {
		return nil
	}

	var msgs []OutboundMessage
	if len(act.Entries) > 0 {
		for _, batch := range BatchLines(act.EntriesHeader, act.Entries) {
			msgs = append(msgs, OutboundMessage{OwnerID: ownerID, Text: batch})
		}
	}
	msgs = append(msgs, OutboundMessage{
		OwnerID:  ownerID,
		Text:     act.Text,
		Keyboard: act.Keyboard,
		Inline:   act.Inline,
	})
	return msgs
}

// listHomework renders the owner's outstanding homework, batched.
func (r *Router) listHomework(ownerID int64) []OutboundMessage {
	notDone := false
	hws, err := r.records.QueryHomework(ownerID, store.HomeworkFilters{Done: &notDone})
	if err != nil {
		log.Printf("bot: router: list homework for %d: %v", ownerID, err)
		return []OutboundMessage{{
			OwnerID: ownerID,
			Text:    "❌ Ошибка при получении заданий",
		}}
	}
	if len(hws) == 0 {
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "У тебя нет невыполненных заданий 🎉",
			Keyboard: HomeworkMenuKeyboard(),
		}}
	}

	var msgs []OutboundMessage
	for _, batch := range BatchLines("📚 Твои задания:", FormatHomeworkList(hws)) {
		msgs = append(msgs, OutboundMessage{OwnerID: ownerID, Text: batch})
	}
	return msgs
}

// listEvents renders the owner's upcoming events (today onward), batched.
func (r *Router) listEvents(ownerID int64) []OutboundMessage {
	now := time.Now()
	// Local midnight, so events stored for today (dates parse to local
	// midnight) stay inside the window.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	evs, err := r.records.QueryEvents(ownerID, today, today.AddDate(10, 0, 0))
	if err != nil {
		log.Printf("bot: router: list events for %d: %v", ownerID, err)
		return []OutboundMessage{{
			OwnerID: ownerID,
			Text:    "❌ Ошибка при получении событий",
		}}
	}
	if len(evs) == 0 {
		return []OutboundMessage{{
			OwnerID:  ownerID,
			Text:     "У тебя нет запланированных событий",
			Keyboard: ScheduleMenuKeyboard(),
		}}
	}

	var msgs []OutboundMessage
	for _, batch := range BatchLines("📅 Твои ближайшие события:", FormatEventList(evs)) {
		msgs = append(msgs, OutboundMessage{OwnerID: ownerID, Text: batch})
	}
	return msgs
}

// sendMotivation picks one random stored media item.
func (r *Router) sendMotivation(ownerID int64) []OutboundMessage {
	if r.media == nil {
		return []OutboundMessage{{
			OwnerID: ownerID,
			Text:    "Мотивации пока нет 😔",
		}}
	}
	ref, ok := r.media.PickRandom()
	if !ok {
		return []OutboundMessage{{
			OwnerID: ownerID,
			Text:    "Мотивации пока нет 😔 Добавь первую!",
		}}
	}
	return []OutboundMessage{{
		OwnerID:   ownerID,
		MediaKind: ref.Kind,
		MediaPath: ref.Path,
		Text:      "💪 Держи мотивацию!",
	}}
}

// dbCheck renders the diagnostics reply.
func (r *Router) dbCheck(ownerID int64) []OutboundMessage {
	hwCount, err := r.records.CountHomework(ownerID)
	if err != nil {
		return []OutboundMessage{{OwnerID: ownerID, Text: "❌ Ошибка при получении статистики"}}
	}
	evCount, err := r.records.CountEvents(ownerID)
	if err != nil {
		return []OutboundMessage{{OwnerID: ownerID, Text: "❌ Ошибка при получении статистики"}}
	}
	recentHW, err := r.records.RecentHomework(ownerID, 3)
	if err != nil {
		return []OutboundMessage{{OwnerID: ownerID, Text: "❌ Ошибка при получении статистики"}}
	}
	recentEvents, err := r.records.RecentEvents(ownerID, 3)
	if err != nil {
		return []OutboundMessage{{OwnerID: ownerID, Text: "❌ Ошибка при получении статистики"}}
	}
	return []OutboundMessage{{
		OwnerID: ownerID,
		Text:    FormatStats(hwCount, evCount, recentHW, recentEvents),
	}}
}

// truncate returns s truncated to maxLen runes with "..." appended if
// needed. Rune-based so Cyrillic input is never cut mid-sequence.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
