package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/models"
	"github.com/kosten114/schoolbot/internal/store"
)

// dateLayout is the strict textual date format accepted in date stages.
const dateLayout = "02.01.2006"

// Stage identifies the current step of a multi-turn flow.
type Stage int

const (
	StageIdle Stage = iota
	StageHomeworkSubject
	StageHomeworkDeadline
	StageHomeworkTask
	StageEventDate
	StageEventSubject
	StageEventType
	StageEventDescription
	StageMotivationUpload
	StageCompleteSelect
)

// EventKind classifies an inbound conversation event.
type EventKind int

const (
	// EventText is free text or a pressed button label.
	EventText EventKind = iota
	// EventDateSelected is a calendar day pick.
	EventDateSelected
	// EventMediaUpload is a photo/video/animation payload.
	EventMediaUpload
	// EventCancel aborts whatever flow is active.
	EventCancel
)

// Event is a single conversation input.
type Event struct {
	Kind      EventKind
	Text      string
	Date      time.Time
	MediaKind string
	MediaData []byte
}

// ActionKind classifies the machine's response to an event.
type ActionKind int

const (
	// ActionNone means nothing to say (e.g. cancel while idle).
	ActionNone ActionKind = iota
	// ActionPrompt asks for the current stage's input.
	ActionPrompt
	// ActionCommit confirms a completed flow; the store write already
	// happened by the time the action is returned.
	ActionCommit
	// ActionClear confirms a cancelled flow.
	ActionClear
	// ActionReject re-asks after invalid input or a failed store write.
	// The stage and scratch are unchanged.
	ActionReject
)

// Action is the machine's instruction to the router: what to say and
// which keyboards to attach. Entries, when present, are list lines that
// the router batches separately before the Text message.
type Action struct {
	Kind          ActionKind
	Text          string
	Keyboard      *Keyboard
	Inline        *InlineKeyboard
	Entries       []string
	EntriesHeader string
}

// scratch is the draft record accumulated across a flow's stages.
type scratch struct {
	subject     string
	deadline    *time.Time
	eventDate   time.Time
	eventType   string
	description string
}

// conversation is the per-owner machine state. It lives only in process
// memory; a restart abandons any in-flight flow.
type conversation struct {
	stage   Stage
	scratch scratch
	pending []uint // homework ids offered in StageCompleteSelect
}

// Machine drives per-owner multi-step data entry. All flows share the
// engine; the stage enumeration selects the behavior. Commit is the only
// transition that writes to the store, and a failed write keeps the
// pre-commit stage so the user can retry without re-entering fields.
type Machine struct {
	records *store.Store
	media   *blobs.Store

	mu    sync.Mutex
	convs map[int64]*conversation
}

// NewMachine creates a Machine. The media store is optional; without it
// the motivation-upload flow reports that uploads are unavailable.
func NewMachine(records *store.Store, media *blobs.Store) (*Machine, error) {
	if records == nil {
		return nil, fmt.Errorf("bot: machine: record store is required")
	}
	return &Machine{
		records: records,
		media:   media,
		convs:   make(map[int64]*conversation),
	}, nil
}

// conv returns the owner's conversation, creating it lazily.
// Callers must hold mu.
func (m *Machine) conv(ownerID int64) *conversation {
	c, ok := m.convs[ownerID]
	if !ok {
		c = &conversation{stage: StageIdle}
		m.convs[ownerID] = c
	}
	return c
}

// Stage returns the owner's current stage.
func (m *Machine) Stage(ownerID int64) Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[ownerID]
	if !ok {
		return StageIdle
	}
	return c.stage
}

// ExpectsDate reports whether the owner's current stage consumes a
// calendar day selection.
func (m *Machine) ExpectsDate(ownerID int64) bool {
	switch m.Stage(ownerID) {
	case StageHomeworkDeadline, StageEventDate:
		return true
	}
	return false
}

// StartHomework begins the add-homework flow.
func (m *Machine) StartHomework(ownerID int64) Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conv(ownerID)
	c.reset()
	c.stage = StageHomeworkSubject
	return Action{
		Kind:     ActionPrompt,
		Text:     "Выбери предмет:",
		Keyboard: SubjectsKeyboard(),
	}
}

// StartEvent begins the add-event flow.
func (m *Machine) StartEvent(ownerID int64) Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conv(ownerID)
	c.reset()
	c.stage = StageEventDate
	return Action{
		Kind:     ActionPrompt,
		Text:     "Введи дату события в формате ДД.ММ.ГГГГ или выбери в календаре:",
		Keyboard: CancelKeyboard(),
		Inline:   calendarMarkup(),
	}
}

// StartComplete begins the mark-done flow. The owner's outstanding
// homework is snapshotted into the selection list so a typed ordinal
// maps back to a record id.
func (m *Machine) StartComplete(ownerID int64) Action {
	notDone := false
	hws, err := m.records.QueryHomework(ownerID, store.HomeworkFilters{Done: &notDone})
	if err != nil {
		return Action{
			Kind:     ActionReject,
			Text:     "❌ Не получилось загрузить задания, попробуй ещё раз",
			Keyboard: HomeworkMenuKeyboard(),
		}
	}
	if len(hws) == 0 {
		return Action{
			Kind:     ActionPrompt,
			Text:     "У тебя нет невыполненных заданий 🎉",
			Keyboard: HomeworkMenuKeyboard(),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conv(ownerID)
	c.reset()
	c.stage = StageCompleteSelect
	c.pending = make([]uint, len(hws))
	entries := make([]string, len(hws))
	for i, hw := range hws {
		c.pending[i] = hw.ID
		entries[i] = fmt.Sprintf("%d. %s", i+1, FormatHomework(hw))
	}
	return Action{
		Kind:          ActionPrompt,
		Text:          "Отправь номер выполненного задания:",
		Keyboard:      CancelKeyboard(),
		Entries:       entries,
		EntriesHeader: "📚 Невыполненные задания:",
	}
}

// StartMotivation begins the motivation-upload flow.
func (m *Machine) StartMotivation(ownerID int64) Action {
	if m.media == nil {
		return Action{
			Kind:     ActionPrompt,
			Text:     "Загрузка мотивации сейчас недоступна",
			Keyboard: HomeworkMenuKeyboard(),
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conv(ownerID)
	c.reset()
	c.stage = StageMotivationUpload
	return Action{
		Kind:     ActionPrompt,
		Text:     "Отправь фото, видео или гифку:",
		Keyboard: CancelKeyboard(),
	}
}

// Advance feeds one event into the owner's conversation and returns the
// resulting action. Reject never mutates scratch or the selection list.
func (m *Machine) Advance(ownerID int64, ev Event) Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conv(ownerID)

	if ev.Kind == EventCancel {
		if c.stage == StageIdle {
			return Action{Kind: ActionNone}
		}
		c.reset()
		return Action{
			Kind:     ActionClear,
			Text:     "Действие отменено",
			Keyboard: MainMenuKeyboard(),
		}
	}

	switch c.stage {
	case StageIdle:
		return Action{Kind: ActionNone}
	case StageHomeworkSubject:
		return m.homeworkSubject(c, ev)
	case StageHomeworkDeadline:
		return m.homeworkDeadline(c, ev)
	case StageHomeworkTask:
		return m.homeworkTask(c, ownerID, ev)
	case StageEventDate:
		return m.eventDate(c, ev)
	case StageEventSubject:
		return m.eventSubject(c, ev)
	case StageEventType:
		return m.eventType(c, ev)
	case StageEventDescription:
		return m.eventDescription(c, ownerID, ev)
	case StageMotivationUpload:
		return m.motivationUpload(c, ownerID, ev)
	case StageCompleteSelect:
		return m.completeSelect(c, ev)
	}
	return Action{Kind: ActionNone}
}

func (m *Machine) homeworkSubject(c *conversation, ev Event) Action {
	if ev.Kind != EventText || !models.ValidSubject(ev.Text) {
		return Action{
			Kind:     ActionReject,
			Text:     "Пожалуйста, выбери предмет из списка:",
			Keyboard: SubjectsKeyboard(),
		}
	}
	c.scratch.subject = ev.Text
	c.stage = StageHomeworkDeadline
	return Action{
		Kind:     ActionPrompt,
		Text:     "Введи срок сдачи в формате ДД.ММ.ГГГГ, выбери дату в календаре или отправь /skip:",
		Keyboard: CancelKeyboard(),
		Inline:   calendarMarkup(),
	}
}

func (m *Machine) homeworkDeadline(c *conversation, ev Event) Action {
	switch ev.Kind {
	case EventDateSelected:
		d := ev.Date
		c.scratch.deadline = &d
	case EventText:
		if ev.Text == skipCommand {
			c.scratch.deadline = nil
			break
		}
		d, err := parseDate(ev.Text)
		if err != nil {
			return Action{
				Kind:     ActionReject,
				Text:     "Неверный формат даты. Нужен формат ДД.ММ.ГГГГ:",
				Keyboard: CancelKeyboard(),
			}
		}
		c.scratch.deadline = &d
	default:
		return Action{
			Kind:     ActionReject,
			Text:     "Введи срок сдачи в формате ДД.ММ.ГГГГ или отправь /skip:",
			Keyboard: CancelKeyboard(),
		}
	}
	c.stage = StageHomeworkTask
	return Action{
		Kind:     ActionPrompt,
		Text:     "Введи текст задания:",
		Keyboard: CancelKeyboard(),
	}
}

func (m *Machine) homeworkTask(c *conversation, ownerID int64, ev Event) Action {
	task := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || task == "" {
		return Action{
			Kind:     ActionReject,
			Text:     "Введи текст задания:",
			Keyboard: CancelKeyboard(),
		}
	}

	hw := models.Homework{
		UserID:   ownerID,
		Subject:  c.scratch.subject,
		Task:     task,
		Deadline: c.scratch.deadline,
	}
	if _, err := m.records.InsertHomework(&hw); err != nil {
		// Stage is preserved so the user can retry the commit.
		return Action{
			Kind:     ActionReject,
			Text:     "❌ Ошибка при сохранении задания. Попробуй ещё раз:",
			Keyboard: CancelKeyboard(),
		}
	}

	deadline := "нет срока"
	if hw.Deadline != nil {
		deadline = hw.Deadline.Format(dateLayout)
	}
	c.reset()
	return Action{
		Kind: ActionCommit,
		Text: fmt.Sprintf(
			"✅ Задание добавлено!\n\n📚 Предмет: %s\n📝 Задание: %s\n📅 Срок: %s",
			hw.Subject, hw.Task, deadline),
		Keyboard: HomeworkMenuKeyboard(),
	}
}

func (m *Machine) eventDate(c *conversation, ev Event) Action {
	switch ev.Kind {
	case EventDateSelected:
		c.scratch.eventDate = ev.Date
	case EventText:
		d, err := parseDate(ev.Text)
		if err != nil {
			return Action{
				Kind:     ActionReject,
				Text:     "Неверный формат даты. Нужен формат ДД.ММ.ГГГГ:",
				Keyboard: CancelKeyboard(),
				Inline:   calendarMarkup(),
			}
		}
		c.scratch.eventDate = d
	default:
		return Action{
			Kind:     ActionReject,
			Text:     "Введи дату события в формате ДД.ММ.ГГГГ или выбери в календаре:",
			Keyboard: CancelKeyboard(),
			Inline:   calendarMarkup(),
		}
	}
	c.stage = StageEventSubject
	return Action{
		Kind: ActionPrompt,
		Text: fmt.Sprintf("Выбрана дата: %s\nВыбери предмет:",
			c.scratch.eventDate.Format(dateLayout)),
		Keyboard: SubjectsKeyboard(),
	}
}

func (m *Machine) eventSubject(c *conversation, ev Event) Action {
	if ev.Kind != EventText || !models.ValidSubject(ev.Text) {
		return Action{
			Kind:     ActionReject,
			Text:     "Пожалуйста, выбери предмет из списка:",
			Keyboard: SubjectsKeyboard(),
		}
	}
	c.scratch.subject = ev.Text
	c.stage = StageEventType
	return Action{
		Kind:     ActionPrompt,
		Text:     "Выбери тип события:",
		Keyboard: EventTypesKeyboard(),
	}
}

func (m *Machine) eventType(c *conversation, ev Event) Action {
	if ev.Kind != EventText || !models.ValidEventType(ev.Text) {
		return Action{
			Kind:     ActionReject,
			Text:     "Пожалуйста, выбери тип события из списка:",
			Keyboard: EventTypesKeyboard(),
		}
	}
	c.scratch.eventType = ev.Text
	c.stage = StageEventDescription
	return Action{
		Kind:     ActionPrompt,
		Text:     "Введи описание события (или отправь /skip чтобы пропустить):",
		Keyboard: CancelKeyboard(),
	}
}

func (m *Machine) eventDescription(c *conversation, ownerID int64, ev Event) Action {
	if ev.Kind != EventText {
		return Action{
			Kind:     ActionReject,
			Text:     "Введи описание события (или отправь /skip чтобы пропустить):",
			Keyboard: CancelKeyboard(),
		}
	}
	description := strings.TrimSpace(ev.Text)
	if description == skipCommand {
		description = ""
	}

	evt := models.ScheduleEvent{
		UserID:      ownerID,
		Subject:     c.scratch.subject,
		EventType:   c.scratch.eventType,
		EventDate:   c.scratch.eventDate,
		Description: description,
	}
	if _, err := m.records.InsertEvent(&evt); err != nil {
		return Action{
			Kind:     ActionReject,
			Text:     "❌ Ошибка при сохранении события. Попробуй ещё раз:",
			Keyboard: CancelKeyboard(),
		}
	}

	shown := evt.Description
	if shown == "" {
		shown = "нет"
	}
	c.reset()
	return Action{
		Kind: ActionCommit,
		Text: fmt.Sprintf(
			"✅ Событие добавлено!\n\n📚 Предмет: %s\n📝 Тип: %s\n📅 Дата: %s\n📄 Описание: %s",
			evt.Subject, evt.EventType, evt.EventDate.Format(dateLayout), shown),
		Keyboard: ScheduleMenuKeyboard(),
	}
}

func (m *Machine) motivationUpload(c *conversation, ownerID int64, ev Event) Action {
	if ev.Kind != EventMediaUpload {
		return Action{
			Kind:     ActionReject,
			Text:     "Жду фото, видео или гифку:",
			Keyboard: CancelKeyboard(),
		}
	}
	if _, err := m.media.Save(ev.MediaKind, ownerID, ev.MediaData); err != nil {
		return Action{
			Kind:     ActionReject,
			Text:     "❌ Не получилось сохранить. Попробуй ещё раз:",
			Keyboard: CancelKeyboard(),
		}
	}
	c.reset()
	return Action{
		Kind:     ActionCommit,
		Text:     "✅ Мотивация сохранена!",
		Keyboard: HomeworkMenuKeyboard(),
	}
}

func (m *Machine) completeSelect(c *conversation, ev Event) Action {
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if ev.Kind != EventText || err != nil || n < 1 || n > len(c.pending) {
		return Action{
			Kind:     ActionReject,
			Text:     fmt.Sprintf("Отправь номер задания от 1 до %d:", len(c.pending)),
			Keyboard: CancelKeyboard(),
		}
	}

	id := c.pending[n-1]
	ok, err := m.records.MarkHomeworkDone(id)
	if err != nil {
		return Action{
			Kind:     ActionReject,
			Text:     "❌ Ошибка при сохранении. Попробуй ещё раз:",
			Keyboard: CancelKeyboard(),
		}
	}
	if !ok {
		// The record vanished between listing and selection.
		c.reset()
		return Action{
			Kind:     ActionClear,
			Text:     "Задание уже не существует. Начни заново",
			Keyboard: HomeworkMenuKeyboard(),
		}
	}
	c.reset()
	return Action{
		Kind:     ActionCommit,
		Text:     "✅ Задание отмечено выполненным!",
		Keyboard: HomeworkMenuKeyboard(),
	}
}

// reset returns the conversation to Idle and drops the draft.
func (c *conversation) reset() {
	c.stage = StageIdle
	c.scratch = scratch{}
	c.pending = nil
}

// parseDate parses a strict DD.MM.YYYY date in local time, so typed and
// calendar-selected dates land on identical stored values.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
}

// calendarMarkup renders the current month's grid for date prompts.
func calendarMarkup() *InlineKeyboard {
	kb := RenderCalendar(0, 0, time.Now())
	return &kb
}
