package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/models"
	"github.com/kosten114/schoolbot/internal/store"
)

func testRouter(t *testing.T) (*Router, *store.Store, *blobs.Store) {
	t.Helper()
	records := testStore(t)
	media, err := blobs.New(t.TempDir())
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}
	machine, err := NewMachine(records, media)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	r, err := NewRouter(RouterOpts{
		Machine: machine,
		Records: records,
		Media:   media,
		Out:     io.Discard,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return r, records, media
}

func TestNewRouter_Validation(t *testing.T) {
	records := testStore(t)
	machine, err := NewMachine(records, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewRouter(RouterOpts{Records: records}); err == nil {
		t.Error("expected error for missing machine")
	}
	if _, err := NewRouter(RouterOpts{Machine: machine}); err == nil {
		t.Error("expected error for missing record store")
	}
}

func TestDispatch_Start(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: "/start"})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if msgs[0].Keyboard == nil {
		t.Error("no main menu keyboard attached")
	}
}

func TestDispatch_UnknownInput(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: "blorp"})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Не понимаю") {
		t.Errorf("text = %q, want fallback prompt", msgs[0].Text)
	}
}

func TestDispatch_CancelWhileIdle_Silent(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: "/cancel"})
	if len(msgs) != 0 {
		t.Errorf("len = %d, want 0 (silent no-op)", len(msgs))
	}
	msgs = r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnCancel})
	if len(msgs) != 0 {
		t.Errorf("button cancel len = %d, want 0", len(msgs))
	}
}

func TestDispatch_CancelBeatsActiveStage(t *testing.T) {
	r, _, _ := testRouter(t)
	r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnAddHomework})
	if r.machine.Stage(owner) != StageHomeworkSubject {
		t.Fatalf("stage = %v, want StageHomeworkSubject", r.machine.Stage(owner))
	}

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: "/cancel"})
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "отменено") {
		t.Errorf("msgs = %+v, want cancel confirmation", msgs)
	}
	if r.machine.Stage(owner) != StageIdle {
		t.Errorf("stage = %v, want StageIdle", r.machine.Stage(owner))
	}
}

func TestDispatch_FullHomeworkConversation(t *testing.T) {
	r, records, _ := testRouter(t)

	r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnAddHomework})
	r.Dispatch(InboundMessage{OwnerID: owner, Text: "Математика"})
	r.Dispatch(InboundMessage{OwnerID: owner, Text: "/skip"})
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: "Параграф 5"})
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "Задание добавлено") {
		t.Fatalf("msgs = %+v, want commit confirmation", msgs)
	}

	hws, err := records.QueryHomework(owner, store.HomeworkFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(hws) != 1 || hws[0].Task != "Параграф 5" {
		t.Errorf("stored = %+v", hws)
	}
}

func TestDispatch_CalendarNavigation_EditsInPlace(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{
		OwnerID:           owner,
		CallbackToken:     "calendar_nav_2026_10",
		CallbackMessageID: 77,
	})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	out := msgs[0]
	if out.EditMessageID != 77 {
		t.Errorf("EditMessageID = %d, want 77", out.EditMessageID)
	}
	if out.Inline == nil {
		t.Fatal("no re-rendered calendar attached")
	}
	if out.Inline.Rows[0][0].Label != "Октябрь 2026" {
		t.Errorf("title = %q, want Октябрь 2026", out.Inline.Rows[0][0].Label)
	}
	if out.Text != "" {
		t.Errorf("text = %q, want empty for in-place edit", out.Text)
	}
}

func TestDispatch_CalendarIgnoreToken_Silent(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, CallbackToken: "ignore"})
	if len(msgs) != 0 {
		t.Errorf("len = %d, want 0 for inert cell", len(msgs))
	}
}

func TestDispatch_DaySelect_FeedsActiveFlow(t *testing.T) {
	r, records, _ := testRouter(t)
	r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnAddHomework})
	r.Dispatch(InboundMessage{OwnerID: owner, Text: "Физика"})

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, CallbackToken: "calendar_day_2026_9_15"})
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "текст задания") {
		t.Fatalf("msgs = %+v, want task prompt", msgs)
	}

	r.Dispatch(InboundMessage{OwnerID: owner, Text: "из календаря"})
	hws, err := records.QueryHomework(owner, store.HomeworkFilters{})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, time.September, 15, 0, 0, 0, 0, time.Local)
	if len(hws) != 1 || hws[0].Deadline == nil || !hws[0].Deadline.Equal(want) {
		t.Errorf("stored = %+v, want deadline %v", hws, want)
	}
}

func TestDispatch_DaySelect_WhileIdle_OffersMenu(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, CallbackToken: "calendar_day_2026_9_15"})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "15.09.2026") {
		t.Errorf("text = %q, want to echo the date", msgs[0].Text)
	}
	if msgs[0].Keyboard == nil {
		t.Error("no schedule menu attached")
	}
}

func TestDispatch_ListHomework_Empty(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnMyHomework})
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "нет невыполненных") {
		t.Errorf("msgs = %+v, want empty-list text", msgs)
	}
}

func TestDispatch_ListHomework_BatchesOfFive(t *testing.T) {
	r, records, _ := testRouter(t)
	for i := 0; i < 9; i++ {
		if _, err := records.InsertHomework(&models.Homework{
			UserID: owner, Subject: "Физика", Task: fmt.Sprintf("task %d", i),
		}); err != nil {
			t.Fatal(err)
		}
	}

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnMyHomework})
	// Header + 9 lines = 10 logical lines → 2 messages of 5.
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2 batches", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Text, "📚 Твои задания:") {
		t.Errorf("first batch = %q, want header first", msgs[0].Text)
	}
	if got := strings.Count(msgs[0].Text, "\n") + 1; got != 5 {
		t.Errorf("first batch lines = %d, want 5", got)
	}
}

func TestDispatch_ListEvents(t *testing.T) {
	r, records, _ := testRouter(t)
	if _, err := records.InsertEvent(&models.ScheduleEvent{
		UserID:    owner,
		Subject:   "История",
		EventType: "Экзамен",
		EventDate: time.Now().AddDate(0, 0, 7),
	}); err != nil {
		t.Fatal(err)
	}

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnMyEvents})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "История") || !strings.Contains(msgs[0].Text, "Экзамен") {
		t.Errorf("text = %q", msgs[0].Text)
	}
}

func TestDispatch_ListEvents_IncludesTodayMidnight(t *testing.T) {
	r, records, _ := testRouter(t)

	// Both date-entry paths store local midnight; an event entered for
	// today must still show up in the listing.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if _, err := records.InsertEvent(&models.ScheduleEvent{
		UserID:    owner,
		Subject:   "Физика",
		EventType: "Контрольная работа",
		EventDate: today,
	}); err != nil {
		t.Fatal(err)
	}

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnMyEvents})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if strings.Contains(msgs[0].Text, "нет запланированных") {
		t.Fatalf("today's event dropped from listing: %q", msgs[0].Text)
	}
	if !strings.Contains(msgs[0].Text, "Физика") {
		t.Errorf("text = %q, want today's event listed", msgs[0].Text)
	}
}

func TestDispatch_Motivation_EmptyStore(t *testing.T) {
	r, _, _ := testRouter(t)
	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnMotivation})
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "Мотивации пока нет") {
		t.Errorf("msgs = %+v, want empty-store text", msgs)
	}
}

func TestDispatch_Motivation_SendsMedia(t *testing.T) {
	r, _, media := testRouter(t)
	if _, err := media.Save(blobs.KindPhoto, owner, []byte("jpeg")); err != nil {
		t.Fatal(err)
	}

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnMotivation})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if msgs[0].MediaKind != blobs.KindPhoto || msgs[0].MediaPath == "" {
		t.Errorf("msg = %+v, want media send", msgs[0])
	}
}

func TestDispatch_MediaUpload_RoutedToActiveStage(t *testing.T) {
	r, _, media := testRouter(t)
	r.Dispatch(InboundMessage{OwnerID: owner, Text: BtnAddMotivation})

	msgs := r.Dispatch(InboundMessage{
		OwnerID:   owner,
		MediaKind: blobs.KindVideo,
		MediaData: []byte("mp4"),
	})
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "сохранена") {
		t.Fatalf("msgs = %+v, want save confirmation", msgs)
	}
	refs, err := media.ListAll(blobs.KindVideo)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Errorf("stored videos = %d, want 1", len(refs))
	}
}

func TestDispatch_DBCheck(t *testing.T) {
	r, records, _ := testRouter(t)
	if _, err := records.InsertHomework(&models.Homework{UserID: owner, Subject: "Физика", Task: "x"}); err != nil {
		t.Fatal(err)
	}

	msgs := r.Dispatch(InboundMessage{OwnerID: owner, Text: "/db_check"})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Статистика") || !strings.Contains(msgs[0].Text, "Домашних заданий: 1") {
		t.Errorf("text = %q", msgs[0].Text)
	}
}

func TestHandle_SendsThroughAdapter(t *testing.T) {
	r, _, _ := testRouter(t)
	adapter := NewMockAdapter()
	if err := adapter.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	r.Handle(context.Background(), adapter, InboundMessage{OwnerID: owner, Text: "/start"})
	if adapter.SentCount() != 1 {
		t.Fatalf("sent = %d, want 1", adapter.SentCount())
	}
	last, _ := adapter.LastSent()
	if last.OwnerID != owner {
		t.Errorf("OwnerID = %d, want %d", last.OwnerID, owner)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q, want unchanged", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate = %q, want %q", got, "0123456789...")
	}
}

func TestTruncate_CyrillicStaysValid(t *testing.T) {
	got := truncate("Добавить задание по физике", 10)
	if got != "Добавить з..." {
		t.Errorf("truncate = %q, want %q", got, "Добавить з...")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	// A string shorter than the limit in runes but longer in bytes
	// passes through untouched.
	if got := truncate("Физика", 8); got != "Физика" {
		t.Errorf("truncate = %q, want unchanged", got)
	}
}
