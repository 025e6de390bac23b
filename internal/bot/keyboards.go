package bot

import "github.com/kosten114/schoolbot/internal/models"

// Menu button labels. Button presses arrive as plain text, so these
// double as the router's match targets.
const (
	BtnHomeworkMenu  = "📚 Домашние задания"
	BtnScheduleMenu  = "📅 Расписание"
	BtnAddHomework   = "Добавить задание"
	BtnMyHomework    = "Мои задания"
	BtnCompleteHW    = "Отметить выполненным"
	BtnAddEvent      = "Добавить событие"
	BtnMyEvents      = "Мои события"
	BtnCalendar      = "Календарь"
	BtnMotivation    = "Мотивация"
	BtnAddMotivation = "Добавить мотивацию"
	BtnBack          = "Назад"
	BtnCancel        = "❌ Отмена"
)

// skipCommand moves past an optional field (deadline, description).
const skipCommand = "/skip"

// MainMenuKeyboard is the top-level menu.
func MainMenuKeyboard() *Keyboard {
	return &Keyboard{
		Rows: [][]string{
			{BtnHomeworkMenu},
			{BtnScheduleMenu},
		},
	}
}

// HomeworkMenuKeyboard lists the homework actions.
func HomeworkMenuKeyboard() *Keyboard {
	return &Keyboard{
		Rows: [][]string{
			{BtnAddHomework},
			{BtnMyHomework},
			{BtnCompleteHW},
			{BtnMotivation},
			{BtnAddMotivation},
			{BtnBack},
		},
	}
}

// ScheduleMenuKeyboard lists the schedule actions.
func ScheduleMenuKeyboard() *Keyboard {
	return &Keyboard{
		Rows: [][]string{
			{BtnAddEvent},
			{BtnMyEvents},
			{BtnCalendar},
			{BtnBack},
		},
	}
}

// SubjectsKeyboard offers one button per enumerated subject.
func SubjectsKeyboard() *Keyboard {
	rows := make([][]string, 0, len(models.Subjects)+1)
	for _, s := range models.Subjects {
		rows = append(rows, []string{s})
	}
	rows = append(rows, []string{BtnCancel})
	return &Keyboard{Rows: rows, OneTime: true}
}

// EventTypesKeyboard offers one button per enumerated event type.
func EventTypesKeyboard() *Keyboard {
	rows := make([][]string, 0, len(models.EventTypes)+1)
	for _, et := range models.EventTypes {
		rows = append(rows, []string{et})
	}
	rows = append(rows, []string{BtnCancel})
	return &Keyboard{Rows: rows, OneTime: true}
}

// CancelKeyboard shows only the cancel button.
func CancelKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{BtnCancel}}}
}
