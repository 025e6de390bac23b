package bot

import (
	"fmt"
	"strings"

	"github.com/kosten114/schoolbot/internal/models"
)

// listBatchSize is how many logical lines go into one outbound message.
// The transport does not accept unbounded messages, so long lists are
// sent in groups.
const listBatchSize = 5

// FormatHomework renders one homework record as a single list line.
func FormatHomework(hw models.Homework) string {
	deadline := "без срока"
	if hw.Deadline != nil {
		deadline = "до " + hw.Deadline.Format(dateLayout)
	}
	return fmt.Sprintf("%s: %s (%s)", hw.Subject, hw.Task, deadline)
}

// FormatHomeworkList renders an owner's homework as numbered list lines.
func FormatHomeworkList(hws []models.Homework) []string {
	lines := make([]string, len(hws))
	for i, hw := range hws {
		lines[i] = fmt.Sprintf("%d. %s", i+1, FormatHomework(hw))
	}
	return lines
}

// FormatEvent renders one schedule event as a list block.
func FormatEvent(ev models.ScheduleEvent) string {
	description := ev.Description
	if description == "" {
		description = "без описания"
	}
	return fmt.Sprintf("📌 %s\n📚 %s - %s\n📄 %s",
		ev.EventDate.Format(dateLayout), ev.Subject, ev.EventType, description)
}

// FormatEventList renders schedule events as list blocks.
func FormatEventList(evs []models.ScheduleEvent) []string {
	lines := make([]string, len(evs))
	for i, ev := range evs {
		lines[i] = FormatEvent(ev)
	}
	return lines
}

// BatchLines joins lines into messages of at most listBatchSize lines
// each. The header counts as a line of the first batch.
func BatchLines(header string, lines []string) []string {
	all := make([]string, 0, len(lines)+1)
	if header != "" {
		all = append(all, header)
	}
	all = append(all, lines...)

	var batches []string
	for i := 0; i < len(all); i += listBatchSize {
		end := i + listBatchSize
		if end > len(all) {
			end = len(all)
		}
		batches = append(batches, strings.Join(all[i:end], "\n"))
	}
	return batches
}

// FormatStats renders the diagnostics reply: per-owner counts plus the
// most recent records.
func FormatStats(hwCount, evCount int64, recentHW []models.Homework, recentEvents []models.ScheduleEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика:\nДомашних заданий: %d\nСобытий в расписании: %d\n", hwCount, evCount)

	b.WriteString("\nПоследние задания:\n")
	if len(recentHW) == 0 {
		b.WriteString("- нет\n")
	}
	for _, hw := range recentHW {
		task := hw.Task
		if len([]rune(task)) > 20 {
			task = string([]rune(task)[:20]) + "..."
		}
		deadline := "нет срока"
		if hw.Deadline != nil {
			deadline = "до " + hw.Deadline.Format(dateLayout)
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", hw.Subject, task, deadline)
	}

	b.WriteString("\nПоследние события:\n")
	if len(recentEvents) == 0 {
		b.WriteString("- нет\n")
	}
	for _, ev := range recentEvents {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", ev.Subject, ev.EventType, ev.EventDate.Format(dateLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}
