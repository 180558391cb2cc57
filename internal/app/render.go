package app

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

var actionButtons = map[model.TaskAction]string{
	model.TaskActionStart:  "▶️",
	model.TaskActionPause:  "⏸",
	model.TaskActionFinish: "✅",
}

func statusLabel(s model.TaskStatus) string {
	return cases.Title(language.English).String(string(s))
}

// renderList formats the visible tasks with one keyboard row per task,
// offering only the transitions allowed from its status.
func renderList(visible model.TaskCollection, term string) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📋 Checklist")
	if term != "" {
		fmt.Fprintf(&sb, " (search: %q)", term)
	}
	sb.WriteString("\n\n")

	if len(visible) == 0 {
		if term != "" {
			sb.WriteString("No tasks match.")
		} else {
			sb.WriteString("You are idle at the moment.")
		}
		return sb.String(), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(visible))
	for i, t := range visible {
		n := i + 1
		fmt.Fprintf(&sb, "%d. %s (%s)\n", n, t.Title, statusLabel(t.Status))

		var row []tgbotapi.InlineKeyboardButton
		for _, tr := range model.ActionsFor(t.Status) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %d", actionButtons[tr.Action], n),
				fmt.Sprintf("act:%s:%d", tr.Action, t.ID),
			))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("🗑 %d", n),
			fmt.Sprintf("del:%d", t.ID),
		))
		rows = append(rows, row)
	}
	return strings.TrimRight(sb.String(), "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...)
}
