package motivation

import (
	"fmt"
	"math/rand"
	"strings"
)

// message template placeholders, replaced on render
const (
	namePlaceholder   = "{name}"
	streakPlaceholder = "{streak}"
)

var defaultTemplates = []string{
	"Keep going, {name}! Every workout brings you closer to your goals! 💪",
	"You're doing amazing, {name}! {streak} days strong! 🔥",
	"Progress is progress, {name}! Keep pushing forward! ⚡",
	"Your consistency is inspiring, {name}! Keep it up! 🌟",
}

type MessagesManager struct {
	Templates []string
}

func NewMessagesManager() *MessagesManager {
	return &MessagesManager{
		Templates: defaultTemplates,
	}
}

// RandomMessage picks a template and personalizes it with the
// client name and current streak
func (mm *MessagesManager) RandomMessage(name string, streak int) string {
	index := rand.Float64() * float64(len(mm.Templates))
	message := mm.Templates[int(index)]
	message = strings.ReplaceAll(message, namePlaceholder, name)
	message = strings.ReplaceAll(message, streakPlaceholder, fmt.Sprintf("%d", streak))
	return message
}
