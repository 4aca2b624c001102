package console

import "github.com/imamik/nodeup/internal/bot"

// deliveredMsg carries a new bot message into the UI.
type deliveredMsg struct {
	id      int64
	text    string
	buttons []bot.Button
}

// editedMsg replaces the text of an already delivered message.
type editedMsg struct {
	id   int64
	text string
}
