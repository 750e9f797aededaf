package conversation

// Mode is the Telegram parse mode of a reply; empty means plain text.
type Mode string

const (
	ModePlain      Mode = ""
	ModeMarkdownV2 Mode = "MarkdownV2"
	ModeHTML       Mode = "HTML"
)

type Button struct {
	Label  string
	Action Action
}

// Reply is one outbound message. Keyboard rows become an inline keyboard.
type Reply struct {
	Text     string
	Keyboard [][]Button
	Mode     Mode
}

func text(s string) Reply { return Reply{Text: s} }

func withKeyboard(s string, kb [][]Button) Reply { return Reply{Text: s, Keyboard: kb} }

func row(buttons ...Button) []Button { return buttons }

func btn(label string, a Action) Button { return Button{Label: label, Action: a} }
