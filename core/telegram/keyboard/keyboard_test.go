package keyboard

import "testing"

func TestInlineLayout(t *testing.T) {
	m := Inline([][]Button{
		{{Text: "Kyiv", Unique: "town", Data: "Kyiv"}, {Text: "Lviv", Unique: "town", Data: "Lviv"}},
		{{Text: "Back", Unique: "back"}},
	})
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
	if got := m.InlineKeyboard[0][1]; got.Unique != "town" || got.Data != "Lviv" || got.Text != "Lviv" {
		t.Fatalf("button = %+v", got)
	}
}

func TestCallbackSize(t *testing.T) {
	b := Button{Unique: "town", Data: "Kyiv"}
	if b.CallbackSize() != len("\ftown|Kyiv") {
		t.Fatalf("CallbackSize = %d", b.CallbackSize())
	}
}
