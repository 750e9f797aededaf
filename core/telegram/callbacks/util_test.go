package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		cb            *tele.Callback
		unique, data string
	}{
		{&tele.Callback{Unique: "town", Data: "New_York"}, "town", "New_York"},
		{&tele.Callback{Data: "\fremove_town|Rio|x"}, "remove_town", "Rio|x"},
		{&tele.Callback{Data: "my_towns"}, "my_towns", ""},
		{nil, "", ""},
	}
	for _, tc := range cases {
		u, d := ParseCallbackData(tc.cb)
		if u != tc.unique || d != tc.data {
			t.Fatalf("ParseCallbackData(%+v) = %q, %q; want %q, %q", tc.cb, u, d, tc.unique, tc.data)
		}
	}
}
