package relay

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"/start", "/start"},
		{"/start hello", "/start"},
		{"/ban@relaybot", "/ban"},
		{"/help\nmore", "/help"},
		{"hello", ""},
		{"", ""},
		{"/", ""},
		{"no /slash here", ""},
	}
	for _, tc := range cases {
		if got := ParseCommand(tc.text); got != tc.want {
			t.Errorf("ParseCommand(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestPeerFullName(t *testing.T) {
	cases := []struct {
		peer Peer
		want string
	}{
		{Peer{FirstName: "Ada", LastName: "L"}, "Ada L"},
		{Peer{FirstName: "Ada"}, "Ada"},
		{Peer{LastName: "L"}, "L"},
		{Peer{Username: "ada"}, "ada"},
		{Peer{}, ""},
	}
	for _, tc := range cases {
		if got := tc.peer.FullName(); got != tc.want {
			t.Errorf("FullName(%+v) = %q, want %q", tc.peer, got, tc.want)
		}
	}
}
