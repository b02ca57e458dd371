package textnorm

import "testing"

func TestToFirstPerson(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"tell him that I'll be late", "I'll be late"},
		{"remind her to drink water", "drink water"},
		{"notify them that the meeting moved", "the meeting moved"},
		{"tell Sarah the meeting is at 3pm", "Sarah the meeting is at 3pm"},
		{"inform him I'm running late", "I'm running late"},
		{"that I won't make it", "I won't make it"},
		{"to eat healthy food", "eat healthy food"},
		{"I'll   be  home soon", "I'll be home soon"},
		{"  ask her that dinner is ready  ", "dinner is ready"},
		{"", ""},
	}

	for _, c := range cases {
		if got := ToFirstPerson(c.in); got != c.want {
			t.Errorf("ToFirstPerson(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestToFirstPersonIdempotent(t *testing.T) {
	inputs := []string{
		"tell him that I'll be late",
		"remind her to drink water",
		"let them know the gate code changed",
		"already clean text",
	}

	for _, in := range inputs {
		once := ToFirstPerson(in)
		twice := ToFirstPerson(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestStripReplyPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"reply, I'm on my way", "I'm on my way"},
		{"respond sounds good", "sounds good"},
		{"answer yes I can make it", "yes I can make it"},
		{"no keyword here", "no keyword here"},
	}

	for _, c := range cases {
		if got := StripReplyPrefix(c.in); got != c.want {
			t.Errorf("StripReplyPrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	// Message body stays untouched beyond the prefix.
	if got := StripReplyPrefix("reply tell me more later"); got != "tell me more later" {
		t.Errorf("body altered: %q", got)
	}
}

func TestStripFollowUpPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"also remind him about the meeting", "remind him about the meeting"},
		{"and also bring snacks", "bring snacks"},
		{"plus, the door is locked", "the door is locked"},
		{"additionally the budget changed", "the budget changed"},
		{"nothing to strip", "nothing to strip"},
	}

	for _, c := range cases {
		if got := StripFollowUpPrefix(c.in); got != c.want {
			t.Errorf("StripFollowUpPrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
