package domain

import (
	"strings"
	"testing"
)

func TestDeriveTitleCollapsesWhitespace(t *testing.T) {
	got := DeriveTitle("  Prepare   a\tpitch \n for Acme  ", 40)
	if got != "Prepare a pitch for Acme" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestDeriveTitleShortTextUntouched(t *testing.T) {
	got := DeriveTitle("Prepare a pitch for Acme Corp", 40)
	if got != "Prepare a pitch for Acme Corp" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	long := strings.Repeat("a", 60)
	got := DeriveTitle(long, 40)
	if got != strings.Repeat("a", 40)+"…" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestDeriveTitleCountsRunes(t *testing.T) {
	long := strings.Repeat("é", 45)
	got := DeriveTitle(long, 40)
	if got != strings.Repeat("é", 40)+"…" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestCloneDoesNotAliasMessages(t *testing.T) {
	s := &Session{
		SessionID: "s1",
		Title:     TitleSentinel,
		Messages:  []Message{{Role: RoleUser, Text: "hello"}},
	}
	c := s.Clone()
	c.Messages[0].Text = "changed"
	if s.Messages[0].Text != "hello" {
		t.Fatalf("clone aliased messages slice")
	}
}
