package match

import (
	"testing"

	"github.com/dmitrijs2005/keeperbot/internal/vault"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gmail-Login!", "gmaillogin"},
		{"gmail login", "gmaillogin"},
		{"  AWS (prod) #2 ", "awsprod2"},
		{"Café Crème", "cafecreme"},
		{"Почта.Яндекс", "почтаяндекс"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}

	assert.Equal(t, Normalize("Gmail-Login!"), Normalize("gmail login"))
}

func TestMatches_Fields(t *testing.T) {
	tests := []struct {
		name  string
		entry *vault.Entry
		query string
		want  bool
	}{
		{name: "title", entry: &vault.Entry{Title: "G-Mail"}, query: "mail", want: true},
		{name: "username", entry: &vault.Entry{Title: "x", Username: "mail.admin"}, query: "MAIL", want: true},
		{name: "notes", entry: &vault.Entry{Title: "x", Notes: "recovery for e-mail"}, query: "e mail", want: true},
		{name: "secret is not searched", entry: &vault.Entry{Title: "x", Secret: "mail"}, query: "mail", want: false},
		{name: "no hit", entry: &vault.Entry{Title: "bank", Username: "bob"}, query: "mail", want: false},
		{name: "punctuation-only query", entry: &vault.Entry{Title: "!!"}, query: "!!", want: false},
		{name: "nil entry", entry: nil, query: "mail", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.entry, Normalize(tt.query)))
		})
	}
}

func TestMatches_EmptyQueryNeverMatches(t *testing.T) {
	assert.False(t, Matches(&vault.Entry{Title: "anything"}, ""))
}

func TestSearch_PreservesOrder(t *testing.T) {
	a := &vault.Entry{Title: "Gmail work"}
	b := &vault.Entry{Title: "Bank"}
	c := &vault.Entry{Title: "gmail home"}

	got := Search([]*vault.Entry{a, b, c}, "GMAIL")
	assert.Equal(t, []*vault.Entry{a, c}, got)

	assert.Nil(t, Search([]*vault.Entry{a, b, c}, " ?! "))
	assert.Nil(t, Search([]*vault.Entry{a, b, c}, "zzz"))
}
