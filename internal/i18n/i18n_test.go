package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept   string
		expected language.Tag
	}{
		{"en-US,en;q=0.9", language.English},
		{"de-DE,de;q=0.9", language.German},
		{"fr-FR", language.English}, // Fallback
		{"", language.English},      // Empty
	}

	for _, tt := range tests {
		got := MatchLanguage(tt.accept)
		base, _ := got.Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "Accept: %s", tt.accept)
	}
}

func TestLocaleTag(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want language.Tag
	}{
		{"unset", map[string]string{}, language.English},
		{"posix", map[string]string{"LANG": "C"}, language.English},
		{"lang", map[string]string{"LANG": "de_DE.UTF-8"}, language.German},
		{"lc_all wins", map[string]string{"LC_ALL": "en_US.UTF-8", "LANG": "de_DE.UTF-8"}, language.English},
		{"lc_messages", map[string]string{"LC_MESSAGES": "de_AT@euro", "LANG": "en_GB"}, language.German},
		{"unsupported", map[string]string{"LANG": "cs_CZ.UTF-8"}, language.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocaleTag(func(k string) string { return tt.env[k] })
			base, _ := got.Base()
			exp, _ := tt.want.Base()
			assert.Equal(t, exp, base)
		})
	}
}

func TestCatalog(t *testing.T) {
	en := NewPrinter(language.English)
	assert.Equal(t, "Wrote 2 server(s) to /etc/chrony.conf\n", en.Sprintf(MsgServersWritten, 2, "/etc/chrony.conf"))

	de := NewPrinter(language.German)
	assert.Equal(t, "2 Server in /etc/chrony.conf geschrieben\n", de.Sprintf(MsgServersWritten, 2, "/etc/chrony.conf"))
	assert.Equal(t, "SELinux-Modus: enforcing\n", de.Sprintf(MsgSELinuxMode, "enforcing"))
}
