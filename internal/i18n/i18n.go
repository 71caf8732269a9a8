// Package i18n localizes the command line output.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we have a catalog for
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

// Message keys used by the CLI. English output is the key itself.
const (
	MsgServersWritten  = "Wrote %d server(s) to %s\n"
	MsgNoServers       = "No servers configured in %s\n"
	MsgNoChanges       = "No changes to %s\n"
	MsgServerReachable = "%-40s reachable\n"
	MsgServerDown      = "%-40s NOT reachable\n"
	MsgSELinuxMode     = "SELinux mode: %s\n"
	MsgSELinuxApplied  = "Applied SELinux mode %s in %s\n"
	MsgConfigSaved     = "Configuration saved to %s\n"
	MsgFailed          = "%s failed: %v\n"
)

func init() {
	de := language.German
	set := func(key, msg string) {
		_ = message.SetString(de, key, msg)
	}
	set(MsgServersWritten, "%d Server in %s geschrieben\n")
	set(MsgNoServers, "Keine Server in %s konfiguriert\n")
	set(MsgNoChanges, "Keine Änderungen an %s\n")
	set(MsgServerReachable, "%-40s erreichbar\n")
	set(MsgServerDown, "%-40s NICHT erreichbar\n")
	set(MsgSELinuxMode, "SELinux-Modus: %s\n")
	set(MsgSELinuxApplied, "SELinux-Modus %s in %s angewendet\n")
	set(MsgConfigSaved, "Konfiguration in %s gespeichert\n")
	set(MsgFailed, "%s fehlgeschlagen: %v\n")
}

// MatchLanguage returns the best supported language for a locale or
// Accept-Language style string.
func MatchLanguage(lang string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(lang)
	tag, _, _ := matcher.Match(tags...)
	return tag
}

// NewPrinter returns a message printer for the given language
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// NewCLIPrinter returns a printer for the system's locale (from env vars)
func NewCLIPrinter() *message.Printer {
	return message.NewPrinter(LocaleTag(os.Getenv))
}

// LocaleTag picks the language from LC_ALL, LC_MESSAGES or LANG, in that
// order, the way libc does.
func LocaleTag(getenv func(string) string) language.Tag {
	var lang string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if lang = getenv(key); lang != "" {
			break
		}
	}
	if lang == "" || lang == "C" || lang == "POSIX" {
		return DefaultLang
	}

	// en_US.UTF-8@euro -> en_US
	if i := strings.IndexAny(lang, ".@"); i != -1 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(lang, "_", "-")

	tag, err := language.Parse(lang)
	if err != nil {
		return MatchLanguage(lang)
	}
	tag, _, _ = matcher.Match(tag)
	return tag
}
