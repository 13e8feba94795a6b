package config

import "reflect"

// Config sections, as named in the TOML file.
const (
	SectionCompletion    = "completion"
	SectionRealm         = "realm"
	SectionServer        = "server"
	SectionObservability = "observability"
	SectionWatch         = "watch"
)

// Changed lists the sections that differ between old and next.
func Changed(old, next *Config) []string {
	if old == nil || next == nil {
		return []string{SectionCompletion, SectionRealm, SectionServer, SectionObservability, SectionWatch}
	}
	sections := []struct {
		name      string
		old, next any
	}{
		{SectionCompletion, old.Completion, next.Completion},
		{SectionRealm, old.Realm, next.Realm},
		{SectionServer, old.Server, next.Server},
		{SectionObservability, old.Observability, next.Observability},
		{SectionWatch, old.Watch, next.Watch},
	}
	var out []string
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.next) {
			out = append(out, s.name)
		}
	}
	return out
}

// RestartRequired filters sections to those a running session cannot
// apply: the realm is built once, and the transport and exporters are
// wired at startup.
func RestartRequired(sections []string) []string {
	var out []string
	for _, s := range sections {
		switch s {
		case SectionRealm, SectionServer, SectionObservability, SectionWatch:
			out = append(out, s)
		}
	}
	return out
}
