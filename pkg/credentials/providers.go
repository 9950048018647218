package credentials

import "strings"

var providers = []Provider{
	{Name: "openai", EnvVar: "OPENAI_API_KEY", Use: "oracle"},
	{Name: "anthropic", EnvVar: "ANTHROPIC_API_KEY", Use: "oracle"},
	{Name: "qdrant", EnvVar: "QDRANT_API_KEY", Use: "vector store", Optional: true},
}

// Lookup finds a provider by name.
func Lookup(name string) (Provider, bool) {
	for _, p := range providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// SupportedProviders lists the providers a key can be stored for.
func SupportedProviders() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name
	}
	return names
}

func IsSupportedProvider(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// EnvVarForProvider returns "" for unknown providers.
func EnvVarForProvider(name string) string {
	p, _ := Lookup(name)
	return p.EnvVar
}

// Mask keeps enough of a key to tell keys apart: its prefix up to the
// first dash and the last four characters.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	prefix := ""
	if i := strings.IndexByte(key, '-'); i > 0 && i < 4 {
		prefix = key[:i+1]
	}
	return prefix + "..." + key[len(key)-4:]
}
