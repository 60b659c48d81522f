package middleware

import (
	"context"
	"net/http"
	"strings"

	"studio/internal/i18n"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// countryHeaders are set by CDNs and proxies in front of the API.
var countryHeaders = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the caller's locale and country in the request context and
// echoes the locale as Content-Language.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale prefers an explicit X-Locale, then Accept-Language, then the
// country (Indonesia gets "id", anywhere else "en"), then fallback.
func detectLocale(r *http.Request, fallback, country string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		return i18n.Normalize(v)
	}
	if v := i18n.Match(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	switch {
	case strings.EqualFold(country, "ID"):
		return "id"
	case country != "":
		return "en"
	case fallback != "":
		return i18n.Normalize(fallback)
	}
	return "en"
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

func CountryFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CountryKey).(string)
	return v
}

// ResolveCountry returns a best-effort upper-case ISO country code.
// Proxy headers win over locale regions, which win over the GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if v := strings.TrimSpace(r.Header.Get(key)); v != "" {
			return strings.ToUpper(v)
		}
	}
	locale := r.Header.Get("X-Locale")
	accept := r.Header.Get("Accept-Language")
	for _, v := range []string{locale, accept} {
		if region := firstRegion(v); region != "" {
			return region
		}
	}
	// A bare "id" language tag carries no region but only Indonesia uses it here.
	if (strings.TrimSpace(locale) != "" && i18n.Normalize(locale) == "id") || i18n.Match(accept) == "id" {
		return "ID"
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}

func firstRegion(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		token := strings.TrimSpace(strings.Split(part, ";")[0])
		if token == "" {
			continue
		}
		return i18n.Region(token)
	}
	return ""
}
