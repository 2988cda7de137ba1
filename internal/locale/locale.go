// Package locale negotiates the response language and translates user-facing messages.
package locale

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	PortugueseBR = language.BrazilianPortuguese
	EnglishUS    = language.AmericanEnglish
	Spanish      = language.Spanish

	Supported = []language.Tag{PortugueseBR, EnglishUS, Spanish}
	matcher   = language.NewMatcher(Supported)
)

// Match picks the best supported tag for the given preferences, in priority order.
// Each preference may be a single tag or an Accept-Language header.
func Match(def language.Tag, prefs ...string) language.Tag {
	for _, p := range prefs {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf != language.No {
			return Supported[idx]
		}
	}
	return def
}

// Parse returns the supported tag closest to s, or def.
func Parse(s string, def language.Tag) language.Tag { return Match(def, s) }

type ctxKey struct{}

func With(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

func FromContext(ctx context.Context) language.Tag {
	if t, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return t
	}
	return PortugueseBR
}

// Middleware stores the Accept-Language match in the request context. Authenticated
// routes later replace it with the user's saved locale.
func Middleware(def language.Tag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := Match(def, r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(With(r.Context(), tag)))
		})
	}
}

// T translates key into the request language.
func T(ctx context.Context, key string, args ...any) string {
	return message.NewPrinter(FromContext(ctx), message.Catalog(cat)).Sprintf(key, args...)
}

// WriteError writes {"detail": <translated key>} with the given status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": T(r.Context(), key)})
}
