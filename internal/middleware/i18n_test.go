package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func localeFor(t *testing.T, configure func(r *http.Request), lookup CountryLookup) (string, string) {
	t.Helper()
	var locale, country string
	handler := I18N("fr", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if configure != nil {
		configure(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return locale, country
}

func TestI18NXLocaleHeaderWins(t *testing.T) {
	locale, _ := localeFor(t, func(r *http.Request) {
		r.Header.Set("X-Locale", "fr-CA")
		r.Header.Set("Accept-Language", "en-US")
	}, nil)
	if locale != "fr" {
		t.Fatalf("X-Locale must take precedence, got %s", locale)
	}
}

func TestI18NAcceptLanguageVariants(t *testing.T) {
	cases := map[string]string{
		"fr":                "fr",
		"fr-CA":             "fr",
		"en-GB,en;q=0.9":    "en",
		"fr-FR,fr;q=0.9,en": "fr",
	}
	for header, want := range cases {
		locale, _ := localeFor(t, func(r *http.Request) {
			r.Header.Set("Accept-Language", header)
		}, nil)
		if locale != want {
			t.Errorf("header %q: got %s, want %s", header, locale, want)
		}
	}
}

func TestI18NDefaultsToFrench(t *testing.T) {
	locale, _ := localeFor(t, nil, nil)
	if locale != "fr" {
		t.Fatalf("expected fr default, got %s", locale)
	}
}

func TestI18NCountryFromGeoIP(t *testing.T) {
	lookup := func(ip string) (string, error) { return "fr", nil }
	locale, country := localeFor(t, func(r *http.Request) {
		r.RemoteAddr = "203.0.113.10:443"
	}, lookup)
	if country != "FR" {
		t.Fatalf("expected FR country, got %s", country)
	}
	if locale != "fr" {
		t.Fatalf("FR country must imply fr locale, got %s", locale)
	}
}

func TestI18NCountryHeaderHint(t *testing.T) {
	_, country := localeFor(t, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "be")
	}, nil)
	if country != "BE" {
		t.Fatalf("expected BE, got %s", country)
	}
}

func TestClientIPForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("unexpected client ip: %s", got)
	}
}
