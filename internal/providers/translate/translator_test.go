package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestToEnglishSkipsEnglishText(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	translator := New(Options{LibreBaseURL: ts.URL, MyMemoryBaseURL: ts.URL, HTTPClient: ts.Client()})
	text := "add a grey sofa, keep the windows"
	if got := translator.ToEnglish(context.Background(), text); got != text {
		t.Fatalf("english text must pass through, got %q", got)
	}
	if hits.Load() != 0 {
		t.Fatalf("no network call expected for english text")
	}
}

func TestToEnglishUsesLibreTranslate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["source"] != "fr" || body["target"] != "en" {
			t.Errorf("unexpected langpair: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": "add a grey sofa"})
	}))
	defer ts.Close()

	translator := New(Options{LibreBaseURL: ts.URL, MyMemoryBaseURL: ts.URL, HTTPClient: ts.Client()})
	got := translator.ToEnglish(context.Background(), "ajoute un canapé gris")
	if got != "add a grey sofa" {
		t.Fatalf("unexpected translation: %q", got)
	}
}

func TestToEnglishFallsBackToMyMemory(t *testing.T) {
	var libreDown atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			libreDown.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if got := r.URL.Query().Get("langpair"); got != "fr|en" {
			t.Errorf("unexpected langpair: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"responseStatus": 200,
			"responseData":   map[string]string{"translatedText": "a bright kitchen"},
		})
	}))
	defer ts.Close()

	translator := New(Options{LibreBaseURL: ts.URL, MyMemoryBaseURL: ts.URL, HTTPClient: ts.Client()})
	got := translator.ToEnglish(context.Background(), "une cuisine lumineuse")
	if got != "a bright kitchen" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if libreDown.Load() != 1 {
		t.Fatalf("libretranslate should have been tried first")
	}
}

func TestToEnglishKeepsOriginalWhenBothFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	translator := New(Options{LibreBaseURL: ts.URL, MyMemoryBaseURL: ts.URL, HTTPClient: ts.Client()})
	text := "une chambre cosy avec des plantes"
	if got := translator.ToEnglish(context.Background(), text); got != text {
		t.Fatalf("original text must survive total failure, got %q", got)
	}
}
