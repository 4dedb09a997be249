// Package translate turns French custom instructions into English before
// they reach a generation provider. Translation is best effort: any
// failure returns the original text so a generation is never blocked on a
// translation service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultLibreBaseURL    = "https://libretranslate.com"
	defaultMyMemoryBaseURL = "https://api.mymemory.translated.net"
	defaultTimeout         = 10 * time.Second
)

// englishOnly matches text that needs no translation.
var englishOnly = regexp.MustCompile(`^[a-zA-Z\s,.'"-]+$`)

type Options struct {
	LibreBaseURL    string
	MyMemoryBaseURL string
	HTTPClient      *http.Client
	Logger          *zerolog.Logger
}

// Translator chains LibreTranslate and MyMemory for FR to EN translation.
type Translator struct {
	libreBaseURL    string
	myMemoryBaseURL string
	httpc           *http.Client
	logger          zerolog.Logger
}

func New(opts Options) *Translator {
	libre := strings.TrimRight(opts.LibreBaseURL, "/")
	if libre == "" {
		libre = defaultLibreBaseURL
	}
	myMemory := strings.TrimRight(opts.MyMemoryBaseURL, "/")
	if myMemory == "" {
		myMemory = defaultMyMemoryBaseURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Translator{libreBaseURL: libre, myMemoryBaseURL: myMemory, httpc: httpc, logger: logger}
}

// ToEnglish translates text from French, returning the input unchanged
// when it already reads as English or when both services fail.
func (t *Translator) ToEnglish(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || englishOnly.MatchString(trimmed) {
		return text
	}

	if translated, err := t.libreTranslate(ctx, trimmed); err == nil {
		return translated
	} else {
		t.logger.Warn().Err(err).Msg("translate: libretranslate unavailable, trying mymemory")
	}

	if translated, err := t.myMemory(ctx, trimmed); err == nil {
		return translated
	} else {
		t.logger.Warn().Err(err).Msg("translate: mymemory failed, keeping original text")
	}
	return text
}

func (t *Translator) libreTranslate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"q":      text,
		"source": "fr",
		"target": "en",
		"format": "text",
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.libreBaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate: status %d", resp.StatusCode)
	}

	var decoded struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("libretranslate: decode: %w", err)
	}
	if decoded.TranslatedText == "" {
		return "", fmt.Errorf("libretranslate: empty translation")
	}
	return decoded.TranslatedText, nil
}

func (t *Translator) myMemory(ctx context.Context, text string) (string, error) {
	endpoint := fmt.Sprintf("%s/get?q=%s&langpair=fr|en", t.myMemoryBaseURL, url.QueryEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory: status %d", resp.StatusCode)
	}

	var decoded struct {
		ResponseStatus int `json:"responseStatus"`
		ResponseData   struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("mymemory: decode: %w", err)
	}
	if decoded.ResponseStatus != http.StatusOK || decoded.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("mymemory: status %d, empty translation", decoded.ResponseStatus)
	}
	return decoded.ResponseData.TranslatedText, nil
}
