package i18n

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pelletier/go-toml/v2"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "", want: LocaleZhCN},
		{raw: "en-US,en;q=0.9", want: LocaleEnUS},
		{raw: "en", want: LocaleEnUS},
		{raw: "zh-CN", want: LocaleZhCN},
		{raw: "zh-TW", want: LocaleZhCN},
		{raw: "fr-FR", want: LocaleZhCN},
		{raw: "not a tag;;", want: LocaleZhCN},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Fatalf("Normalize(%q) want %s got %s", tc.raw, tc.want, got)
		}
	}
}

func TestResolveLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ping?lang=en-US", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN")
	if got := ResolveLocale(c); got != LocaleEnUS {
		t.Fatalf("locale want %s got %s", LocaleEnUS, got)
	}
}

func TestTranslate(t *testing.T) {
	if got := T(LocaleEnUS, "error.insufficient_balance"); got != "Insufficient balance" {
		t.Fatalf("unexpected en-US message: %s", got)
	}
	if got := T(LocaleZhCN, "error.insufficient_balance"); got != "余额不足" {
		t.Fatalf("unexpected zh-CN message: %s", got)
	}
	if got := T(LocaleZhCN, "error.not_exists"); got != "error.not_exists" {
		t.Fatalf("missing key should fall back to key, got %s", got)
	}
	if got := Sprintf(LocaleEnUS, "error.password_min_length", 8); got != "Password must be at least 8 characters" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestLocaleFilesHaveSameKeys(t *testing.T) {
	load := func(name string) map[string]string {
		raw, err := localeFS.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s failed: %v", name, err)
		}
		var messages map[string]string
		if err := toml.NewDecoder(bytes.NewReader(raw)).Decode(&messages); err != nil {
			t.Fatalf("decode %s failed: %v", name, err)
		}
		return messages
	}
	zh := load("locales/zh-CN.toml")
	en := load("locales/en-US.toml")
	if len(zh) != len(en) {
		t.Fatalf("locale key count mismatch zh=%d en=%d", len(zh), len(en))
	}
	for key := range zh {
		if _, ok := en[key]; !ok {
			t.Fatalf("en-US missing key %s", key)
		}
	}
}
