package i18n

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"

	DefaultLocale = LocaleZhCN
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	bundleErr  error

	supported = []language.Tag{language.SimplifiedChinese, language.AmericanEnglish}
	matcher   = language.NewMatcher(supported)
)

func loadBundle() (*goi18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.SimplifiedChinese)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		for _, file := range []string{"locales/zh-CN.toml", "locales/en-US.toml"} {
			if _, err := b.LoadMessageFileFS(localeFS, file); err != nil {
				bundleErr = fmt.Errorf("load locale %s failed: %w", file, err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Normalize 归一化语言标识
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	if supported[index] == language.AmericanEnglish {
		return LocaleEnUS
	}
	return LocaleZhCN
}

// ResolveLocale 从请求中解析语言，优先 ?lang= 参数，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	return Normalize(c.GetHeader("Accept-Language"))
}

// T 翻译消息键，缺失时返回键本身
func T(locale, key string) string {
	return translate(locale, key, nil)
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	msg := translate(locale, key, nil)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// TData 使用模板数据翻译消息
func TData(locale, key string, data map[string]interface{}) string {
	return translate(locale, key, data)
}

func translate(locale, key string, data map[string]interface{}) string {
	b, err := loadBundle()
	if err != nil || b == nil {
		return key
	}
	localizer := goi18n.NewLocalizer(b, Normalize(locale))
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return key
	}
	return msg
}
