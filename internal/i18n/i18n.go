// Package i18n registers the user-facing strings in zh-TW and en and resolves
// the language for a request.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
)

// Message keys. The English source text doubles as the key.
const (
	KeyGroupLabel       = "Group %d"
	KeyCSVGroupHeader   = "group"
	KeyCSVNameHeader    = "name"
	KeyEmptyInput       = "Please enter or upload a participant list first"
	KeyEmptyPool        = "Every participant has already won"
	KeyEmptyRegistry    = "Add participants on the import tab first"
	KeyInvalidGroupSize = "Group size must be a whole number of at least 2"
	KeyDrawInProgress   = "A draw is already running"
	KeyGroupingBusy     = "Grouping is already running"
	KeyEventBusy        = "Please wait for the current draw or grouping to finish"
	KeyConfirmClear     = "Confirm clearing the participant list"
	KeyConfirmResetDraw = "Confirm resetting the draw and the winners list"
	KeyEventNotFound    = "Event not found"
	KeyUnsupportedFile  = "Only .csv and .txt text files are supported"
	KeyFileTooLarge     = "The uploaded file is too large"
	KeyTooManyEntries   = "The participant list is too long"
	KeyInvalidRequest   = "Invalid request"
	KeyInternalError    = "Internal server error"
	KeyEventClosed      = "This event has been closed"
	KeyNoGroups         = "Run a grouping before exporting"
)

var (
	// TraditionalChinese is the default language.
	TraditionalChinese = language.MustParse("zh-TW")
	// English is the secondary language.
	English = language.English
)

var supported = []language.Tag{TraditionalChinese, English}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	TraditionalChinese: {
		KeyGroupLabel:       "第 %d 組",
		KeyCSVGroupHeader:   "組別",
		KeyCSVNameHeader:    "姓名",
		KeyEmptyInput:       "請先輸入或上傳名單",
		KeyEmptyPool:        "所有參與者都已中獎！",
		KeyEmptyRegistry:    "請先在「名單導入」頁面加入參與者",
		KeyInvalidGroupSize: "每組人數必須是大於或等於 2 的整數",
		KeyDrawInProgress:   "開獎中，請稍候",
		KeyGroupingBusy:     "分組中，請稍候",
		KeyEventBusy:        "請等待目前的抽籤或分組完成",
		KeyConfirmClear:     "確定要清空名單嗎？",
		KeyConfirmResetDraw: "確定要重設抽籤狀態與中獎名單嗎？",
		KeyEventNotFound:    "找不到此活動",
		KeyUnsupportedFile:  "僅支援 .csv 與 .txt 文字檔",
		KeyFileTooLarge:     "上傳的檔案過大",
		KeyTooManyEntries:   "名單人數超過上限",
		KeyInvalidRequest:   "請求格式錯誤",
		KeyInternalError:    "伺服器內部錯誤",
		KeyEventClosed:      "此活動已關閉",
		KeyNoGroups:         "請先進行分組再匯出",
	},
}

func init() {
	for tag, messages := range translations {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Parse returns the supported tag closest to value.
func Parse(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// MustParse is Parse with the default language as fallback.
func MustParse(value string) language.Tag {
	if tag, ok := Parse(value); ok {
		return tag
	}
	return TraditionalChinese
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Resolve determines the language for the request: the lang query parameter
// first, then Accept-Language, then fallback.
func Resolve(r *http.Request, fallback language.Tag) language.Tag {
	if r == nil {
		return fallback
	}

	if value := r.URL.Query().Get(LangParam); value != "" {
		if tag, ok := Parse(value); ok {
			return tag
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if _, idx, conf := matcher.Match(tags...); conf != language.No {
				return supported[idx]
			}
		}
	}

	return fallback
}

// GroupLabel returns a label function that renders localized group names.
func GroupLabel(p *message.Printer) func(id int) string {
	return func(id int) string {
		return p.Sprintf(KeyGroupLabel, id)
	}
}
