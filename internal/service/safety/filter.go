// Package safety 提供用户输入的安全处理：
// 提示注入清洗、PII 脱敏、危机信号检测和情绪识别
package safety

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

// 分词/词内分隔符类：允许注入短语被空白或标点打断
const (
	wordSep  = `(?:[\W_]+)`
	innerSep = `(?:[\W_]*)`
)

// leetVariants 常见字符替换（leetspeak）变体表
var leetVariants = map[rune]string{
	'a': "a4@",
	'e': "e3",
	'i': "i1!",
	'o': "o0",
	's': "s5$",
	't': "t7",
}

func charPattern(ch rune) string {
	variants, ok := leetVariants[unicode.ToLower(ch)]
	if !ok {
		return regexp.QuoteMeta(string(ch))
	}
	var b strings.Builder
	for _, v := range variants {
		b.WriteString(regexp.QuoteMeta(string(v)))
	}
	return "[" + b.String() + "]"
}

// splitWord 单词内允许被分隔符打断
func splitWord(word string) string {
	parts := make([]string, 0, len(word))
	for _, ch := range word {
		parts = append(parts, charPattern(ch))
	}
	return strings.Join(parts, innerSep)
}

// splitPhrase 多词短语，词间允许任意分隔符
func splitPhrase(words ...string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, splitWord(w))
	}
	return strings.Join(parts, wordSep)
}

// prefixBoundary 前缀边界：前一个字符不能是单词字符，
// 避免 "pirate" 里的 "ignore" 尾串这类误伤
func prefixBoundary(pattern string) string {
	return `(?<!\w)` + pattern
}

func buildDangerousPatterns() []string {
	return []string{
		prefixBoundary(splitWord("ignore") + wordSep +
			"(?:" + splitWord("all") + wordSep + ")?" + splitWord("previous") +
			"(?:" + wordSep + splitWord("instructions") + ")?"),
		prefixBoundary(splitWord("disregard") + wordSep +
			"(?:" + splitWord("all") + wordSep + ")?"),
		prefixBoundary(splitWord("forget") + wordSep +
			"(?:" + splitWord("all") + wordSep + ")?"),
		prefixBoundary(splitWord("please") + wordSep + splitWord("ignore") +
			"(?:" + wordSep + splitWord("previous") +
			"(?:" + wordSep + splitWord("instructions") + ")?)?"),
		prefixBoundary(splitWord("override") + wordSep +
			"(?:" + splitWord("all") + wordSep + ")?" +
			"(?:" + splitWord("previous") + wordSep + ")?" + splitWord("instructions")),
		prefixBoundary(splitPhrase("now", "act", "as")),
		`^system:`,
		`^assistant:`,
		`\[INST\]`,
		`<\|im_start\|>`,
	}
}

// 注入模式需要 (?<!\w) 回溯断言，标准库 RE2 不支持，使用 regexp2
var dangerousRegexes = func() []*regexp2.Regexp {
	patterns := buildDangerousPatterns()
	regexes := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		regexes = append(regexes, regexp2.MustCompile(p, regexp2.IgnoreCase|regexp2.Multiline))
	}
	return regexes
}()

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRegex = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{2,4}\)?[\s.-]?)?\d{3,4}[\s.-]?\d{4}`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// normalizeContent Unicode NFKC 归一化，减少全角/兼容字符混淆
func normalizeContent(content string) string {
	return norm.NFKC.String(content)
}

// SanitizeUserInput 移除提示注入片段并压缩空白
func SanitizeUserInput(content string) string {
	sanitized := normalizeContent(content)
	for _, re := range dangerousRegexes {
		out, err := re.Replace(sanitized, "", -1, -1)
		if err != nil {
			continue
		}
		sanitized = out
	}
	sanitized = spaceRegex.ReplaceAllString(sanitized, " ")
	return strings.TrimSpace(sanitized)
}

// StripPII 移除邮箱和电话号码
func StripPII(content string) string {
	sanitized := emailRegex.ReplaceAllString(content, "")
	sanitized = phoneRegex.ReplaceAllString(sanitized, "")
	sanitized = spaceRegex.ReplaceAllString(sanitized, " ")
	return strings.TrimSpace(sanitized)
}
