package safety

import (
	"regexp"
	"strings"
)

// crisisKeywords 危机关键词（多语言）
var crisisKeywords = map[string][]string{
	"en": {
		"suicide",
		"kill myself",
		"end my life",
		"want to die",
		"self-harm",
		"hurt myself",
		"cut myself",
		"cutting myself",
		"no reason to live",
		"better off dead",
		"can't go on",
	},
	"es": {
		"suicidio",
		"matarme",
		"quitarme la vida",
		"quiero morir",
		"autolesión",
		"hacerme daño",
		"cortarme",
		"no tengo razón para vivir",
		"mejor muerto",
		"no puedo seguir",
	},
}

// CrisisResources 危机热线资源
var CrisisResources = map[string]string{
	"US": "988",         // Suicide & Crisis Lifeline
	"ES": "717 003 717", // Teléfono de la Esperanza
}

// CrisisMessage 危机响应的固定提示文案
const CrisisMessage = "We noticed you might be going through a difficult time. " +
	"Please reach out to a crisis helpline for immediate support."

// CrisisResult 危机检测结果
type CrisisResult struct {
	Blocked        bool              `json:"blocked"`
	Reason         string            `json:"reason,omitempty"`
	Resources      map[string]string `json:"resources,omitempty"`
	MatchedKeyword string            `json:"matched_keyword,omitempty"`
}

// 关键词用 word boundary 锚定，避免命中更长单词的子串
var crisisPatterns = func() []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, lang := range []string{"en", "es"} {
		for _, keyword := range crisisKeywords[lang] {
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
	}
	return patterns
}()

// DetectCrisis 检测用户消息中的危机信号
// 命中时会话不推进，直接返回危机资源
func DetectCrisis(content string) CrisisResult {
	lower := strings.ToLower(content)
	for _, pattern := range crisisPatterns {
		if match := pattern.FindString(lower); match != "" {
			return CrisisResult{
				Blocked:        true,
				Reason:         "CRISIS",
				Resources:      CrisisResources,
				MatchedKeyword: match,
			}
		}
	}
	return CrisisResult{Blocked: false}
}
