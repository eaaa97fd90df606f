package safety

import (
	"math"
	"regexp"
	"strings"
)

// EmotionType 情绪类型
type EmotionType string

const (
	EmotionAnxious  EmotionType = "anxious"
	EmotionSad      EmotionType = "sad"
	EmotionCalm     EmotionType = "calm"
	EmotionConfused EmotionType = "confused"
	EmotionNeutral  EmotionType = "neutral"
)

// EmotionResult 情绪检测结果
type EmotionResult struct {
	Emotion    EmotionType `json:"emotion"`
	Confidence float64     `json:"confidence"`
}

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

func wp(pattern string, weight float64) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(`(?i)` + pattern), weight: weight}
}

// emotionKeywords 情绪关键词及权重（en/es/zh）
var emotionKeywords = map[EmotionType][]weightedPattern{
	EmotionAnxious: {
		wp(`\bworr(y|ied|ies|ying)\b`, 0.8),
		wp(`\bscar(ed|y)\b`, 0.9),
		wp(`\bnervous\b`, 0.8),
		wp(`\bpanic(k?ing|ked)?\b`, 0.95),
		wp(`\bstress(ed|ful)?\b`, 0.75),
		wp(`\banxi(ety|ous)\b`, 0.9),
		wp(`\boverwhelm(ed|ing)?\b`, 0.85),
		wp(`\bfreak(ing|ed)?\s*out\b`, 0.9),
		wp(`\bcan'?t\s+(breathe|calm\s+down)\b`, 0.95),
		wp(`\bpreocupad[oa]\b`, 0.8),
		wp(`\bnervios[oa]\b`, 0.8),
		wp(`\bansiedad\b`, 0.9),
		wp(`焦虑`, 0.85),
		wp(`担心`, 0.8),
		wp(`紧张`, 0.8),
	},
	EmotionSad: {
		wp(`\bsad\b`, 0.85),
		wp(`\bdepress(ed|ing|ion)?\b`, 0.95),
		wp(`\bhopeless\b`, 0.9),
		wp(`\bcry(ing)?\b`, 0.8),
		wp(`\blonely\b`, 0.85),
		wp(`\bgrief\b`, 0.9),
		wp(`\bloss\b`, 0.7),
		wp(`\bhurt(ing)?\b`, 0.75),
		wp(`\bheartbr(oken|eak)\b`, 0.9),
		wp(`\bmiserable\b`, 0.9),
		wp(`\btriste\b`, 0.85),
		wp(`\bdeprimid[oa]\b`, 0.9),
		wp(`难过`, 0.85),
		wp(`伤心`, 0.85),
		wp(`沮丧`, 0.9),
	},
	EmotionCalm: {
		wp(`\bpeace(ful)?\b`, 0.85),
		wp(`\brelax(ed|ing)?\b`, 0.8),
		wp(`\bcontent(ed)?\b`, 0.8),
		wp(`\bgrateful\b`, 0.85),
		wp(`\bhappy\b`, 0.75),
		wp(`\boptimistic\b`, 0.85),
		wp(`\bserene\b`, 0.9),
		wp(`\bthankful\b`, 0.8),
		wp(`\btranquil[oa]?\b`, 0.85),
		wp(`\bfeliz\b`, 0.75),
		wp(`平静`, 0.85),
		wp(`放松`, 0.8),
		wp(`快乐`, 0.75),
	},
	EmotionConfused: {
		wp(`\bconfus(ed|ing)\b`, 0.9),
		wp(`\bunsure\b`, 0.75),
		wp(`\blost\b`, 0.7),
		wp(`\bdon'?t\s+understand\b`, 0.85),
		wp(`\bunclear\b`, 0.8),
		wp(`\bpuzzl(ed|ing)\b`, 0.8),
		wp(`\bwhat\s+should\s+i\s+do\b`, 0.75),
		wp(`\bi\s+don'?t\s+know\b`, 0.7),
		wp(`\bconfundid[oa]\b`, 0.9),
		wp(`\bno\s+entiendo\b`, 0.85),
		wp(`困惑`, 0.9),
		wp(`不知道`, 0.7),
		wp(`迷茫`, 0.85),
	},
}

// minConfidenceThreshold 最低置信度阈值，低于此值视为 neutral
const minConfidenceThreshold = 0.3

// DetectEmotion 基于加权关键词识别文本情绪
// 置信度 = 权重平均值 × 多次匹配加成，上限 1.0
func DetectEmotion(text string) EmotionResult {
	if strings.TrimSpace(text) == "" {
		return EmotionResult{Emotion: EmotionNeutral, Confidence: 0.5}
	}

	lower := strings.ToLower(text)
	scores := make(map[EmotionType]float64)

	for emotion, patterns := range emotionKeywords {
		totalWeight := 0.0
		matchCount := 0
		for _, p := range patterns {
			matches := p.re.FindAllString(lower, -1)
			if len(matches) > 0 {
				matchCount += len(matches)
				totalWeight += p.weight * float64(len(matches))
			}
		}
		if matchCount > 0 {
			avgWeight := totalWeight / float64(matchCount)
			confidence := math.Min(avgWeight*(1+0.1*float64(matchCount-1)), 1.0)
			scores[emotion] = confidence
		}
	}

	if len(scores) == 0 {
		return EmotionResult{Emotion: EmotionNeutral, Confidence: 0.5}
	}

	best := EmotionNeutral
	bestConfidence := 0.0
	for emotion, confidence := range scores {
		if confidence > bestConfidence {
			best = emotion
			bestConfidence = confidence
		}
	}

	if bestConfidence < minConfidenceThreshold {
		return EmotionResult{Emotion: EmotionNeutral, Confidence: 0.5}
	}

	return EmotionResult{Emotion: best, Confidence: math.Round(bestConfidence*100) / 100}
}
