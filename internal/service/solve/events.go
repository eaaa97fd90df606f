package solve

import (
	"encoding/json"

	"github.com/solacore/solve-api/internal/service/safety"
)

// 流式事件类型
const (
	EventToken  = "token"
	EventDone   = "done"
	EventError  = "error"
	EventCrisis = "crisis"
)

// StreamEvent 流式事件，Data 为 JSON 负载
// done / error / crisis 都是终止事件，发出后通道关闭
type StreamEvent struct {
	Type string
	Data string
}

func tokenEvent(content string) StreamEvent {
	data, _ := json.Marshal(map[string]string{"content": content})
	return StreamEvent{Type: EventToken, Data: string(data)}
}

func doneEvent(nextStep string, emotion safety.EmotionResult) StreamEvent {
	data, _ := json.Marshal(map[string]interface{}{
		"next_step":        nextStep,
		"emotion_detected": emotion.Emotion,
		"confidence":       emotion.Confidence,
	})
	return StreamEvent{Type: EventDone, Data: string(data)}
}

func errorEvent() StreamEvent {
	data, _ := json.Marshal(map[string]string{"error": "STREAM_ERROR"})
	return StreamEvent{Type: EventError, Data: string(data)}
}

func crisisEvent(result safety.CrisisResult) StreamEvent {
	data, _ := json.Marshal(map[string]interface{}{
		"blocked":   true,
		"reason":    result.Reason,
		"resources": result.Resources,
		"message":   safety.CrisisMessage,
	})
	return StreamEvent{Type: EventCrisis, Data: string(data)}
}
