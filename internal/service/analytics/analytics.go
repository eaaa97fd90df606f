// Package analytics 领域分析事件，尽力写入，失败不影响主流程
package analytics

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/repository"
)

// Service 分析事件服务
type Service struct {
	store repository.AnalyticsStore
}

// NewService 创建分析事件服务
func NewService(store repository.AnalyticsStore) *Service {
	return &Service{store: store}
}

// Emit 写入一条事件；失败只记日志，不向上传播
func (s *Service) Emit(eventType, sessionID string, payload map[string]interface{}) {
	var data string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("analytics: failed to marshal payload for %s: %v", eventType, err)
		} else {
			data = string(b)
		}
	}

	event := &model.AnalyticsEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		EventType: eventType,
		Payload:   data,
	}
	if err := s.store.Create(event); err != nil {
		log.Printf("analytics: failed to record %s: %v", eventType, err)
	}
}
