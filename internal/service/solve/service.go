// Package solve 引导式问题解决会话的编排：
// 配额耦合的会话创建、五步流程推进和流式对话协议
package solve

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/repository"
	"github.com/solacore/solve-api/internal/service/analytics"
	"github.com/solacore/solve-api/internal/service/safety"
	"github.com/solacore/solve-api/internal/service/usage"
	"gorm.io/gorm"
)

// ChatStreamer 聊天模型的流式接口，测试时可替换为假实现
type ChatStreamer interface {
	Stream(ctx context.Context, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error)
}

// contextWindow 喂给模型的最近消息条数
const contextWindow = 10

// Service 会话编排服务
type Service struct {
	sessions  repository.SessionStore
	devices   repository.DeviceStore
	usage     *usage.Service
	analytics *analytics.Service
	streamer  ChatStreamer
}

// NewService 创建编排服务
func NewService(
	sessions repository.SessionStore,
	devices repository.DeviceStore,
	usageSvc *usage.Service,
	analyticsSvc *analytics.Service,
	streamer ChatStreamer,
) *Service {
	return &Service{
		sessions:  sessions,
		devices:   devices,
		usage:     usageSvc,
		analytics: analyticsSvc,
		streamer:  streamer,
	}
}

// CreateSession 创建会话
// 设备校验 → 订阅/周期推导 → 单事务内配额占用 + 会话落库；
// 配额判定和占用在同一条 UPDATE 完成，并发创建不会突破配额
func (s *Service) CreateSession(ctx context.Context, userID, deviceFingerprint, locale string) (*model.SolveSession, *usage.Snapshot, error) {
	device, err := s.devices.GetByFingerprint(userID, deviceFingerprint)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDeviceNotFound
		}
		return nil, nil, err
	}

	sub, err := s.usage.EnsureSubscription(userID)
	if err != nil {
		return nil, nil, err
	}
	periodStart := usage.PeriodStart(sub, time.Now())
	limit := s.usage.LimitForTier(sub.Tier)

	if locale == "" {
		locale = "en"
	}
	session := &model.SolveSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		DeviceID:    device.ID,
		Status:      model.SessionStatusActive,
		CurrentStep: model.StepReceive,
		Locale:      locale,
	}

	created, err := s.sessions.CreateWithQuota(session, periodStart, limit)
	if err != nil {
		return nil, nil, err
	}
	if !created {
		return nil, nil, ErrQuotaExceeded
	}

	if err := s.devices.TouchLastActive(device.ID); err != nil {
		log.Printf("failed to touch device %s: %v", device.ID, err)
	}
	s.analytics.Emit(model.EventSessionStarted, session.ID, map[string]interface{}{
		"tier": sub.Tier,
	})

	snapshot, err := s.usage.GetSnapshot(userID)
	if err != nil {
		return nil, nil, err
	}
	return session, snapshot, nil
}

// GetSession 获取会话，限定属主
func (s *Service) GetSession(userID, sessionID string) (*model.SolveSession, error) {
	session, err := s.sessions.GetByIDForUser(sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListSessions 列出用户的会话
func (s *Service) ListSessions(userID string, offset, limit int) ([]*model.SolveSession, error) {
	return s.sessions.ListByUserID(userID, offset, limit)
}

// ListMessages 获取会话完整记录
func (s *Service) ListMessages(userID, sessionID string) ([]*model.Message, error) {
	if _, err := s.GetSession(userID, sessionID); err != nil {
		return nil, err
	}
	return s.sessions.ListMessages(sessionID)
}

// UpdateSessionRequest 会话更新字段，nil 表示不更新
type UpdateSessionRequest struct {
	Status          *string
	CurrentStep     *model.Step
	FirstStepAction *string
	ReminderTime    *time.Time
}

// UpdateSession 更新会话字段，步骤变更经过状态机校验
func (s *Service) UpdateSession(userID, sessionID string, req *UpdateSessionRequest) (*model.SolveSession, error) {
	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		switch *req.Status {
		case model.SessionStatusActive, model.SessionStatusCompleted, model.SessionStatusAbandoned:
		default:
			return nil, ErrInvalidStatus
		}
		session.Status = *req.Status
		if *req.Status == model.SessionStatusCompleted {
			now := time.Now()
			session.CompletedAt = &now
		}
	}

	if req.CurrentStep != nil {
		if !model.IsValidStep(*req.CurrentStep) {
			return nil, ErrInvalidStep
		}
		if !model.CanTransition(session.CurrentStep, *req.CurrentStep) {
			return nil, ErrInvalidStepTransition
		}
		session.CurrentStep = *req.CurrentStep
	}

	if req.FirstStepAction != nil {
		session.FirstStepAction = *req.FirstStepAction
	}

	if req.ReminderTime != nil {
		session.ReminderTime = req.ReminderTime
		session.ReminderSent = false
	}

	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

// TurnRequest 单轮对话请求
// Step 是客户端声明的当前步骤，必须与服务端一致
type TurnRequest struct {
	Content string
	Step    model.Step
}

// StreamTurn 处理一轮对话，返回流式事件通道
//
// 同步阶段（返回前）：属主/状态/步骤声明校验、危机短路、
// 输入清洗、用户消息落库（独立事务，流式期间不占连接）。
// 异步阶段（通道上）：token 转发、单事务收尾（AI 消息 + 步骤推进）、
// done/error 终止事件。
func (s *Service) StreamTurn(ctx context.Context, userID, sessionID string, req *TurnRequest) (<-chan StreamEvent, error) {
	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusActive {
		return nil, ErrSessionNotActive
	}
	if req.Step != session.CurrentStep {
		return nil, ErrStepMismatch
	}

	// 危机检测走原始输入，命中即短路：不推进步骤，不调用模型
	if crisis := safety.DetectCrisis(req.Content); crisis.Blocked {
		s.analytics.Emit(model.EventCrisisDetected, session.ID, map[string]interface{}{
			"keyword": crisis.MatchedKeyword,
		})
		// 触发消息按原文留档，Excluded 保证它永不进入后续模型上下文
		if err := s.sessions.CreateMessage(&model.Message{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Role:      model.RoleUser,
			Content:   req.Content,
			Step:      session.CurrentStep,
			Excluded:  true,
		}); err != nil {
			log.Printf("failed to persist crisis message for session %s: %v", session.ID, err)
		}

		outCh := make(chan StreamEvent, 1)
		outCh <- crisisEvent(crisis)
		close(outCh)
		return outCh, nil
	}

	// 情绪识别也基于原始输入，清洗可能破坏关键词
	emotion := safety.DetectEmotion(req.Content)
	sanitized := safety.StripPII(safety.SanitizeUserInput(req.Content))

	history, err := s.prepareStepHistory(session)
	if err != nil {
		return nil, err
	}

	// 流式开始前先提交用户消息，生成期间不持有数据库事务。
	// 落库的是清洗后的内容，原文不进入持久存储
	userMsg := &model.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      model.RoleUser,
		Content:   sanitized,
		Step:      session.CurrentStep,
	}
	if err := s.sessions.RecordUserTurn(userMsg, history.ID); err != nil {
		return nil, err
	}

	messages, err := s.buildModelInput(session, sanitized, userMsg.ID)
	if err != nil {
		return nil, err
	}

	outCh := make(chan StreamEvent, 10)
	go s.runTurn(ctx, session, history, messages, emotion, outCh)
	return outCh, nil
}

// prepareStepHistory 获取当前步骤未关闭的历史行，缺失则补建
func (s *Service) prepareStepHistory(session *model.SolveSession) (*model.StepHistory, error) {
	history, err := s.sessions.GetActiveStepHistory(session.ID, session.CurrentStep)
	if err != nil {
		return nil, err
	}
	if history != nil {
		return history, nil
	}
	history = &model.StepHistory{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Step:      session.CurrentStep,
	}
	if err := s.sessions.CreateStepHistory(history); err != nil {
		return nil, err
	}
	return history, nil
}

// buildModelInput 组装模型输入：步骤提示词 + 最近上下文 + 本轮输入
// 历史消息已是清洗后的形式；Excluded 的留档消息（危机原文）跳过
func (s *Service) buildModelInput(session *model.SolveSession, sanitized, currentMsgID string) ([]*schema.Message, error) {
	recent, err := s.sessions.GetRecentMessages(session.ID, contextWindow)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{schema.SystemMessage(StepPrompt(session.CurrentStep))}
	for _, msg := range recent {
		if msg.ID == currentMsgID || msg.Excluded {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, schema.UserMessage(msg.Content))
		case model.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		}
	}
	messages = append(messages, schema.UserMessage(sanitized))
	return messages, nil
}

// runTurn 流式生成并收尾；任何失败只对客户端暴露 STREAM_ERROR
func (s *Service) runTurn(
	ctx context.Context,
	session *model.SolveSession,
	history *model.StepHistory,
	messages []*schema.Message,
	emotion safety.EmotionResult,
	outCh chan<- StreamEvent,
) {
	defer close(outCh)

	reader, err := s.streamer.Stream(ctx, messages)
	if err != nil {
		log.Printf("stream failed for session %s step %s: %v", session.ID, session.CurrentStep, err)
		outCh <- errorEvent()
		return
	}
	defer reader.Close()

	var answer string
	for {
		chunk, err := reader.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("stream recv failed for session %s step %s: %v", session.ID, session.CurrentStep, err)
			outCh <- errorEvent()
			return
		}
		if chunk.Content == "" {
			continue
		}
		answer += chunk.Content

		select {
		case outCh <- tokenEvent(chunk.Content):
		case <-ctx.Done():
			return
		}
	}

	nextStep, err := s.finishTurn(session, history, answer)
	if err != nil {
		log.Printf("failed to complete turn for session %s: %v", session.ID, err)
		outCh <- errorEvent()
		return
	}

	select {
	case outCh <- doneEvent(string(nextStep), emotion):
	case <-ctx.Done():
	}
}

// finishTurn 单事务保存 AI 回复并推进步骤，返回推进后的步骤
func (s *Service) finishTurn(session *model.SolveSession, history *model.StepHistory, answer string) (model.Step, error) {
	currentStep := session.CurrentStep
	assistantMsg := &model.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      model.RoleAssistant,
		Content:   answer,
		Step:      currentStep,
	}

	transition := &repository.TurnTransition{
		Session:          session,
		HistoryID:        history.ID,
		AssistantMessage: assistantMsg,
	}

	next, hasNext := model.NextStep(currentStep)
	if hasNext {
		transition.NextStep = next
	} else {
		transition.Final = true
	}

	if err := s.sessions.CompleteTurn(transition); err != nil {
		return "", err
	}

	if hasNext {
		s.analytics.Emit(model.EventStepCompleted, session.ID, map[string]interface{}{
			"from_step": string(currentStep),
			"to_step":   string(next),
		})
		return next, nil
	}

	s.analytics.Emit(model.EventStepCompleted, session.ID, map[string]interface{}{
		"step": string(currentStep),
	})
	s.analytics.Emit(model.EventSessionCompleted, session.ID, map[string]interface{}{
		"final_step": string(currentStep),
	})
	return currentStep, nil
}
