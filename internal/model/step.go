package model

// Step 引导流程步骤
type Step string

// 固定的五步引导流程，顺序推进，不允许跳步或回退
const (
	StepReceive Step = "receive"
	StepClarify Step = "clarify"
	StepReframe Step = "reframe"
	StepOptions Step = "options"
	StepCommit  Step = "commit"
)

// stepOrder 步骤线性顺序表
var stepOrder = map[Step]int{
	StepReceive: 0,
	StepClarify: 1,
	StepReframe: 2,
	StepOptions: 3,
	StepCommit:  4,
}

// nextStep 静态转换表，commit 为终态
var nextStep = map[Step]Step{
	StepReceive: StepClarify,
	StepClarify: StepReframe,
	StepReframe: StepOptions,
	StepOptions: StepCommit,
}

// AllSteps 按顺序返回全部步骤
func AllSteps() []Step {
	return []Step{StepReceive, StepClarify, StepReframe, StepOptions, StepCommit}
}

// IsValidStep 判断是否为已知步骤
func IsValidStep(s Step) bool {
	_, ok := stepOrder[s]
	return ok
}

// CanTransition 判断 from → to 是否为合法的单步前进
func CanTransition(from, to Step) bool {
	next, ok := nextStep[from]
	return ok && next == to
}

// NextStep 返回 from 的下一步；终态或未知步骤返回 false
func NextStep(from Step) (Step, bool) {
	next, ok := nextStep[from]
	return next, ok
}

// IsFinalStep 判断是否为终态步骤
func IsFinalStep(s Step) bool {
	return s == StepCommit
}
