package asset

// Domain is the knowledge domain of a memory asset.
type Domain string

// Domains of the Awareness taxonomy.
const (
	DomainBlockchainSecurity        Domain = "blockchain_security"
	DomainSmartContractDevelopment  Domain = "smart_contract_development"
	DomainDeFiProtocols             Domain = "defi_protocols"
	DomainMachineLearning           Domain = "machine_learning"
	DomainNaturalLanguageProcessing Domain = "natural_language_processing"
	DomainComputerVision            Domain = "computer_vision"
	DomainCodeGeneration            Domain = "code_generation"
	DomainCodeReview                Domain = "code_review"
	DomainLegalAnalysis             Domain = "legal_analysis"
	DomainMedicalReasoning          Domain = "medical_reasoning"
	DomainScientificResearch        Domain = "scientific_research"
	DomainCreativeWriting           Domain = "creative_writing"
	DomainGeneralReasoning          Domain = "general_reasoning"
	DomainMathematics               Domain = "mathematics"
	DomainDataAnalysis              Domain = "data_analysis"
)

var domains = []Domain{
	DomainBlockchainSecurity,
	DomainSmartContractDevelopment,
	DomainDeFiProtocols,
	DomainMachineLearning,
	DomainNaturalLanguageProcessing,
	DomainComputerVision,
	DomainCodeGeneration,
	DomainCodeReview,
	DomainLegalAnalysis,
	DomainMedicalReasoning,
	DomainScientificResearch,
	DomainCreativeWriting,
	DomainGeneralReasoning,
	DomainMathematics,
	DomainDataAnalysis,
}

// TaskType is the kind of task a memory asset helps with.
type TaskType string

// Task types of the Awareness taxonomy.
const (
	TaskReasoningAndAnalysis TaskType = "reasoning_and_analysis"
	TaskCodeGeneration       TaskType = "code_generation"
	TaskCodeReview           TaskType = "code_review"
	TaskClassification       TaskType = "classification"
	TaskSummarization        TaskType = "summarization"
	TaskTranslation          TaskType = "translation"
	TaskQuestionAnswering    TaskType = "question_answering"
	TaskCreativeGeneration   TaskType = "creative_generation"
	TaskDataExtraction       TaskType = "data_extraction"
	TaskPlanningAndExecution TaskType = "planning_and_execution"
)

var taskTypes = []TaskType{
	TaskReasoningAndAnalysis,
	TaskCodeGeneration,
	TaskCodeReview,
	TaskClassification,
	TaskSummarization,
	TaskTranslation,
	TaskQuestionAnswering,
	TaskCreativeGeneration,
	TaskDataExtraction,
	TaskPlanningAndExecution,
}

// Domains returns the fixed domain enumeration in declaration order.
func Domains() []Domain {
	return append([]Domain(nil), domains...)
}

// TaskTypes returns the fixed task type enumeration in declaration order.
func TaskTypes() []TaskType {
	return append([]TaskType(nil), taskTypes...)
}

// IsDomain reports whether s names a known domain.
func IsDomain(s string) bool {
	for _, d := range domains {
		if string(d) == s {
			return true
		}
	}
	return false
}

// IsTaskType reports whether s names a known task type.
func IsTaskType(s string) bool {
	for _, t := range taskTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// WMatrixVersion identifies the alignment matrix a latent was projected with.
type WMatrixVersion string

const (
	WMatrixV1Standard   WMatrixVersion = "v1.0-standard"
	WMatrixV11Optimized WMatrixVersion = "v1.1-optimized"
	WMatrixV2Hybrid     WMatrixVersion = "v2.0-hybrid"
)

// CompressionType is the encoding applied to the latent payload.
type CompressionType string

const (
	CompressionNone       CompressionType = "none"
	CompressionQuantized8 CompressionType = "quantized-8bit"
	CompressionQuantized4 CompressionType = "quantized-4bit"
	CompressionSparse     CompressionType = "sparse"
)

// SubscriptionTier gates access to a paid asset.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierBasic      SubscriptionTier = "basic"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// knownModels is the catalogue of model origins the network recognises.
var knownModels = map[string]struct{}{
	// OpenAI
	"gpt-3.5-turbo": {}, "gpt-4": {}, "gpt-4-turbo": {}, "gpt-4o": {}, "o1": {}, "o1-mini": {},
	// Anthropic
	"claude-3-opus": {}, "claude-3-sonnet": {}, "claude-3-haiku": {}, "claude-3.5-sonnet": {},
	// Meta
	"llama-2-7b": {}, "llama-2-13b": {}, "llama-2-70b": {}, "llama-3-8b": {}, "llama-3-70b": {},
	"llama-3.1-8b": {}, "llama-3.1-70b": {}, "llama-3.1-405b": {},
	// Google
	"gemini-pro": {}, "gemini-ultra": {}, "gemini-1.5-pro": {}, "gemini-1.5-flash": {},
	// Mistral
	"mistral-7b": {}, "mixtral-8x7b": {}, "mixtral-8x22b": {}, "mistral-large": {},
	// Qwen
	"qwen-7b": {}, "qwen-14b": {}, "qwen-72b": {}, "qwen-2-7b": {}, "qwen-2-72b": {},
	"qwen-2.5-7b": {}, "qwen-2.5-72b": {},
	// DeepSeek
	"deepseek-7b": {}, "deepseek-67b": {}, "deepseek-coder-7b": {}, "deepseek-coder-33b": {},
	"deepseek-v2": {}, "deepseek-v2.5": {}, "deepseek-v3": {},
	// Yi
	"yi-6b": {}, "yi-34b": {}, "yi-1.5-9b": {}, "yi-1.5-34b": {},
	// Baichuan
	"baichuan-7b": {}, "baichuan-13b": {}, "baichuan2-7b": {}, "baichuan2-13b": {},
	// ChatGLM
	"chatglm-6b": {}, "chatglm2-6b": {}, "chatglm3-6b": {}, "glm-4": {},
	// InternLM
	"internlm-7b": {}, "internlm-20b": {}, "internlm2-7b": {}, "internlm2-20b": {},
	// Microsoft
	"phi-2": {}, "phi-3-mini": {}, "phi-3-small": {}, "phi-3-medium": {},
	// Cohere
	"command-r": {}, "command-r-plus": {},
	// xAI
	"grok-1": {}, "grok-2": {},
}

// IsKnownModel reports whether model is in the recognised catalogue.
// Validation does not require it; unknown origins are accepted.
func IsKnownModel(model string) bool {
	_, ok := knownModels[model]
	return ok
}
