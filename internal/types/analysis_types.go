package types

// Education 教育经历
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// WorkExperience 工作经历
type WorkExperience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Project 项目经历
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CandidateProfile 由简历解析器生成的结构化候选人画像
// 所有字段均为尽力提取，模型缺失的字段保持空值
type CandidateProfile struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Education      []Education      `json:"education"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Skills         []string         `json:"skills"`
	Certifications []string         `json:"certifications"`
	Projects       []Project        `json:"projects"`
	Links          []string         `json:"links"`
}

// Normalize 将 nil 切片替换为空切片，保证序列化结果为 [] 而不是 null
func (p *CandidateProfile) Normalize() {
	if p.Education == nil {
		p.Education = []Education{}
	}
	if p.WorkExperience == nil {
		p.WorkExperience = []WorkExperience{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
	if p.Projects == nil {
		p.Projects = []Project{}
	}
	if p.Links == nil {
		p.Links = []string{}
	}
}

// FitAnalysis 简历与岗位描述的匹配分析结果
type FitAnalysis struct {
	Strengths              []string `json:"strengths"`
	Improvements           []string `json:"improvements"`
	MatchingQualifications string   `json:"matching_qualifications"`
	MissingRequirements    string   `json:"missing_requirements"`
	FinalAssessment        string   `json:"final_assessment"`

	// Score 始终位于 [0,100]，在响应中单独输出于顶层
	Score int `json:"-"`
	// Degraded 为 true 表示模型输出无法解码，Strengths 中只包含原始文本
	Degraded bool `json:"-"`
}

// Normalize 将 nil 切片替换为空切片
func (a *FitAnalysis) Normalize() {
	if a.Strengths == nil {
		a.Strengths = []string{}
	}
	if a.Improvements == nil {
		a.Improvements = []string{}
	}
}

// SearchHit 一条外部网页搜索结果
type SearchHit struct {
	Gap     string `json:"gap"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// AnalysisResult 单次请求的聚合响应，构造后不再修改
type AnalysisResult struct {
	Parsed      CandidateProfile `json:"parsed"`
	Analysis    FitAnalysis      `json:"analysis"`
	Score       int              `json:"score"`
	Suggestions string           `json:"suggestions"`
	Roadmap     string           `json:"roadmap"`
	// Warnings 记录降级的阶段，例如 "roadmap_generating:ModelUnavailable"
	Warnings []string `json:"warnings,omitempty"`
}

// AnalyzeRequest 一次分析请求的输入
type AnalyzeRequest struct {
	// RequestID 为空时由编排器生成
	RequestID      string
	Filename       string `validate:"required"`
	Content        []byte
	JobDescription string `validate:"required"`
}
