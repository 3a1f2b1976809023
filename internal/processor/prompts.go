package processor

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// 所有模板使用 Go text/template 语法，变量名与 Format 时传入的 map 键一致

const resumeParserSystem = `You are a resume parser. Extract structured data from the resume text supplied by the user.
Respond with a single JSON object and nothing else: no prose, no explanation, no markdown before or after the JSON.`

const resumeParserUser = `Return a JSON object with exactly these keys:
- "name": string
- "email": string
- "phone": string
- "education": list of objects {"degree", "institution", "year"}
- "work_experience": list of objects {"role", "company", "duration", "description"}
- "skills": list of strings (technical and soft skills)
- "certifications": list of strings, empty list if none
- "projects": list of objects {"name", "description"}
- "links": list of strings (LinkedIn, GitHub, portfolio, etc.)

Use an empty string or empty list for anything that is not present in the resume.

Resume:
{{.resume_text}}`

const fitAnalyzerSystem = `You are an expert HR recruiter. Analyze the resume against the job description.
Return a single, valid JSON object and nothing else.`

const fitAnalyzerUser = `Return a JSON object with the following keys:
"strengths": a list of strings highlighting the candidate's strong points.
"improvements": a list of strings for areas of improvement.
"matching_qualifications": a single string summarizing the matching qualifications.
"missing_requirements": a single string summarizing any missing requirements.
"score": an integer score from 0 to 100 representing the match.
"final_assessment": a single string with your final recommendation.

**Job Description:**
{{.job_description}}

**Relevant Resume Content:**
{{.context}}`

const suggestionSystem = `You are a professional resume reviewer.`

const suggestionUser = `Here is a candidate's resume content:
----
{{.resume_text}}
----

Give **actionable, honest, and constructive feedback** to improve the resume in the following **6 categories**:

## 1. Formatting & Structure
- Comment on the overall layout, spacing, font usage, and alignment.
- Suggest structural improvements (e.g., consistent section headers, bullet spacing).

## 2. Grammar & Clarity
- Point out unclear or awkward phrases.
- Recommend grammar or punctuation fixes and rewording for better readability.

## 3. Action Verbs & Metrics
- Suggest stronger verbs or quantifiable metrics where applicable.
- Highlight areas that lack impact.

## 4. ATS Keyword Optimization
- Identify keywords missing based on the likely job target.
- Recommend where and how to add them.

## 5. Missing Sections
- Suggest any essential resume sections that appear missing (e.g., Summary, Skills, Certifications, Projects).

## 6. Tone & Professionalism
- Evaluate the overall tone for professionalism and confidence.
- Point out any overly casual or weak phrasing.

---
- Use **headings** (##) and bullet points (-) for structure.
- Be **specific** about what to improve and how to do it.
- Keep the tone **professional but helpful**.
- **Do not** include any closing summary or extra comments.
- Return only the structured **Markdown content** as output.`

const gapSystem = `You are a career advisor who identifies concrete skill gaps between a candidate and a job.`

const gapUser = `Based on the analysis and job description below, list at most {{.max_gaps}} concrete, searchable skill gaps
(e.g. "AWS Lambda", "Docker", "system design interviews").
Return ONLY the skill gaps as plain text separated by a semicolon (;). No numbering, no explanation.

**Resume Analysis:**
Strengths: {{.strengths}}
Improvements: {{.improvements}}
Missing requirements: {{.missing_requirements}}
Final assessment: {{.final_assessment}}

**Job Description:**
{{.job_description}}`

const roadmapSystem = `You are an expert career coach and learning advisor.`

const roadmapUser = `Create a personalized roadmap that helps the candidate close the gaps below and reach a perfect match score.
Decide the number of steps yourself based on the gaps.

**Candidate Data:**
- Parsed Resume: {{.parsed_data}}
- Resume Analysis: {{.analysis}}
- Job Description: {{.job_description}}
- Current Score: {{.current_score}}/100
- Skill Gaps: {{.gaps}}

**Verified Learning Links (use ONLY these, never invent a URL):**
{{.links}}

For each step, use this **Markdown format**:

**[Step Number]. [Step Title]**
- **Why:** [Explain why this is important based on the analysis.]
- **How:** [Provide concrete actions and projects.]
- **Impact:** [Explain how this will improve their score and close a specific gap.]
- **Links:**
  - [Title](URL) – short one-line description

If no verified link fits a step, write "Links: none" for that step.`

func newTemplate(system, user string) prompt.ChatTemplate {
	return prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
}

var (
	resumeParserTemplate = newTemplate(resumeParserSystem, resumeParserUser)
	fitAnalyzerTemplate  = newTemplate(fitAnalyzerSystem, fitAnalyzerUser)
	suggestionTemplate   = newTemplate(suggestionSystem, suggestionUser)
	gapTemplate          = newTemplate(gapSystem, gapUser)
	roadmapTemplate      = newTemplate(roadmapSystem, roadmapUser)
)
