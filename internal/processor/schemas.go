package processor

import (
	_ "embed"

	"resume-analyzer-go/internal/llmjson"
)

var (
	//go:embed schemas/profile.json
	profileSchemaJSON string
	//go:embed schemas/analysis.json
	analysisSchemaJSON string

	profileSchema  = llmjson.MustSchema("profile", profileSchemaJSON)
	analysisSchema = llmjson.MustSchema("analysis", analysisSchemaJSON)
)
