package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-analyzer-go/internal/bootstrap"
	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one resume against one job description",
	Long:  "Run the full pipeline (parse, fit analysis, suggestions, roadmap) once on local files and print the result.",
	RunE:  runAnalyze,
}

var (
	analyzeResume  string
	analyzeJDFile  string
	analyzeJDText  string
	analyzeJSONOut bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to resume file (.pdf, .docx, .txt)")
	analyzeCmd.Flags().StringVar(&analyzeJDFile, "jd", "", "Path to job description text file")
	analyzeCmd.Flags().StringVar(&analyzeJDText, "jd-text", "", "Job description text (alternative to --jd)")
	analyzeCmd.Flags().BoolVar(&analyzeJSONOut, "json", false, "Print the raw JSON response instead of Markdown")
	_ = analyzeCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzeJDFile != "" && analyzeJDText != "" {
		return errors.New("use either --jd or --jd-text, not both")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	// 命令行输出结果到 stdout，日志只保留警告以上
	if _, err := logger.Init(logger.Config{Level: "warn", Format: "pretty"}); err != nil {
		return err
	}

	content, err := os.ReadFile(analyzeResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	jd := analyzeJDText
	if analyzeJDFile != "" {
		data, err := os.ReadFile(analyzeJDFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jd = string(data)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Orchestrator.Analyze(ctx, &types.AnalyzeRequest{
		Filename:       filepath.Base(analyzeResume),
		Content:        content,
		JobDescription: jd,
	})
	if err != nil {
		return fmt.Errorf("%s (%s)", types.PublicMessage(err), types.ErrorKind(err))
	}

	out := cmd.OutOrStdout()
	if analyzeJSONOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeMarkdown(out, result)
}

func writeMarkdown(w io.Writer, r *types.AnalysisResult) error {
	var sb strings.Builder
	name := r.Parsed.Name
	if name == "" {
		name = "Candidate"
	}
	fmt.Fprintf(&sb, "# %s: match score %d/100\n\n", name, r.Score)

	if len(r.Analysis.Strengths) > 0 {
		sb.WriteString("## Strengths\n")
		for _, s := range r.Analysis.Strengths {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}
	if len(r.Analysis.Improvements) > 0 {
		sb.WriteString("## Improvements\n")
		for _, s := range r.Analysis.Improvements {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}
	if r.Analysis.FinalAssessment != "" {
		fmt.Fprintf(&sb, "## Final assessment\n%s\n\n", r.Analysis.FinalAssessment)
	}
	fmt.Fprintf(&sb, "# Suggestions\n\n%s\n\n# Roadmap\n\n%s\n", r.Suggestions, r.Roadmap)
	for _, warn := range r.Warnings {
		fmt.Fprintf(&sb, "\n> warning: %s\n", warn)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
