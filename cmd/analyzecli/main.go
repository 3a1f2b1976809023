// Package main 提供简历分析的命令行入口：单次分析本地文件，或启动 HTTP 服务
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "analyzecli",
	Short:         "Resume Analyzer command line",
	Long:          "Analyze a resume against a job description once, or run the Resume Analyzer HTTP API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
