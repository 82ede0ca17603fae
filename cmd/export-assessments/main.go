package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tailingsiq-risk/common/database"
	"tailingsiq-risk/common/logger"
	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/export"
	"tailingsiq-risk/internal/repository"
)

// export-assessments 导出设施评估历史为 Excel 文件
// 用法：export-assessments -facility <id> [-days 30] [-out assessments.xlsx]
func main() {
	facilityID := flag.String("facility", "", "facility ID to export")
	days := flag.Int("days", 30, "history window in days, ending now")
	outPath := flag.String("out", "assessments.xlsx", "output file path")
	flag.Parse()

	if *facilityID == "" {
		fmt.Fprintln(os.Stderr, "Usage: export-assessments -facility <id> [-days 30] [-out assessments.xlsx]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, "console", "export-assessments")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close(db)

	assessmentsRepo := repository.NewPostgresAssessmentsRepository(db, log)

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	assessments, err := assessmentsRepo.AssessmentHistory(ctx, *facilityID, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query assessment history: %v\n", err)
		os.Exit(1)
	}

	if len(assessments) == 0 {
		fmt.Printf("No assessments for facility %s in the last %d days\n", *facilityID, *days)
		return
	}

	data, err := export.GenerateAssessmentExport(assessments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate export: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d assessments to %s\n", len(assessments), *outPath)
}
