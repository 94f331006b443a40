package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/pipeline"
	"github.com/TobiSchelling/brandmonitor/internal/progress"
)

// --- analyze command ---

var (
	analyzeName        string
	analyzeURL         string
	analyzeDescription string
	analyzePrompts     []string
	analyzeCompetitors []string
	analyzeWebSearch   bool
	analyzeJSON        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a brand visibility analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := pipeline.Input{
			Company: brand.CompanyInfo{
				Name:        analyzeName,
				URL:         analyzeURL,
				Description: analyzeDescription,
			},
			CustomPrompts:           analyzePrompts,
			UserSelectedCompetitors: analyzeCompetitors,
			UseWebSearch:            analyzeWebSearch,
		}
		if err := pipeline.Validate(in); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		orch := pipeline.New(cfg, buildDeps(db))
		stream := progress.NewStream(cfg.Analysis.EventBuffer)

		type outcome struct {
			res *brand.AnalysisResult
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			defer stream.Close()
			res, err := orch.Run(ctx, in, stream)
			done <- outcome{res, err}
		}()

		for e := range stream.Events() {
			printEvent(e)
		}
		out := <-done
		if out.err != nil {
			return out.err
		}

		if err := db.InsertAnalysis(out.res); err != nil {
			return fmt.Errorf("storing analysis: %w", err)
		}

		if analyzeJSON {
			return writeJSON(out.res)
		}
		printResult(out.res)
		fmt.Printf("\nSaved as %s. Run 'brandmonitor show %s' to view it again.\n", out.res.ID, out.res.ID)
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeName, "name", "", "Company name")
	f.StringVar(&analyzeURL, "url", "", "Company website")
	f.StringVar(&analyzeDescription, "description", "", "Company description, used when scraping fails")
	f.StringArrayVar(&analyzePrompts, "prompt", nil, "Custom prompt (repeatable)")
	f.StringArrayVar(&analyzeCompetitors, "competitor", nil, "Competitor name (repeatable)")
	f.BoolVar(&analyzeWebSearch, "web-search", false, "Discover additional competitors")
	f.BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	analyzeCmd.MarkFlagRequired("name")
	analyzeCmd.MarkFlagRequired("url")
}

// printEvent reports progress on stderr so stdout stays clean for --json.
func printEvent(e brand.Event) {
	switch d := e.Data.(type) {
	case brand.StatusData:
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", d.Progress, d.Message)
	case brand.ProviderResultData:
		detail := string(d.Status)
		if d.Status == brand.StatusOK {
			detail = fmt.Sprintf("ok, %dms", d.LatencyMs)
		}
		fmt.Fprintf(os.Stderr, "[%3d%%] %s / %s: %s (%d/%d)\n",
			d.Progress, d.ProviderID, d.PromptID, detail, d.Completed, d.Total)
	case brand.ErrorData:
		fmt.Fprintf(os.Stderr, "Error during %s: %s\n", e.Stage, d.Error)
	}
}

func printResult(r *brand.AnalysisResult) {
	fmt.Printf("\n%s (%s)\n", r.Company.Name, r.Company.NormalizedDomain)
	fmt.Printf("Visibility score: %.1f\n\n", r.VisibilityScore)
	fmt.Printf("  %-4s %-30s %8s %9s\n", "Rank", "Brand", "Score", "Mentions")
	for _, rk := range r.Rankings {
		marker := ""
		if rk.Subject.Kind == brand.SubjectCompany {
			marker = " *"
		}
		fmt.Printf("  %-4d %-30s %8.1f %9d\n", rk.Rank, truncate(rk.Subject.Name+marker, 30), rk.Score, rk.MentionCount)
	}

	failed := 0
	for _, resp := range r.ProviderResponses {
		if resp.Status != brand.StatusOK {
			failed++
		}
	}
	fmt.Printf("\n%d prompts x %d providers, %d responses failed\n", len(r.Prompts), len(r.Providers), failed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- history command ---

var (
	historyLimit   int
	historyDomain  string
	historySubject string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored analyses, or one brand's rank over time",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if historySubject != "" {
			if historyDomain == "" {
				return fmt.Errorf("--subject needs --domain")
			}
			ranks, err := db.GetRankingHistory(strings.ToLower(historyDomain), historySubject)
			if err != nil {
				return err
			}
			if len(ranks) == 0 {
				fmt.Printf("No rankings for %s on %s.\n", historySubject, historyDomain)
				return nil
			}
			for i, rk := range ranks {
				fmt.Printf("  %2d. rank %d, score %.1f, %d mentions\n", i+1, rk.Rank, rk.Score, rk.MentionCount)
			}
			return nil
		}

		list, err := db.ListAnalyses(historyLimit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No analyses yet. Run one with: brandmonitor analyze --name ... --url ...")
			return nil
		}
		for _, a := range list {
			fmt.Printf("  %s  %-24s %-24s %6.1f\n", a.GeneratedAt, truncate(a.CompanyName, 24), a.Domain, a.VisibilityScore)
			fmt.Printf("      %s\n", a.ID)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of analyses to list")
	historyCmd.Flags().StringVar(&historyDomain, "domain", "", "Company domain for --subject")
	historyCmd.Flags().StringVar(&historySubject, "subject", "", "Brand whose rank history to show")
}

// --- show command ---

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := db.GetAnalysis(args[0])
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("analysis %s not found", args[0])
		}
		if showJSON {
			return writeJSON(res)
		}
		printResult(res)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the result as JSON")
}
