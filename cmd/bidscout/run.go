package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bidscout/bidscout/internal/artifacts"
	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/config"
	"github.com/bidscout/bidscout/internal/db"
	"github.com/bidscout/bidscout/internal/document"
	"github.com/bidscout/bidscout/internal/research"
	"github.com/bidscout/bidscout/internal/search"
	"github.com/bidscout/bidscout/internal/validate"
	"github.com/bidscout/bidscout/internal/workflow"
	"github.com/bidscout/bidscout/internal/writer"
)

func runCmd() *cobra.Command {
	var maxIters int
	var output string
	cmd := &cobra.Command{
		Use:          "run <rfp-file> <company>",
		Short:        "Research an RFP and draft a bid outline",
		Long:         "Run the research, validate, refine, write loop for one RFP and company. Artifacts land under the data directory; --output additionally copies the unified bid document.",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rfpPath, company := args[0], strings.TrimSpace(args[1])
			if err := validateRunInputs(rfpPath, company); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if maxIters >= 0 {
				cfg.Budgets.MaxIterations = maxIters
			}

			handle, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			engine, err := buildEngine(cfg, db.NewStore(handle))
			if err != nil {
				return err
			}

			state, err := engine.Run(cmd.Context(), rfpPath, company)
			if err != nil {
				return err
			}

			fmt.Printf("run %s finished after %d refinement iteration(s)\n", state.RunID, state.Iteration)
			fmt.Printf("coverage score: %.2f\n", state.CoverageScore())
			fmt.Printf("artifacts: %s\n", filepath.Join(runsDir(cfg), state.RunID))

			if state.Failed() {
				for _, msg := range state.Errors {
					fmt.Fprintln(os.Stderr, msg)
				}
				return fmt.Errorf("run %s failed", state.RunID)
			}

			if state.Report != nil && !state.Report.IsSufficient {
				log.Warn().Msg("iteration budget reached before coverage was sufficient; outline was written from partial research")
			}
			if output != "" {
				if err := copyBidDocument(runsDir(cfg), state.RunID, output); err != nil {
					return err
				}
				fmt.Printf("bid document: %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxIters, "max-iters", -1, "override budgets.max_iterations (-1 keeps the configured value)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "copy the unified bid document to this path")
	return cmd
}

// validateRunInputs rejects bad inputs before any service is touched.
func validateRunInputs(rfpPath, company string) error {
	if strings.TrimSpace(company) == "" {
		return fmt.Errorf("company name is required")
	}
	info, err := os.Stat(rfpPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("rfp file not found: %s", rfpPath)
		}
		return fmt.Errorf("stat rfp file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("rfp path is a directory: %s", rfpPath)
	}
	switch strings.ToLower(filepath.Ext(rfpPath)) {
	case ".pdf", ".docx", ".txt", ".md":
		return nil
	default:
		return fmt.Errorf("unsupported rfp format %q (want .pdf, .docx, .txt, or .md)", filepath.Ext(rfpPath))
	}
}

// buildEngine wires the stages from configuration. A missing completion
// or search key degrades the respective service to nil and the stages
// fall back; a missing OCR key only matters for PDF inputs.
func buildEngine(cfg config.Config, recorder workflow.Recorder) (*workflow.Engine, error) {
	completer, err := completion.New(completion.Config{
		Provider:  cfg.Completion.Provider,
		Model:     cfg.Completion.Model,
		BaseURL:   cfg.Completion.BaseURL,
		APIKeyEnv: cfg.Completion.APIKeyEnv,
		Timeout:   cfg.Completion.Timeout(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("completion service unavailable, deterministic fallbacks apply")
		completer = nil
	}

	searcher, err := search.New(search.Config{
		Provider:  cfg.Search.Provider,
		BaseURL:   cfg.Search.BaseURL,
		APIKeyEnv: cfg.Search.APIKeyEnv,
		Timeout:   cfg.Search.Timeout(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("search service unavailable, runs will gather no web evidence")
		searcher = nil
	}

	extractorOpts := []document.Option{document.WithPIIRedaction(cfg.Document.RedactPII)}
	if key := strings.TrimSpace(os.Getenv(cfg.Document.OCRAPIKeyEnv)); key != "" {
		ocr, ocrErr := document.NewOCRClient(cfg.Document.OCRBaseURL, key, 0)
		if ocrErr != nil {
			return nil, ocrErr
		}
		extractorOpts = append(extractorOpts, document.WithOCR(ocr))
	}

	agent := research.NewAgent(completer, searcher, cfg)
	return workflow.NewEngine(workflow.Options{
		Extractor:     document.NewFileExtractor(extractorOpts...),
		Researcher:    agent,
		Validator:     validate.New(completer, cfg.Thresholds.Coverage),
		Composer:      writer.New(completer),
		Store:         artifacts.NewStore(runsDir(cfg)),
		Recorder:      recorder,
		MaxIterations: cfg.Budgets.MaxIterations,
		EvidenceLimit: agent.EvidenceLimit(),
	}), nil
}

func copyBidDocument(baseDir, runID, dest string) error {
	src := filepath.Join(baseDir, runID, artifacts.BidDocFile)
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read bid document: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write bid document: %w", err)
	}
	return nil
}
