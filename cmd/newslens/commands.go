package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/newslens/internal/feed"
	"github.com/dgallion1/newslens/internal/pipeline"
)

func newAnalyzeCommand(e *env) *cobra.Command {
	var (
		text, url, file string
		opts            pipeline.Options
		asJSON          bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect language, summarize, classify sentiment and translate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, v := range []string{text, url, file} {
				if v != "" {
					set++
				}
			}
			if set != 1 {
				return errors.New("exactly one of --text, --url or --file is required")
			}

			ctx := cmd.Context()
			a, err := e.build(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			input := text
			switch {
			case url != "":
				opts.Source = "url:" + url
				if input, err = a.Extractor.FromURL(ctx, url); err != nil {
					return err
				}
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				opts.Source = "upload:" + filepath.Base(file)
				if input, err = a.Extractor.FromUpload(ctx, filepath.Base(file), data); err != nil {
					return err
				}
			default:
				opts.Source = "text"
			}

			res, err := a.Orchestrator.Run(ctx, input, opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&text, "text", "", "text to analyze")
	f.StringVar(&url, "url", "", "article URL to fetch and analyze")
	f.StringVar(&file, "file", "", "document to analyze (pdf, docx, md, html, csv, txt)")
	f.StringVarP(&opts.Model, "model", "m", "", "model id (default from DEFAULT_MODEL)")
	f.StringVarP(&opts.TargetLang, "lang", "l", "en", "translation target language")
	f.IntVar(&opts.MaxChunkChars, "chunk", 0, "max chunk chars for summarization (800-10000)")
	f.BoolVar(&opts.Force, "force", false, "analyze even if identical input was analyzed before")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newSummarizeCommand(e *env) *cobra.Command {
	var (
		model string
		chunk int
	)
	cmd := &cobra.Command{
		Use:   "summarize [text]",
		Short: "Translate foreign text to English, then summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.build(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Orchestrator.SummarizeForeign(cmd.Context(), args[0], model, chunk)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model id")
	cmd.Flags().IntVar(&chunk, "chunk", 0, "max chunk chars")
	return cmd
}

func newTranslateCommand(e *env) *cobra.Command {
	var lang, model string
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate each argument independently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.build(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Orchestrator.TranslateBatch(cmd.Context(), args, lang, model)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for i, item := range items {
				if !item.OK() {
					failed++
					fmt.Fprintf(out, "[%d] error: %s\n", i+1, item.Error)
					continue
				}
				fmt.Fprintf(out, "[%d] %s\n", i+1, item.Text)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d translations failed", failed, len(items))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "to", "t", "en", "target language")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model id")
	return cmd
}

func newModelsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models, fastest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.build(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, m := range a.Catalog.Models(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func newHeadlinesCommand(e *env) *cobra.Command {
	var (
		limit  int
		ticker bool
	)
	cmd := &cobra.Command{
		Use:   "headlines",
		Short: "Show live headlines from the configured feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := feed.New(feed.Config{
				Feeds:        e.cfg.HeadlineFeeds,
				CacheTTL:     e.cfg.HeadlineCacheTTL,
				FetchTimeout: e.cfg.FetchTimeout,
			}, e.log)

			headlines := svc.Headlines(cmd.Context(), limit)
			out := cmd.OutOrStdout()
			if ticker {
				fmt.Fprintln(out, feed.Ticker(headlines, len(headlines)))
				return nil
			}
			for _, h := range headlines {
				fmt.Fprintf(out, "%-20s %s\n    %s\n", strings.TrimSpace(h.Source), h.Title, h.Link)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "maximum headlines")
	cmd.Flags().BoolVar(&ticker, "ticker", false, "print a single ticker line")
	return cmd
}
