package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/billyribeiro-ux/build-ops/internal/analyzer"
	"github.com/billyribeiro-ux/build-ops/internal/bootstrap"
	"github.com/billyribeiro-ux/build-ops/internal/chunker"
	"github.com/billyribeiro-ux/build-ops/internal/extract"
	"github.com/billyribeiro-ux/build-ops/internal/plan"
	"github.com/billyribeiro-ux/build-ops/internal/shared/config"
	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

var wordsFlag = &cli.BoolFlag{
	Name:  "words",
	Usage: "Count tokens as whitespace separated words instead of cl100k_base",
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "buildops",
		Usage: "Import curriculum documents into structured learning programs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Logging environment (dev, production)",
				EnvVars: []string{"ENV"},
				Value:   "dev",
			},
		},
		Before: func(c *cli.Context) error {
			return telemetry.Init(c.String("env"))
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract text, sections and code blocks from documents",
				ArgsUsage: "FILE...",
				Action:    extractCommand,
			},
			{
				Name:      "chunk",
				Usage:     "Show how documents would be split for analysis",
				ArgsUsage: "FILE...",
				Flags:     []cli.Flag{wordsFlag},
				Action:    chunkCommand,
			},
			{
				Name:      "plan",
				Usage:     "Analyze documents and print the generated plan",
				ArgsUsage: "FILE...",
				Flags:     []cli.Flag{wordsFlag},
				Action:    planCommand,
			},
			{
				Name:      "import",
				Usage:     "Run a full import job, optionally applying the plan",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					wordsFlag,
					&cli.StringFlag{
						Name:  "program-id",
						Usage: "Existing program to update instead of creating one",
					},
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Apply the generated plan once analysis completes",
					},
				},
				Action: importCommand,
			},
		},
	}
}

func files(c *cli.Context) ([]string, error) {
	args := c.Args().Slice()
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}
	for _, a := range args {
		if !extract.Supported(a) {
			return nil, fmt.Errorf("unsupported file type: %s", filepath.Base(a))
		}
	}
	return args, nil
}

func extractDocs(c *cli.Context) (extract.Document, error) {
	paths, err := files(c)
	if err != nil {
		return extract.Document{}, err
	}
	docs := make([]extract.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := extract.Extract(c.Context, p)
		if err != nil {
			return extract.Document{}, err
		}
		docs = append(docs, doc)
	}
	return extract.Merge(docs), nil
}

func tokenizer(c *cli.Context) chunker.Tokenizer {
	if c.Bool("words") {
		return chunker.WordTokenizer{}
	}
	return bootstrap.BuildTokenizer()
}

func newChunker(c *cli.Context, cfg config.Config) *chunker.Chunker {
	return chunker.New(tokenizer(c), chunker.Config{
		SinglePassLimit:      cfg.Chunking.SinglePassLimit,
		MultiPassThreshold:   cfg.Chunking.MultiPassThreshold,
		SectionChunkTokens:   cfg.Chunking.SectionChunkTokens,
		MultiPassChunkTokens: cfg.Chunking.MultiPassChunkTokens,
	})
}

func extractCommand(c *cli.Context) error {
	doc, err := extractDocs(c)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, doc)
}

type chunkSummary struct {
	Index          int   `json:"index"`
	TokenCount     int   `json:"token_count"`
	SectionRefs    []int `json:"section_refs"`
	IsContinuation bool  `json:"is_continuation"`
}

func chunkCommand(c *cli.Context) error {
	doc, err := extractDocs(c)
	if err != nil {
		return err
	}
	chunked, err := newChunker(c, config.Load()).Chunk(doc)
	if err != nil {
		return err
	}
	out := struct {
		Strategy    chunker.Strategy `json:"chunk_strategy"`
		TotalTokens int              `json:"total_tokens"`
		Chunks      []chunkSummary   `json:"chunks"`
	}{Strategy: chunked.Strategy, TotalTokens: chunked.TotalTokens, Chunks: []chunkSummary{}}
	for _, ch := range chunked.Chunks {
		out.Chunks = append(out.Chunks, chunkSummary{
			Index:          ch.Index,
			TokenCount:     ch.TokenCount,
			SectionRefs:    ch.SectionRefs,
			IsContinuation: ch.IsContinuation,
		})
	}
	return writeJSON(c.App.Writer, out)
}

func planCommand(c *cli.Context) error {
	cfg := config.Load()
	doc, err := extractDocs(c)
	if err != nil {
		return err
	}
	chunked, err := newChunker(c, cfg).Chunk(doc)
	if err != nil {
		return err
	}
	completer, err := bootstrap.BuildCompleter(cfg.LLM)
	if err != nil {
		return err
	}
	analysis, err := analyzer.New(completer, analyzer.Options{MaxAttempts: cfg.LLM.MaxAttempts}).Analyze(c.Context, chunked)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, plan.Generate(analysis))
}

func importCommand(c *cli.Context) error {
	cfg := config.Load()
	paths, err := files(c)
	if err != nil {
		return err
	}
	sqlDB, err := bootstrap.OpenDB(c.Context, cfg)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	var tok chunker.Tokenizer
	if c.Bool("words") {
		tok = chunker.WordTokenizer{}
	}
	svc, err := bootstrap.BuildService(cfg, sqlDB, nil, tok)
	if err != nil {
		return err
	}

	var programID *string
	if v := c.String("program-id"); v != "" {
		programID = &v
	}
	job, err := svc.Submit(c.Context, paths, programID)
	if err != nil {
		return err
	}
	if err := svc.Run(c.Context, job.ID); err != nil {
		return err
	}
	job, err = svc.Get(c.Context, job.ID)
	if err != nil {
		return err
	}
	if !c.Bool("apply") {
		return writeJSON(c.App.Writer, job.Summarize())
	}
	applied, prog, err := svc.Apply(c.Context, job.ID)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, map[string]any{"import": applied.Summarize(), "program": prog})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
