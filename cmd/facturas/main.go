package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddmr2811/Facturas/internal/auth"
	"github.com/ddmr2811/Facturas/internal/config"
	"github.com/ddmr2811/Facturas/internal/export"
	"github.com/ddmr2811/Facturas/internal/invoice"
	"github.com/ddmr2811/Facturas/internal/logger"
	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/pdftext"
	"github.com/ddmr2811/Facturas/internal/resolve"
)

const cliOwner = "cli"

func main() {
	config.LoadEnv()
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, os.Getenv("LOG_LEVEL"))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(log)
	case "export":
		runExport(log)
	case "tables":
		runTables(log)
	case "hash-password":
		runHashPassword(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Facturas CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  facturas <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process        Process invoice files (.pdf or .txt) and print JSON")
	fmt.Println("  export         Process invoice files and write an XLSX ledger sheet")
	fmt.Println("  tables         Validate a lookup tables file")
	fmt.Println("  hash-password  Print the bcrypt hash of a password for config.yaml")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'facturas <command> -h' for more information on a command.")
}

type sharedFlags struct {
	config *string
	tables *string
}

func addShared(fs *flag.FlagSet) sharedFlags {
	return sharedFlags{
		config: fs.String("config", "", "path to config file (optional)"),
		tables: fs.String("tables", "", "path to lookup tables (defaults to the config value)"),
	}
}

func (f sharedFlags) service(log zerolog.Logger) *invoice.Service {
	cfg, err := config.Load(*f.config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *f.tables != "" {
		cfg.TablesPath = *f.tables
	}

	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.TablesPath).Msg("lookup tables not loaded, using type defaults only")
	}

	proc := invoice.NewProcessor(cfg.Extraction, resolve.NewStore(tables)).
		WithWorkers(cfg.Batch.Workers).
		WithLogger(log)
	return invoice.NewService(proc, invoice.ServiceConfig{
		Text:   pdftext.New(cfg.PDF.MaxPages),
		Logger: log,
	})
}

func readUploads(log zerolog.Logger, paths []string) []invoice.Upload {
	if len(paths) == 0 {
		log.Fatal().Msg("no input files")
	}
	uploads := make([]invoice.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatal().Err(err).Str("file", p).Msg("failed to read file")
		}
		uploads = append(uploads, invoice.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads
}

func processFiles(log zerolog.Logger, svc *invoice.Service, paths []string) *invoice.Batch {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	batch, err := svc.ProcessUploads(ctx, cliOwner, readUploads(log, paths))
	if err != nil {
		log.Fatal().Err(err).Msg("processing failed")
	}
	return batch
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	shared := addShared(fs)
	compact := fs.Bool("compact", false, "print one JSON object per line")
	fs.Parse(os.Args[2:])

	svc := shared.service(log)
	batch := processFiles(log, svc, fs.Args())

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	for _, rec := range batch.Records {
		if err := enc.Encode(rec); err != nil {
			log.Fatal().Err(err).Msg("failed to write result")
		}
	}

	summary := batch.Summary()
	log.Info().
		Int("invoices", len(batch.Records)).
		Int("high", summary[models.ConfidenceHigh]).
		Int("medium", summary[models.ConfidenceMedium]).
		Int("low", summary[models.ConfidenceLow]).
		Msg("done")
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	shared := addShared(fs)
	out := fs.String("o", "facturas.xlsx", "output XLSX path")
	fs.Parse(os.Args[2:])

	svc := shared.service(log)
	batch := processFiles(log, svc, fs.Args())

	data, err := export.BatchXLSX(batch)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build spreadsheet")
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("failed to write spreadsheet")
	}

	fmt.Printf("Wrote %d invoices to %s\n", len(batch.Records), *out)
}

func runTables(log zerolog.Logger) {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	path := fs.String("tables", "tables.yaml", "path to lookup tables")
	fs.Parse(os.Args[2:])

	tables, err := config.LoadTables(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid lookup tables")
	}

	ids, addrs := tables.Len()
	fmt.Printf("%s: %d identifiers, %d addresses\n", *path, ids, addrs)
	for _, typ := range models.ExpenseTypes {
		def := tables.Default(typ)
		fmt.Printf("  default %-8s %s (%s)\n", typ, def.CommunityName, def.LedgerAccountCode)
	}
}

func runHashPassword(log zerolog.Logger) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		log.Fatal().Msg("Usage: facturas hash-password PASSWORD")
	}
	hash, err := auth.HashPassword(fs.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}
	fmt.Println(hash)
}
