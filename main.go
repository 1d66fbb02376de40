package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/matanmeltz/asm15/api"
	"github.com/matanmeltz/asm15/config"
	"github.com/matanmeltz/asm15/inspector"
	"github.com/matanmeltz/asm15/object"
	"github.com/matanmeltz/asm15/parser"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

// Source and intermediate file suffixes
const (
	sourceSuffix   = ".as"
	expandedSuffix = ".am"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configPath  = flag.String("config", "", "Configuration file path (default: platform config dir)")
		outputDir   = flag.String("output", "", "Output directory (default: alongside each input file)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
		dumpSymbols = flag.Bool("dump-symbols", false, "Dump the defined symbols after a successful run")
		inspectMode = flag.Bool("inspect", false, "Open the TUI inspector after assembling")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort     = flag.Int("port", 0, "API server port (default: from config)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("asm15 assembler %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Directory = *outputDir
	}

	if *apiServer {
		port := *apiPort
		if port == 0 {
			port = cfg.API.Port
		}
		runAPIServer(port)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	failed := false
	for _, baseName := range flag.Args() {
		ok, fatal := assembleFile(baseName, cfg, *verboseMode, *dumpSymbols, *inspectMode)
		if fatal != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", fatal)
			os.Exit(1)
		}
		if !ok {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

// loadConfig loads the configuration from the given path, or the
// platform default when the path is empty
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// assembleFile runs the three stages over one base name. The returned
// bool reports per-file success; a non-nil error is a resource failure
// that aborts the whole run.
func assembleFile(baseName string, cfg *config.Config, verbose, dumpSymbols, inspect bool) (bool, error) {
	inputName := baseName + sourceSuffix
	if verbose {
		fmt.Printf("Assembling %s\n", inputName)
	}

	source, err := os.ReadFile(inputName) // #nosec G304 -- user-provided source file path
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: file %s does not exist\n", inputName)
			return false, nil
		}
		return false, fmt.Errorf("failed to read file %s: %w", inputName, err)
	}

	// Stage 1: macro expansion
	expander := parser.NewExpander(inputName)
	expanded := expander.Expand(string(source))
	if expander.Errors().HasErrors() {
		reportDiagnostics(expander.Errors(), cfg)
		fmt.Fprintf(os.Stderr, "No %s file was created for: %s\n", expandedSuffix, baseName)
		return false, nil
	}

	outDir := cfg.Output.Directory
	if outDir == "" {
		outDir = filepath.Dir(inputName)
	}
	expandedName := filepath.Join(outDir, filepath.Base(baseName)+expandedSuffix)
	if err := os.WriteFile(expandedName, []byte(expanded), 0644); err != nil { // #nosec G306 -- intermediate artifact
		return false, fmt.Errorf("failed to create file %s: %w", expandedName, err)
	}

	// Stage 2: first pass over the expanded stream
	p := parser.NewParser(expanded, expandedName, expander.Macros())
	prog := p.FirstPass()

	// Stage 3: second pass
	obj, resolveErrs := object.Resolve(prog)

	all := &parser.ErrorList{}
	all.Merge(p.Errors())
	all.Merge(resolveErrs)
	reportDiagnostics(all, cfg)

	success := !all.HasErrors() && !(cfg.Warnings.TreatAsErrors && len(all.Warnings) > 0)
	if success {
		if err := obj.WriteFiles(outDir, filepath.Base(baseName)); err != nil {
			return false, err
		}
		if verbose {
			fmt.Printf("Assembled %s: IC=%d DC=%d\n", baseName, prog.IC, prog.DC)
		}
		if dumpSymbols {
			printSymbols(prog)
		}
		if !cfg.Output.KeepExpanded {
			if err := os.Remove(expandedName); err != nil {
				return false, fmt.Errorf("failed to remove file %s: %w", expandedName, err)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "No object file was created for: %s\n", baseName)
	}

	if inspect {
		ins := inspector.New(prog, obj, all)
		if err := ins.Run(); err != nil {
			return false, fmt.Errorf("inspector failed: %w", err)
		}
	}

	return success, nil
}

// reportDiagnostics prints errors to stderr and warnings according to
// the configured policy
func reportDiagnostics(errs *parser.ErrorList, cfg *config.Config) {
	for _, d := range errs.Errors {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	if cfg.Warnings.Suppress {
		return
	}
	for _, w := range errs.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
}

// printSymbols dumps the definitions of the declaration table in name
// order
func printSymbols(prog *parser.Program) {
	defs := make([]*parser.Declaration, 0)
	for _, d := range prog.Decls.All() {
		if d.Kind.IsDefinition() {
			defs = append(defs, d)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	for _, d := range defs {
		fmt.Printf("%-31s %-7s %04d\n", d.Name, d.Kind, d.Value)
	}
}

// runAPIServer starts the HTTP assemble service and blocks until a
// shutdown signal arrives
func runAPIServer(port int) {
	server := api.NewServer(port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	fmt.Println("\nShutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("API server stopped")
}

// printHelp prints usage information
func printHelp() {
	fmt.Println("asm15 - two-pass assembler for the 15-bit word instruction set")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  asm15 [options] <basename>...")
	fmt.Println()
	fmt.Println("Each <basename> names a source file <basename>.as. Assembly writes")
	fmt.Println("<basename>.am (expanded source) and, on success, <basename>.ob plus")
	fmt.Println("<basename>.ent / <basename>.ext when entries or externals exist.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
