package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"benchmarkbox/adapters"
	"benchmarkbox/extractor"
	"benchmarkbox/internal/bridge"
	"benchmarkbox/internal/store"
	"benchmarkbox/internal/types"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	var (
		urlFlag       = flag.String("url", "", "Single product page to extract")
		urlsFlag      = flag.String("urls", "", "Comma-separated list of product pages")
		fileFlag      = flag.String("file", "", "Local HTML file to extract from")
		pageURL       = flag.String("page-url", "", "Address the local HTML file was saved from")
		outputFlag    = flag.String("output", "", "Output file path (default: stdout)")
		formatFlag    = flag.String("format", "json", "Output format: json or yaml")
		saveFlag      = flag.Bool("save", false, "Save extracted products to the local store")
		folderFlag    = flag.String("folder", "", "Folder to save products in (default: the default folder)")
		notesFlag     = flag.String("notes", "", "Notes attached to saved products")
		dbFlag        = flag.String("db", "benchmarkbox.db", "SQLite store used with -save")
		requestDelay  = flag.Duration("delay", 1*time.Second, "Delay between requests")
		maxRetries    = flag.Int("retries", 3, "Maximum retry attempts")
		timeout       = flag.Duration("timeout", 30*time.Second, "Request timeout")
		maxConcurrent = flag.Int("concurrent", 5, "Maximum concurrent requests")
		useBrowser    = flag.Bool("browser", false, "Use headless browser for JavaScript-heavy sites")
		httpOnly      = flag.Bool("http-only", false, "Use HTTP requests only (disable headless browser)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	modes := 0
	for _, set := range []bool{*urlFlag != "", *urlsFlag != "", *fileFlag != ""} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		log.Fatal("Exactly one of --url, --urls or --file is required")
	}
	if *formatFlag != "json" && *formatFlag != "yaml" {
		log.Fatalf("Unsupported format %q (use json or yaml)", *formatFlag)
	}

	logger := newLogger(*verbose)

	config := types.DefaultConfig()
	config.RequestDelay = *requestDelay
	config.MaxRetries = *maxRetries
	config.Timeout = *timeout
	config.MaxConcurrentRequests = *maxConcurrent
	config.UseHeadlessBrowser = *useBrowser && !*httpOnly
	if config.Timeout > config.BridgeTimeout {
		config.BridgeTimeout = config.Timeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ext := extractor.NewExtractor(logger)
	startTime := time.Now()

	var results []bridge.URLResult
	if *fileFlag != "" {
		result, err := extractFile(ext, *fileFlag, *pageURL)
		if err != nil {
			logger.Fatalf("Failed to extract from %s: %v", *fileFlag, err)
		}
		results = []bridge.URLResult{result}
	} else {
		urls := []string{*urlFlag}
		if *urlsFlag != "" {
			urls = strings.Split(*urlsFlag, ",")
		}
		urls = adapters.UniqueURLs(urls)

		loader := adapters.NewLoader(config, logger)
		defer loader.Close()

		b := bridge.New(bridge.NewHeadlessBinding(loader, logger), ext, nil, config, logger)
		logger.Infof("Starting extraction for %d URLs", len(urls))
		results = b.ExtractURLs(ctx, urls)
	}
	logger.Infof("Extraction completed in %v", time.Since(startTime))

	if *saveFlag {
		if err := saveResults(ctx, logger, *dbFlag, results, *folderFlag, *notesFlag); err != nil {
			logger.Fatalf("Failed to save products: %v", err)
		}
	}

	var output interface{} = results
	if len(results) == 1 && results[0].Product != nil {
		output = results[0].Product
	}
	data, err := encode(output, *formatFlag)
	if err != nil {
		logger.Fatalf("Failed to marshal results: %v", err)
	}

	if *outputFlag != "" {
		if err := os.WriteFile(*outputFlag, data, 0644); err != nil {
			logger.Fatalf("Failed to write output file: %v", err)
		}
		logger.Infof("Results written to: %s", *outputFlag)
	} else {
		fmt.Println(string(data))
	}

	found, priced := 0, 0
	for _, r := range results {
		if r.Product != nil {
			found++
			if r.Product.HasPrice() {
				priced++
			}
		}
	}
	logger.Infof("Pages processed: %d", len(results))
	logger.Infof("Products extracted: %d", found)
	logger.Infof("Products with a price: %d", priced)
}

// newLogger builds the CLI logger. LOG_LEVEL overrides -verbose.
func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// extractFile runs the extractor on a saved HTML page
func extractFile(ext *extractor.Extractor, path, pageURL string) (bridge.URLResult, error) {
	html, err := os.ReadFile(path)
	if err != nil {
		return bridge.URLResult{}, err
	}

	page, err := adapters.NewDocumentPage(string(html), pageURL)
	if err != nil {
		return bridge.URLResult{}, err
	}

	record := ext.ExtractProductInfo(page)
	return bridge.URLResult{URL: pageURL, Product: &record}, nil
}

// saveResults files every extracted product in the SQLite store at dbPath
func saveResults(ctx context.Context, logger *logrus.Logger, dbPath string, results []bridge.URLResult, folderID, notes string) error {
	backend, err := store.NewSQLiteBackend(dbPath)
	if err != nil {
		return err
	}
	s := store.New(backend, logger)
	defer s.Close()

	if folderID != "" {
		if _, err := s.Folder(ctx, folderID); err != nil {
			return fmt.Errorf("folder %s: %w", folderID, err)
		}
	}

	for _, r := range results {
		if r.Product == nil {
			continue
		}
		product, err := s.SaveRecord(ctx, *r.Product, folderID, nil, notes)
		if err != nil {
			return err
		}
		logger.Infof("Saved %q (%s) as %s", product.Name, product.Site, product.ID)
	}
	return nil
}

// encode marshals v as indented JSON or YAML
func encode(v interface{}, format string) ([]byte, error) {
	if format == "yaml" {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
