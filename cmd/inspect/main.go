package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"benchmarkbox/adapters"
	"benchmarkbox/extractor"
	"benchmarkbox/internal/pricing"
	"benchmarkbox/internal/types"
)

func main() {
	var (
		urlFlag    = flag.String("url", "", "Product page to inspect")
		fileFlag   = flag.String("file", "", "Local HTML file to inspect")
		pageURL    = flag.String("page-url", "", "Address the local HTML file was saved from")
		useBrowser = flag.Bool("browser", false, "Render the page in a headless browser")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if (*urlFlag == "") == (*fileFlag == "") {
		log.Fatal("Exactly one of --url or --file is required")
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	config := types.DefaultConfig()
	config.UseHeadlessBrowser = *useBrowser
	config.RequestDelay = 0

	page, err := loadPage(config, logger, *urlFlag, *fileFlag, *pageURL)
	if err != nil {
		log.Fatalf("Failed to load page: %v", err)
	}

	ext := extractor.NewExtractor(logger)

	fmt.Printf("=== %s ===\n", page.URL())
	fmt.Printf("Title: %q\n", page.Title())
	fmt.Printf("JSON-LD blocks: %d\n", len(page.StructuredData()))
	fmt.Printf("Site: %s\n\n", extractor.SiteID(page.URL()))

	for _, report := range ext.Explain(page) {
		fmt.Printf("[%s]\n", report.Strategy)
		switch {
		case report.Error != "":
			fmt.Printf("  error: %s\n", report.Error)
		case report.Result == nil:
			fmt.Println("  nothing found")
		default:
			describe(report.Result)
		}
	}

	record := ext.ExtractProductInfo(page)
	fmt.Println("\n=== Merged record ===")
	fmt.Printf("  name:     %q\n", record.Name)
	if record.HasPrice() {
		fmt.Printf("  price:    %s\n", pricing.FormatPrice(*record.Price, record.Currency))
	} else {
		fmt.Println("  price:    none")
	}
	fmt.Printf("  currency: %s\n", record.Currency)
}

func describe(result *types.StrategyResult) {
	if result.Name != "" {
		fmt.Printf("  name:     %q\n", result.Name)
	}
	if result.Price != nil {
		fmt.Printf("  price:    %v\n", *result.Price)
	}
	if result.Currency != "" {
		fmt.Printf("  currency: %s\n", result.Currency)
	}
}

func loadPage(config *types.Config, logger types.Logger, pageURL, file, fileURL string) (*adapters.DocumentPage, error) {
	if file != "" {
		html, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return adapters.NewDocumentPage(string(html), fileURL)
	}

	loader := adapters.NewLoader(config, logger)
	defer loader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return loader.Load(ctx, strings.TrimSpace(pageURL))
}
