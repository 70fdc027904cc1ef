package main

import (
	"context"
	"log"
	"os"

	"github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterconfig"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterindex"
)

func main() {
	cfg, err := jupiterconfig.Load(os.Getenv("JUPITER_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.Logging.Logger(logrus.Fields{"app": "meili-index"})
	if err != nil {
		log.Fatal(err)
	}
	rt, err := cfg.Build(nil, logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	lectures, err := rt.Cache.Lectures(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(lectures) == 0 {
		log.Fatal("no cached lectures, run jupiter sync --lectures first")
	}

	apiKey := cfg.Meili.APIKey
	if key := os.Getenv("MEILI_MASTER_KEY"); key != "" {
		apiKey = key
	}
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   cfg.Meili.Host,
		APIKey: apiKey,
	})

	exporter, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{
		Index:     jupiterindex.NewMeiliIndex(client, cfg.Meili.Index),
		BatchSize: cfg.Meili.BatchSize,
		Logger:    logger.WithField("component", "index"),
	})
	if err != nil {
		log.Fatal(err)
	}

	n, err := exporter.Export(ctx, lectures, rt.Clock.Now())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Indexed %d lectures into %q.\n", n, cfg.Meili.Index)
}
