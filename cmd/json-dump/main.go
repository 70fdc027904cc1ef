package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterconfig"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterrepo"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

type unitDump struct {
	jupiterscrape.Unit
	Courses []jupiterscrape.Course `json:"courses"`
}

func main() {
	cfg, err := jupiterconfig.Load(os.Getenv("JUPITER_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.Logging.Logger(logrus.Fields{"app": "json-dump"})
	if err != nil {
		log.Fatal(err)
	}
	rt, err := cfg.Build(nil, logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	units, err := rt.Repository.Units(ctx)
	if err != nil {
		log.Fatal(err)
	}
	units = units.Select(jupiterrepo.NewUnitSet(rt.Config.Sync.Units...))

	dump := make([]unitDump, 0, units.Len())
	courseCount := 0
	for _, unit := range units.Units() {
		courses, err := rt.Repository.CoursesForUnit(ctx, unit.Code)
		if err != nil {
			logger.WithFields(logrus.Fields{"unit": unit.Code, "err": err}).Warn("skipping unit")
			continue
		}
		courseCount += len(courses)
		dump = append(dump, unitDump{Unit: unit, Courses: courses})
	}

	if err := os.MkdirAll("./data", 0o755); err != nil {
		log.Fatalln(err)
	}
	if err := writeJSON(filepath.Join("data", "units.json"), units.Units()); err != nil {
		log.Fatalln(err)
	}
	if err := writeJSON(filepath.Join("data", "courses.json"), dump); err != nil {
		log.Fatalln(err)
	}

	log.Printf("Wrote %d units and %d courses to data/.\n", len(dump), courseCount)
}

func writeJSON(path string, v interface{}) error {
	jsonFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer jsonFile.Close()
	return json.NewEncoder(jsonFile).Encode(v)
}
