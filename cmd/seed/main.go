package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"course-marketplace/internal/config"
	pg "course-marketplace/internal/infra/db/postgres"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	courseUC := usecase.NewCourseUseCase(pg.NewCourseRepo(pool), logger)

	// If courses already exist, do nothing
	existing, err := courseUC.ListAll(ctx)
	if err != nil {
		log.Fatalf("list courses: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d courses already present. No changes.\n", len(existing))
		for _, c := range existing {
			fmt.Printf("  - %s (price=%d, published=%v)\n", c.Title, c.Price, c.Published)
		}
		return
	}

	// Sample catalog for exercising the payment flow
	seed := []struct {
		Title string
		Desc  string
		Price int64
	}{
		{"Go Fundamentals", "From zero to a working HTTP service.", 1_500},
		{"PostgreSQL in Practice", "Schemas, transactions and query tuning.", 2_500},
		{"Distributed Systems Basics", "Consensus, queues and failure modes.", 4_000},
	}

	for _, s := range seed {
		c, err := courseUC.Create(ctx, s.Title, s.Desc, s.Price)
		if err != nil {
			log.Fatalf("create course %q: %v", s.Title, err)
		}
		if _, err := courseUC.Update(ctx, c.ID, c.Title, c.Description, c.Price, true); err != nil {
			log.Fatalf("publish course %q: %v", s.Title, err)
		}
		fmt.Printf("seeded: %s (id=%s, price=%d)\n", c.Title, c.ID, c.Price)
	}

	fmt.Println("Seeding complete.")
}
