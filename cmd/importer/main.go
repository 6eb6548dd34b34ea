package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"repairshop-backend/internal/config"
	"repairshop-backend/internal/database"
	"repairshop-backend/internal/db"
	"repairshop-backend/internal/legacy"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/migrations"
)

type summary struct {
	imported int
	skipped  int
}

// each walks a collection, decoding every document into T. Documents that
// fail to decode or map are logged and counted as skipped.
func each[T any](ctx context.Context, client *firestore.Client, collection string, fn func(id string, doc T) error) (summary, error) {
	var s summary
	iter := client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return s, err
		}

		var doc T
		if err := snap.DataTo(&doc); err != nil {
			log.Printf("[Importer] %s/%s: decode failed: %v", collection, snap.Ref.ID, err)
			s.skipped++
			continue
		}
		if err := fn(snap.Ref.ID, doc); err != nil {
			if ctx.Err() != nil {
				return s, ctx.Err()
			}
			log.Printf("[Importer] %s/%s: %v", collection, snap.Ref.ID, err)
			s.skipped++
			continue
		}
		s.imported++
	}
	return s, nil
}

func main() {
	project := flag.String("project", "", "GCP project that holds the Firestore data (required)")
	credentials := flag.String("credentials", "", "Service account JSON file (defaults to application credentials)")
	flag.Parse()

	if *project == "" {
		log.Fatal("-project is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	pool := db.Connect(cfg)
	defer pool.Close()

	if err := database.NewMigrator(pool, migrations.FS).RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var opts []option.ClientOption
	if *credentials != "" {
		opts = append(opts, option.WithCredentialsFile(*credentials))
	}
	client, err := firestore.NewClient(ctx, *project, opts...)
	if err != nil {
		log.Fatalf("Failed to connect to Firestore: %v", err)
	}
	defer client.Close()

	users := repositories.NewUserRepository(pool)
	products := repositories.NewProductRepository(pool)
	prices := repositories.NewServicePriceRepository(pool)
	orders := repositories.NewOrderRepository(pool)
	now := time.Now()

	// Inventory goes before orders so product references resolve to rows
	// that already exist.
	steps := []struct {
		collection string
		run        func() (summary, error)
	}{
		{legacy.CollectionUsers, func() (summary, error) {
			return each(ctx, client, legacy.CollectionUsers, func(id string, doc legacy.User) error {
				u, err := legacy.MapUser(id, doc, now)
				if err != nil {
					return err
				}
				return users.Upsert(ctx, u)
			})
		}},
		{legacy.CollectionInventory, func() (summary, error) {
			return each(ctx, client, legacy.CollectionInventory, func(id string, doc legacy.InventoryItem) error {
				p, err := legacy.MapProduct(id, doc, now)
				if err != nil {
					return err
				}
				return products.Upsert(ctx, p)
			})
		}},
		{legacy.CollectionServices, func() (summary, error) {
			return each(ctx, client, legacy.CollectionServices, func(id string, doc legacy.ServicePrice) error {
				p, err := legacy.MapServicePrice(id, doc, now)
				if err != nil {
					return err
				}
				return prices.Upsert(ctx, p)
			})
		}},
		{legacy.CollectionOrders, func() (summary, error) {
			return each(ctx, client, legacy.CollectionOrders, func(id string, doc legacy.Order) error {
				o, err := legacy.MapOrder(id, doc, now)
				if err != nil {
					return err
				}
				return orders.Upsert(ctx, o)
			})
		}},
	}

	for _, step := range steps {
		start := time.Now()
		s, err := step.run()
		if err != nil {
			log.Fatalf("[Importer] %s: %v", step.collection, err)
		}
		log.Printf("[Importer] %s: %d imported, %d skipped (%s)", step.collection, s.imported, s.skipped, time.Since(start).Round(time.Millisecond))
	}
	log.Println("[Importer] Done. Imported staff sign in with an email link.")
}
