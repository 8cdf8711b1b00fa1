// Seeder publishes catalog product events to the ingest topic, either from a
// JSON file or a built-in demo catalog. Useful for local runs and load checks.
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

	kafkago "github.com/segmentio/kafka-go"

	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/ingest"
)

func main() {
	var (
		brokers = flag.String("brokers", envDefault("KAFKA_BROKERS", "localhost:9092"), "comma-separated broker list")
		topic   = flag.String("topic", envDefault("KAFKA_TOPIC", "catalog.products"), "ingest topic")
		file    = flag.String("file", "", "JSON file with an array of products; empty publishes the demo catalog")
	)
	flag.Parse()

	products, err := loadProducts(*file)
	if err != nil {
		log.Fatalf("load products: %v", err)
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, p := range products {
		event := ingest.ProductEvent{Action: ingest.ActionUpsert, Product: &p}
		value, err := json.Marshal(event)
		if err != nil {
			log.Fatalf("marshal %s: %v", p.ID, err)
		}
		msg := kafkago.Message{
			Key:   []byte(p.ID),
			Value: value,
			Time:  time.Now(),
		}
		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Fatalf("write %s: %v", p.ID, err)
		}
		log.Printf("published upsert for %s (%s)", p.ID, p.Title)
	}
	log.Printf("done, %d products published", len(products))
}

func loadProducts(path string) ([]domain.Product, error) {
	if path == "" {
		return demoCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return products, nil
}

func demoCatalog() []domain.Product {
	now := time.Now().UTC()
	mk := func(id, title, category string, price float64) domain.Product {
		return domain.Product{
			ID:        id,
			Title:     title,
			Category:  category,
			Price:     price,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return []domain.Product{
		mk("cz-av-001", "Classic Aviator", "sunglasses", 129.99),
		mk("cz-wf-002", "Matte Wayfarer", "sunglasses", 99.50),
		mk("cz-rd-003", "Round Metal", "sunglasses", 149.00),
		mk("cz-bl-004", "Blue Light Shield", "computer", 79.99),
		mk("cz-rx-005", "Slim Rx Frame", "prescription", 189.00),
	}
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
