// Command event-generator publishes synthetic order and order-action
// envelopes to a Kafka topic for exercising the dlob-mirror process without
// a live exchange feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"strings"
	"time"

	ingestionv1 "github.com/driftmirror/dlob-mirror/internal/domain/ingestion/v1"
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/segmentio/kafka-go"
)

func generateRandomID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	var result strings.Builder
	for i := 0; i < length; i++ {
		result.WriteByte(charset[rand.Intn(len(charset))])
	}
	return result.String()
}

// generateOrderRecord creates one realistic synthetic order, priced around
// basePrice with the given spread (both already scaled by PricePrecision).
func generateOrderRecord(orderID uint64, slot uint64, basePrice, priceSpread int64) orderv1.OrderRecord {
	orderType := orderv1.OrderTypeLimit
	if rand.Float64() < 0.2 {
		orderType = orderv1.OrderTypeMarket
	}

	isBid := rand.Float64() < 0.5
	direction := orderv1.DirectionShort
	if isBid {
		direction = orderv1.DirectionLong
	}

	size := int64((0.01 + rand.Float64()*9.99) * orderv1.BasePrecision)

	var price int64
	switch {
	case orderType == orderv1.OrderTypeMarket:
		price = 0
	case isBid:
		price = basePrice - int64(rand.Float64()*float64(priceSpread)*0.8)
	default:
		price = basePrice + int64(rand.Float64()*float64(priceSpread)*0.8)
	}

	order := &orderv1.Order{
		OrderID:         orderID,
		UserAccount:     generateRandomID(8),
		MarketType:      orderv1.MarketTypePerp,
		MarketIndex:     0,
		Direction:       direction,
		OrderType:       orderType,
		Status:          orderv1.StatusOpen,
		BaseAssetAmount: size,
		Price:           price,
		Slot:            slot,
	}
	if orderType == orderv1.OrderTypeMarket {
		order.AuctionStartPrice = basePrice - priceSpread/2
		order.AuctionEndPrice = basePrice + priceSpread/2
		order.AuctionDuration = 20
	}

	return orderv1.OrderRecord{
		UserAccount: order.UserAccount,
		Order:       order,
	}
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "dlob-order-events", "Kafka topic name")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending events")
		count       = flag.Int("count", 1000, "Number of order events to generate")
		basePrice   = flag.Float64("base-price", 3945.5, "Base price for orders")
		priceSpread = flag.Float64("price-spread", 200.0, "Price spread range")
		startSlot   = flag.Uint64("start-slot", 1, "Slot number of the first event")
	)
	flag.Parse()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(*brokers),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	base := int64(*basePrice * orderv1.PricePrecision)
	spread := int64(*priceSpread * orderv1.PricePrecision)

	log.Printf("Sending %d order events to Kafka broker: %s, topic: %s", *count, *brokers, *topic)

	for i := 0; i < *count; i++ {
		slot := *startSlot + uint64(i)
		record := generateOrderRecord(uint64(i+1), slot, base, spread)

		envelope := ingestionv1.OrderEventEnvelope{
			Type:        ingestionv1.EventTypeOrderRecord,
			Slot:        slot,
			OrderRecord: &record,
		}

		payload, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("Failed to marshal order event %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(record.UserAccount),
			Value: payload,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send order event %d: %v", i+1, err)
			continue
		}

		if (i+1)%100 == 0 || i == *count-1 {
			side := "SELL"
			if record.Order.IsBid() {
				side = "BUY"
			}
			log.Printf("Sent event %d/%d: order=%d slot=%d %s %s size=%.3f price=%.1f",
				i+1, *count, record.Order.OrderID, slot, record.Order.OrderType, side,
				float64(record.Order.BaseAssetAmount)/orderv1.BasePrecision,
				float64(record.Order.Price)/orderv1.PricePrecision,
			)
		}

		if i < *count-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent %d order events", *count)
}
