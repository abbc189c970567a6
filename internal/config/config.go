// Package config loads the dlob-mirror process's environment-driven
// configuration, grounded on the teacher's caarlos0/env + joho/godotenv
// loader.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/driftmirror/dlob-mirror/internal/app/mirror"
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/driftmirror/dlob-mirror/internal/usecase/ingestion"
	"github.com/driftmirror/dlob-mirror/pkg/redis"
)

// MustLoad loads cfg from the environment and .env file, panicking on
// failure.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()
	env.Must(cfg, env.Parse(cfg))
}

// Load loads cfg from the environment and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load()
	return env.Parse(cfg)
}

// Config is the dlob-mirror process's full configuration.
type Config struct {
	Kafka ingestion.Config `envPrefix:"KAFKA_"`
	Redis redis.Config     `envPrefix:"REDIS_"`

	// HealthAddr is the address the HTTP healthcheck endpoint listens on.
	HealthAddr string `env:"HEALTH_ADDR" envDefault:":8090"`

	// GRPCHealthAddr is the address the gRPC health server listens on.
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR" envDefault:":9090"`

	// RestingLimitPollInterval is how often the background loop calls
	// UpdateRestingLimitOrders with the latest observed slot, independent
	// of ingestion traffic, so promotions still happen on a quiet book.
	RestingLimitPollInterval time.Duration `env:"RESTING_LIMIT_POLL_INTERVAL" envDefault:"1s"`

	// PriceFeedRefreshInterval is how often the engine re-reads the price
	// feed cache for markets it is tracking.
	PriceFeedRefreshInterval time.Duration `env:"PRICE_FEED_REFRESH_INTERVAL" envDefault:"500ms"`

	// MinPerpAuctionDuration mirrors state_account.min_perp_auction_duration
	// (slots) used by FindNodesToFill for perp fallback-crossing eligibility.
	MinPerpAuctionDuration int64 `env:"MIN_PERP_AUCTION_DURATION" envDefault:"10"`

	// Markets is a comma-separated list of "type:index" pairs, e.g.
	// "perp:0,perp:1,spot:0", naming the markets the mirror tracks a price
	// feed for and answers queries on.
	Markets string `env:"MARKETS" envDefault:"perp:0"`
}

// MarketRefs parses Markets into the engine's MarketRef list.
func (c Config) MarketRefs() []mirror.MarketRef {
	var refs []mirror.MarketRef
	for _, entry := range strings.Split(c.Markets, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		index, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			continue
		}
		refs = append(refs, mirror.MarketRef{
			MarketType:  orderv1.MarketType(parts[0]),
			MarketIndex: uint16(index),
		})
	}
	return refs
}
