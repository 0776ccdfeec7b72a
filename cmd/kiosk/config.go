package main

import (
	"flag"
	"os"
)

type Config struct {
	serverEndpoint string
	redisEndpoint  string
	venueID        string
	tableLabel     string
	items          string
	note           string
	storePath      string
	logLevel       string
	env            string
}

func NewConfig() Config {
	var (
		serverEndpoint string
		redisEndpoint  string
		venueID        string
		tableLabel     string
		items          string
		note           string
		storePath      string
		logLevel       string
		env            string
	)

	flag.StringVar(&serverEndpoint, "s", "http://localhost:8090", "address of the order server")
	flag.StringVar(&redisEndpoint, "r", "localhost:6379", "address and port of redis for the change feed")
	flag.StringVar(&venueID, "v", "", "venue to order from")
	flag.StringVar(&tableLabel, "t", "", "table label shown to the vendor")
	flag.StringVar(&items, "i", "", "order items as a JSON array")
	flag.StringVar(&note, "n", "", "optional note for the kitchen")
	flag.StringVar(&storePath, "p", "kiosk-data", "path of the local store for queued orders")
	flag.Parse()

	if address := os.Getenv("SERVER_ADDRESS"); address != "" {
		serverEndpoint = address
	}

	if r := os.Getenv("REDIS_ADDRESS"); r != "" {
		redisEndpoint = r
	}

	if v := os.Getenv("VENUE_ID"); v != "" {
		venueID = v
	}

	if p := os.Getenv("STORE_PATH"); p != "" {
		storePath = p
	}

	if l := os.Getenv("LOG_LEVEL"); l != "" {
		logLevel = l
	} else {
		logLevel = "info"
	}

	if e := os.Getenv("ENV"); e != "" {
		env = e
	} else {
		env = "production"
	}

	return Config{
		serverEndpoint,
		redisEndpoint,
		venueID,
		tableLabel,
		items,
		note,
		storePath,
		logLevel,
		env,
	}
}
