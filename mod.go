// Package stela implements a client-side core to invoke smart-contract
// functions and to deploy token contracts, either against a locally persisted
// sandbox ledger or against a remote network reachable over JSON-RPC.
package stela

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.InfoLevel)

// PromCollectors exposes the metric collectors registered by the different
// components, so that a monitoring surface can register them all at once.
var PromCollectors []prometheus.Collector
