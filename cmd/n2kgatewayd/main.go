package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sailgo/n2k-gateway/gateway"
	"github.com/sailgo/n2k-gateway/pgn"
	"github.com/sailgo/n2k-gateway/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML driver configuration file")
	address := flag.String("address", "127.0.0.1", "gateway network address (used when -config is not given)")
	port := flag.Int("port", 1457, "gateway network port")
	protocol := flag.String("protocol", "tcp", "transport protocol: tcp or udp")
	server := flag.Bool("server", false, "listen for an incoming TCP connection instead of dialing out")
	noDataReconnect := flag.Bool("reconnect-on-silence", true, "reconnect after 8s of stream silence")
	verbose := flag.Bool("v", false, "enable debug logging")
	statsInterval := flag.Duration("stats-interval", 2*time.Second, "how often to log the statistics surface")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	entry := logrus.NewEntry(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := resolveConfig(*configPath, *address, *port, *protocol, *server, *noDataReconnect)
	if err != nil {
		log.Fatal(err)
	}

	driver := gateway.New(cfg, entry)
	driver.AddListener(loggingListener{log: entry})

	resumeCh := make(chan os.Signal, 1)
	signal.Notify(resumeCh, syscall.SIGCONT)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-resumeCh:
				entry.Debug("n2kgatewayd: resume signal received")
				driver.HandleResume()
			}
		}
	}()

	go logStats(ctx, driver, entry, *statsInterval)

	entry.WithField("address", fmt.Sprintf("%s:%d", cfg.NetworkAddress, cfg.NetworkPort)).Info("n2kgatewayd: starting")
	if err := driver.Run(ctx); err != nil {
		log.Fatal(err)
	}
	driver.Close()
}

func resolveConfig(configPath, address string, port int, protocol string, server, noDataReconnect bool) (gateway.Config, error) {
	if configPath != "" {
		return gateway.LoadConfig(configPath)
	}

	proto := transport.TCP
	if protocol == "udp" {
		proto = transport.UDP
	}
	return gateway.Config{
		NetworkAddress:  address,
		NetworkPort:     port,
		Protocol:        proto,
		IODirection:     gateway.InOut,
		NoDataReconnect: noDataReconnect,
		Server:          server,
	}, nil
}

func logStats(ctx context.Context, driver *gateway.Driver, log *logrus.Entry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := driver.Stats()
			log.WithFields(logrus.Fields{
				"rx_bytes":  stats.RxByteCount,
				"tx_bytes":  stats.TxByteCount,
				"available": stats.Available,
			}).Debug("n2kgatewayd: stats")
		}
	}
}

// loggingListener is the default Listener wired by the daemon: it logs
// every non-wildcard message at debug level.
type loggingListener struct {
	log *logrus.Entry
}

func (l loggingListener) Notify(msg pgn.Message) {
	if msg.PGN == pgn.Wildcard {
		return
	}
	l.log.WithFields(logrus.Fields{
		"pgn":      msg.PGN,
		"priority": msg.Priority,
		"source":   msg.Source,
		"dest":     msg.Destination,
		"len":      len(msg.Payload),
	}).Debug("n2kgatewayd: message")
}
