// GoImpersonate fetches URLs with TLS and HTTP/2 fingerprints that match a
// chosen browser or HTTP client build.
//
// Startup sequence:
//  1. Load configuration (JSON or YAML file, or defaults) and apply flags.
//  2. Load proxy list (optional).
//  3. Initialise metrics and logger.
//  4. Create one session per URL, each on the next proxy.
//  5. Run -n fetches per URL on the worker pool.
//  6. Print each result and the connector metrics, then exit.
//
// SIGINT or SIGTERM cancels outstanding fetches.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/firasghr/GoImpersonate/config"
	"github.com/firasghr/GoImpersonate/logger"
	"github.com/firasghr/GoImpersonate/metrics"
	"github.com/firasghr/GoImpersonate/proxy"
	"github.com/firasghr/GoImpersonate/session"
	"github.com/firasghr/GoImpersonate/worker"
)

// profileExamples are the names shown in the -profile help.
var profileExamples = []string{"chrome_124", "safari_17.4.1", "okhttp_4.10"}

func main() {
	// ── Flags ──────────────────────────────────────────────────────────────
	configFile := flag.String("config", "", "Path to JSON or YAML config file (optional; uses defaults if omitted)")
	profile := flag.String("profile", "", "Impersonated client, e.g. "+strings.Join(profileExamples, ", "))
	insecure := flag.Bool("insecure", false, "Skip server certificate verification")
	http1 := flag.Bool("http1", false, "Offer only http/1.1 in ALPN")
	psk := flag.Bool("psk", false, "Force the pre_shared_key extension and session resumption")
	grease := flag.Bool("grease", false, "Send a GREASE encrypted_client_hello (Chrome and Edge)")
	permute := flag.Bool("permute", false, "Shuffle ClientHello extensions (Chrome and Edge)")
	n := flag.Int("n", 1, "Requests per URL")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] URL...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// ── Configuration ──────────────────────────────────────────────────────
	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config from %q: %v\n", *configFile, err)
			os.Exit(1)
		}
	}
	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "profile":
			cfg.Profile = *profile
		case "insecure":
			cfg.CertsVerification = !*insecure
		case "http1":
			cfg.HTTP2 = !*http1
		case "psk":
			cfg.PreSharedKey = *psk
		case "grease":
			cfg.EnableECHGrease = *grease
		case "permute":
			cfg.PermuteExtensions = *permute
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// ── Logger ─────────────────────────────────────────────────────────────
	level, _ := logger.ParseLevel(cfg.LogLevel) // checked by Validate
	log := logger.New(level)
	log.Info("GoImpersonate starting up", "profile", cfg.Profile, "http2", cfg.HTTP2)

	// ── Proxy manager ──────────────────────────────────────────────────────
	pm := &proxy.ProxyManager{}
	if cfg.ProxyFile != "" {
		if err := pm.LoadProxies(cfg.ProxyFile); err != nil {
			log.Errorf("failed to load proxies from %q: %v", cfg.ProxyFile, err)
			os.Exit(1)
		}
		log.Infof("loaded %d proxies from %q", pm.Count(), cfg.ProxyFile)
	}

	m := metrics.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Sessions ───────────────────────────────────────────────────────────
	sessions := make([]*session.Session, 0, flag.NArg())
	for i := range flag.NArg() {
		s, err := session.NewSession(ctx, i, pm.GetNextProxy(), cfg,
			session.WithLogger(log), session.WithMetrics(m))
		if err != nil {
			log.Errorf("session creation failed: %v", err)
			os.Exit(1)
		}
		sessions = append(sessions, s)
	}

	// ── Worker pool ────────────────────────────────────────────────────────
	wp := worker.NewWorkerPool(ctx, cfg.Concurrency)
	wp.Start()
	log.Debugf("worker pool started with %d workers", cfg.Concurrency)

	for i, target := range flag.Args() {
		s := sessions[i]
		for range *n {
			if err := wp.Submit(func(ctx context.Context) error {
				return fetch(ctx, s, target)
			}); err != nil {
				break
			}
		}
	}
	err := wp.Stop()
	for _, s := range sessions {
		s.Close()
	}

	completed, failed, skipped := wp.Stats()
	snap := m.Snapshot()
	log.Infof("requests – ok: %d | failed: %d | skipped: %d", completed, failed, skipped)
	log.Infof("connectors: %d | session caches: %d | handshakes: %d (%d failed, %.1f/s) | degraded: %d",
		snap.ConnectorsCreated, snap.SessionCachesCreated, snap.Handshakes,
		snap.HandshakeFailures, m.HandshakesPerSecond(), snap.FinalizationDegraded)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func fetch(ctx context.Context, s *session.Session, target string) error {
	resp, err := s.ExecuteRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	size, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	fmt.Printf("%s %d %s %d bytes\n", target, resp.StatusCode, resp.Proto, size)
	return nil
}
