// Command farmd is a reference daemon driving a set of farms: it
// advances each farm's snapshot ring buffer once its minimum window
// has elapsed, keeps a watch-list of farmers' accrued harvest current,
// and optionally serves the read-only inspection API in front of the
// same ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiinternal "github.com/solfarm/farming-go/api/internal"
	"github.com/solfarm/farming-go/config"
	"github.com/solfarm/farming-go/farming"
	"github.com/solfarm/farming-go/farming/rpcslot"
	"github.com/solfarm/farming-go/farming/simslot"
)

var (
	env          = flag.String("env", "", "the environment to run against (devnet, testnet, mainnet-beta); leave empty for -simulate mode")
	ledgerRPCURL = flag.String("ledger-rpc-url", "", "the url of the ledger rpc, overriding -env's default")
	programID    = flag.String("program-id", "", "the farming program ID, overriding -env's default")
	simulate     = flag.Bool("simulate", true, "run against an in-process MemoryLedger and simulated slot clock instead of a live cluster")
	interval     = flag.Duration("interval", 10*time.Second, "how often to check farms for a due snapshot and advance watched farmers")
	farms        = flag.String("farms", "", "comma-separated list of farm pubkeys to snapshot")
	watch        = flag.String("watch", "", "comma-separated list of farm:farmer pubkey pairs to keep accrual current for")
	apiListen    = flag.String("api-listen-addr", "", "if set, serve the read-only inspection API on this address")
	metricsAddr  = flag.String("metrics-addr", "", "if set, serve prometheus metrics on this address")
	verbose      = flag.Bool("verbose", false, "enable verbose logging")
)

type watchTarget struct {
	farm   solana.PublicKey
	farmer solana.PublicKey
}

func main() {
	flag.Parse()

	log := newLogger(*verbose)

	farmList, err := parsePubkeyList(*farms)
	if err != nil {
		log.Error("failed to parse -farms", "error", err)
		os.Exit(1)
	}

	watchList, err := parseWatchList(*watch)
	if err != nil {
		log.Error("failed to parse -watch", "error", err)
		os.Exit(1)
	}

	ledger, oracle, err := buildLedgerAndOracle(log)
	if err != nil {
		log.Error("failed to build ledger", "error", err)
		os.Exit(1)
	}

	engine, err := farming.NewEngine(farming.Config{
		Ledger:     ledger,
		SlotOracle: oracle,
		Logger:     log,
	})
	if err != nil {
		log.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *metricsAddr != "" {
		go serveMetrics(log, *metricsAddr)
	}

	if *apiListen != "" {
		go serveAPI(log, ledger, *apiListen)
	}

	log.Info("farmd starting", "farms", len(farmList), "watch", len(watchList), "simulate", *simulate, "interval", *interval)
	run(ctx, log, engine, farmList, watchList, *interval)
}

func run(ctx context.Context, log *slog.Logger, engine *farming.Engine, farmList []solana.PublicKey, watchList []watchTarget, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("farmd shutting down")
			return
		case <-ticker.C:
			for _, farm := range farmList {
				if err := engine.TakeFarmSnapshot(ctx, farm); err != nil {
					log.Warn("failed to take farm snapshot", "farm", farm, "error", err)
				}
			}
			for _, target := range watchList {
				if err := engine.UpdateEligibleHarvest(ctx, target.farm, target.farmer); err != nil {
					log.Warn("failed to update eligible harvest", "farm", target.farm, "farmer", target.farmer, "error", err)
				}
			}
		}
	}
}

func buildLedgerAndOracle(log *slog.Logger) (farming.Ledger, farming.SlotOracle, error) {
	if *simulate {
		id := solana.NewWallet().PublicKey()
		if *programID != "" {
			pk, err := solana.PublicKeyFromBase58(*programID)
			if err != nil {
				return nil, nil, fmt.Errorf("parse program id: %w", err)
			}
			id = pk
		}
		ledger := farming.NewMemoryLedger(id)
		oracle := simslot.New(clockwork.NewRealClock(), 0, simslot.ApproximateSlotDuration)
		return ledger, oracle, nil
	}

	rpcURL := *ledgerRPCURL
	progID := *programID
	if *env != "" {
		nc, err := config.NetworkConfigForEnv(*env)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve network config: %w", err)
		}
		if rpcURL == "" {
			rpcURL = nc.LedgerRPCURL
		}
		if progID == "" {
			progID = nc.FarmingProgramID.String()
		}
	}
	if rpcURL == "" || progID == "" {
		return nil, nil, fmt.Errorf("-ledger-rpc-url and -program-id (or -env) are required without -simulate")
	}

	rpcClient := solanarpc.New(rpcURL)
	oracle := rpcslot.New(log, rpcClient, solanarpc.CommitmentFinalized)

	return nil, oracle, fmt.Errorf("live-cluster mode requires a payer keypair; drive farming/onchain.Client directly instead of farmd for now")
}

func serveMetrics(log *slog.Logger, addr string) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("failed to start metrics server", "error", err)
		return
	}
	log.Info("prometheus metrics server listening", "address", listener.Addr().String())
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.Serve(listener, mux); err != nil {
		log.Error("metrics server exited", "error", err)
	}
}

func serveAPI(log *slog.Logger, ledger farming.Ledger, addr string) {
	s, err := apiinternal.NewApiServer(apiinternal.WithLedger(ledger), apiinternal.WithLogger(log), apiinternal.WithListenAddr(addr))
	if err != nil {
		log.Error("failed to create api server", "error", err)
		return
	}
	if err := s.Run(); err != nil {
		log.Error("api server exited", "error", err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func parsePubkeyList(s string) ([]solana.PublicKey, error) {
	if s == "" {
		return nil, nil
	}
	var out []solana.PublicKey
	for _, part := range strings.Split(s, ",") {
		pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse pubkey %q: %w", part, err)
		}
		out = append(out, pk)
	}
	return out, nil
}

func parseWatchList(s string) ([]watchTarget, error) {
	if s == "" {
		return nil, nil
	}
	var out []watchTarget
	for _, part := range strings.Split(s, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid watch entry %q, want farm:farmer", part)
		}
		farm, err := solana.PublicKeyFromBase58(pair[0])
		if err != nil {
			return nil, fmt.Errorf("parse farm pubkey %q: %w", pair[0], err)
		}
		farmer, err := solana.PublicKeyFromBase58(pair[1])
		if err != nil {
			return nil, fmt.Errorf("parse farmer pubkey %q: %w", pair[1], err)
		}
		out = append(out, watchTarget{farm: farm, farmer: farmer})
	}
	return out, nil
}
