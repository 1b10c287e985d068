// Command demo is the command-line driver spec.md §1 names as an external
// collaborator and SPEC_FULL.md §6 asks to actually build: it runs the
// S1-S6 end-to-end scenarios from spec §8 against the in-process
// paxos/system package, prints a run summary, and
// optionally persists it to historydb and streams protocol events to
// telemetry. Only the named scenarios can be run; there are no flags for
// choosing a custom cohort.
//
// Grounded in sandeepkv93-network-programming/cmd's Cobra-based CLI
// structure (a root command plus one subcommand per verb).
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gdub/weighted-paxos/internal/historydb"
	"github.com/gdub/weighted-paxos/internal/telemetry"
	"github.com/gdub/weighted-paxos/paxos/config"
	"github.com/gdub/weighted-paxos/paxos/resultlog"
	"github.com/gdub/weighted-paxos/paxos/system"
	"github.com/gdub/weighted-paxos/paxos/transport"
)

var (
	dbPath     string
	redisAddr  string
	randomSeed int64
)

var rootCmd = &cobra.Command{
	Use:   "demo",
	Short: "Weighted Paxos simulation driver",
	Long:  "demo runs the weighted-paxos end-to-end scenarios against an in-process agent cohort.",
}

var runCmd = &cobra.Command{
	Use:       "run [s1|s2|s3|s4|s5|s6]",
	Short:     "Run one of the named end-to-end scenarios",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"s1", "s2", "s3", "s4", "s5", "s6"},
	RunE:      runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&dbPath, "db", "", "optional SQLite path to record this run's summary")
	runCmd.Flags().StringVar(&redisAddr, "redis", "", "optional redis addr (host:port) to stream telemetry events")
	runCmd.Flags().Int64Var(&randomSeed, "seed", 1, "seed for the mailbox drop model")
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, ok := scenarios()[args[0]]
	if !ok {
		return fmt.Errorf("unknown scenario %q", args[0])
	}

	cfg, err := config.New(sc.Opts)
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}

	runID := uuid.NewString()
	fmt.Printf("[DEMO] -> Run %s: %s\n", runID, sc.Name)

	total := cfg.NumProposers + cfg.NumAcceptors + cfg.NumLearners
	pids := make([]int, total)
	for i := range pids {
		pids[i] = i
	}
	tr := transport.Transport(transport.NewLossyMailbox(pids, cfg.MessageTimeout, cfg.FailRate, randomSeed))

	sys := system.New(cfg, system.Options{Transport: tr, OrderedLearner: sc.OrderedLearner})

	var pub *telemetry.Publisher
	if redisAddr != "" {
		pub, err = telemetry.NewPublisher(redisAddr, "weighted-paxos:"+runID)
		if err != nil {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer pub.Close()
		attachTelemetry(sys, pub)
	}

	sys.Start()
	time.Sleep(cfg.MessageTimeout)

	for _, r := range sc.Requests {
		sys.SubmitTo(r.ProposerPid, r.Value, r.Instance)
	}

	sys.ShutdownAgents()
	sys.Quit()

	first, last := firstAndLastInstance(sc.Requests)
	stats := sys.Stats()
	summary := sys.Logger.Summarize(first, last, cfg.NumProposers, cfg.NumAcceptors, cfg.NumLearners,
		sc.Opts.FailRates, resultlog.MessageStats{Sent: stats.Sent, Failed: stats.Failed, Recv: stats.Received})

	printSummary(sc.Name, summary)

	if dbPath != "" {
		db, err := historydb.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening history db: %w", err)
		}
		defer db.Close()
		if err := db.RecordRun(runID, args[0], summary); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
	}

	if !summary.Consistent() {
		return fmt.Errorf("run %s was inconsistent: %d bad instances", runID, summary.Bad)
	}
	return nil
}

func firstAndLastInstance(reqs []request) (int64, int64) {
	instances := make([]int64, 0, len(reqs))
	nextAuto := int64(1)
	for _, r := range reqs {
		if r.Instance == 0 {
			instances = append(instances, nextAuto)
			nextAuto++
		} else {
			instances = append(instances, r.Instance)
		}
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i] < instances[j] })
	if len(instances) == 0 {
		return 1, 0
	}
	return instances[0], instances[len(instances)-1]
}

func printSummary(name string, s resultlog.Summary) {
	fmt.Printf("[DEMO] -> %s summary: learned=%d missing=%d good=%d bad=%d empty=%d incomplete=%d complete=%d consistent=%t\n",
		name, s.Learned, s.Missing, s.Good, s.Bad, s.Empty, s.Incomplete, s.Complete, s.Consistent())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
