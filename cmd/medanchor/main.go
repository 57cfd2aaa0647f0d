package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/caldermed/medanchor/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	cfgFile   string
	asJSON    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "medanchor",
	Short: "medanchor CLI",
	Long: `medanchor is the command-line interface for the medanchor server.

It creates ledger-anchored patient and organ records, runs bulk and
point verification, and inspects the anchoring topic.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.medanchor")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.medanchor/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "medanchor server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON responses")

	rootCmd.AddCommand(patientCmd)
	rootCmd.AddCommand(organCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(createTopicCmd)
	rootCmd.AddCommand(versionCmd)
}

func api() *client.Client {
	return client.New(serverURL)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── patient ──────────────────────────────────────────────────────────────────

var patientCmd = &cobra.Command{
	Use:   "patient <name> <bloodType> <age>",
	Short: "Create and anchor a patient record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		age, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("age must be an integer: %w", err)
		}

		res, err := api().CreatePatient(context.Background(), args[0], args[1], age)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}

		fmt.Printf("patient %s anchored\n", res.Patient.ID)
		fmt.Printf("  hash:          %s\n", res.Hash)
		fmt.Printf("  transactionId: %s\n", res.TransactionID)
		return nil
	},
}

// ── organ ────────────────────────────────────────────────────────────────────

var organCmd = &cobra.Command{
	Use:   "organ <type> <bloodType> <donorId>",
	Short: "Create and anchor an organ record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api().CreateOrgan(context.Background(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}

		fmt.Printf("organ %s anchored\n", res.Organ.ID)
		fmt.Printf("  hash:          %s\n", res.Hash)
		fmt.Printf("  transactionId: %s\n", res.TransactionID)
		return nil
	},
}

// ── verify ───────────────────────────────────────────────────────────────────

var (
	verifyType string
	verifyID   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify stored records against the ledger",
	Long: `Verify reconciles stored records against the anchoring topic.

Without flags it runs bulk verification over every record. With --type
and --id it verifies one record, replaying only until its anchor is
found:

  medanchor verify
  medanchor verify --type patient --id 9f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if verifyID != "" || verifyType != "" {
			if verifyID == "" || verifyType == "" {
				return fmt.Errorf("--type and --id must be used together")
			}
			res, err := api().VerifyRecord(ctx, verifyType, verifyID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			printVerdicts([]client.VerifyResult{*res})
			return nil
		}

		results, err := api().VerifyAll(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(results)
		}
		printVerdicts(results)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyType, "type", "", "record type: patient or organ")
	verifyCmd.Flags().StringVar(&verifyID, "id", "", "record id")
}

func printVerdicts(results []client.VerifyResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tID\tVALID\tREPLAY\tSEQ")
	for _, r := range results {
		verdict := "INVALID"
		if r.Valid {
			verdict = "valid"
		} else if !r.ReplayComplete {
			verdict = "inconclusive"
		}
		replay := "complete"
		if !r.ReplayComplete {
			replay = "partial"
		}
		seq := "-"
		if r.Evidence != nil {
			seq = strconv.FormatUint(r.Evidence.SequenceNumber, 10)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.RecordType, r.RecordID, verdict, replay, seq)
	}
	w.Flush()
}

// ── logs ─────────────────────────────────────────────────────────────────────

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Replay the anchoring topic and print its entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api().Logs(context.Background())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tTIMESTAMP\tTYPE\tHASH")
		for _, m := range res.Messages {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.SequenceNumber, m.ConsensusTimestamp.Format("2006-01-02T15:04:05Z07:00"), m.Type, m.Hash)
		}
		w.Flush()
		if !res.Complete {
			fmt.Println("(replay hit its deadline; listing is partial)")
		}
		return nil
	},
}

// ── create-topic ─────────────────────────────────────────────────────────────

var createTopicCmd = &cobra.Command{
	Use:   "create-topic",
	Short: "Provision a fresh anchoring topic on the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := api().CreateTopic(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("medanchor", version)
	},
}
