// Package main provides the association report tool: a stats overview of
// the reputation tables, a CSV export, and an optional copy of the edge
// log into ClickHouse for long-term retention.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/config"
	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/reputation"
	"github.com/lookoupai/Low-price-tron-energy/internal/storage"
)

const recentLimit = 10

func main() {
	var (
		export    = flag.Bool("export", false, "export blacklist, whitelist and edges to CSV files")
		exportDir = flag.String("export-dir", "export", "directory for CSV exports")
		archive   = flag.Bool("archive", false, "copy the edge log into ClickHouse")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.InitGlobalLogger(logging.LevelWarn, logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer postgres.Close()

	blacklistRepo := storage.NewBlacklistRepository(postgres)
	whitelistRepo := storage.NewWhitelistRepository(postgres)
	settingsRepo := storage.NewSettingsRepository(postgres)

	blacklist := reputation.NewBlacklistStore(blacklistRepo, 10, time.Minute, logger)
	whitelist := reputation.NewWhitelistStore(whitelistRepo, 10, time.Minute, logger)
	settings := reputation.NewSettingsStore(settingsRepo, logger)
	reporter := reputation.NewStatsReporter(blacklist, whitelist, settings)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := printReport(ctx, reporter, blacklistRepo); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}

	if *export {
		if err := exportCSV(ctx, *exportDir, blacklistRepo, whitelistRepo); err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
			os.Exit(1)
		}
	}

	if *archive {
		if err := archiveEdges(ctx, cfg, blacklistRepo); err != nil {
			fmt.Fprintf(os.Stderr, "archive failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func printReport(ctx context.Context, reporter *reputation.StatsReporter, blacklistRepo *storage.BlacklistRepository) error {
	snapshot, err := reporter.Snapshot(ctx)
	if err != nil {
		return err
	}

	fmt.Println("=== Reputation report ===")
	fmt.Printf("Blacklist entries:     %d (manual %d, auto-associated %d, provisional %d)\n",
		snapshot.Blacklist.Total, snapshot.Blacklist.Manual,
		snapshot.Blacklist.AutoAssociated, snapshot.Blacklist.Provisional)
	fmt.Printf("Whitelist addresses:   %d (payment %d, provider %d)\n",
		snapshot.Whitelist.Addresses, snapshot.Whitelist.Payment, snapshot.Whitelist.Provider)
	fmt.Printf("Whitelist pairs:       %d\n", snapshot.Whitelist.Pairs)
	fmt.Printf("Association edges:     %d\n", snapshot.AssociationEdges)
	fmt.Printf("Propagation enabled:   %v\n", snapshot.AssociationEnabled)

	recent, err := blacklistRepo.RecentAutoAssociated(ctx, recentLimit)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		fmt.Println("\nRecent auto-associated entries:")
		for _, entry := range recent {
			fmt.Printf("  %s  %s  (%s)\n", entry.AddedAt.Format(time.RFC3339), entry.Address, entry.Reason)
		}
	}

	edges, err := blacklistRepo.RecentEdges(ctx, recentLimit)
	if err != nil {
		return err
	}
	if len(edges) > 0 {
		fmt.Println("\nRecent propagation edges:")
		for _, edge := range edges {
			fmt.Printf("  %s  %s -> %s\n", edge.CreatedAt.Format(time.RFC3339), edge.SourceAddress, edge.TargetAddress)
		}
	}
	return nil
}

func exportCSV(ctx context.Context, dir string, blacklistRepo *storage.BlacklistRepository, whitelistRepo *storage.WhitelistRepository) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().Format("2006-01-02")

	entries, err := blacklistRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	blacklistRows := [][]string{{"address", "reason", "type", "added_by", "added_at", "provisional"}}
	for _, e := range entries {
		blacklistRows = append(blacklistRows, []string{
			e.Address, e.Reason, string(e.Type), e.AddedBy,
			e.AddedAt.Format(time.RFC3339), strconv.FormatBool(e.Provisional),
		})
	}
	if err := writeCSV(filepath.Join(dir, fmt.Sprintf("blacklist_%s.csv", stamp)), blacklistRows); err != nil {
		return err
	}

	addresses, err := whitelistRepo.ListActiveAddresses(ctx)
	if err != nil {
		return err
	}
	whitelistRows := [][]string{{"address", "role", "reason", "added_by", "added_at", "success_count"}}
	for _, e := range addresses {
		whitelistRows = append(whitelistRows, []string{
			e.Address, string(e.Role), e.Reason, e.AddedBy,
			e.AddedAt.Format(time.RFC3339), strconv.Itoa(e.SuccessCount),
		})
	}
	if err := writeCSV(filepath.Join(dir, fmt.Sprintf("whitelist_%s.csv", stamp)), whitelistRows); err != nil {
		return err
	}

	pairs, err := whitelistRepo.ListActivePairs(ctx)
	if err != nil {
		return err
	}
	pairRows := [][]string{{"payment_address", "provider_address", "success_count", "last_success_time"}}
	for _, p := range pairs {
		pairRows = append(pairRows, []string{
			p.PaymentAddress, p.ProviderAddress,
			strconv.Itoa(p.SuccessCount), p.LastSuccessTime.Format(time.RFC3339),
		})
	}
	if err := writeCSV(filepath.Join(dir, fmt.Sprintf("whitelist_pairs_%s.csv", stamp)), pairRows); err != nil {
		return err
	}

	edges, err := blacklistRepo.ListEdges(ctx)
	if err != nil {
		return err
	}
	edgeRows := [][]string{{"source_address", "target_address", "created_at"}}
	for _, e := range edges {
		edgeRows = append(edgeRows, []string{
			e.SourceAddress, e.TargetAddress, e.CreatedAt.Format(time.RFC3339),
		})
	}
	if err := writeCSV(filepath.Join(dir, fmt.Sprintf("association_edges_%s.csv", stamp)), edgeRows); err != nil {
		return err
	}

	fmt.Printf("\nExported %d blacklist entries, %d whitelist addresses, %d pairs, %d edges to %s\n",
		len(entries), len(addresses), len(pairs), len(edges), dir)
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func archiveEdges(ctx context.Context, cfg *config.Config, blacklistRepo *storage.BlacklistRepository) error {
	if cfg.Database.ClickHouse.Host == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is not configured")
	}

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		return err
	}
	defer clickhouse.Close()

	if err := clickhouse.EnsureEdgeArchive(ctx); err != nil {
		return err
	}

	edges, err := blacklistRepo.ListEdges(ctx)
	if err != nil {
		return err
	}
	if err := clickhouse.ArchiveEdges(ctx, edges); err != nil {
		return err
	}

	total, err := clickhouse.ArchivedEdgeCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nArchived %d edges (archive now holds %d)\n", len(edges), total)
	return nil
}
