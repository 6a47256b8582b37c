// relcore-bootstrap lays down a fresh relcore data directory: it opens (and
// so creates) every catalog bucket, then seeds a self-describing pg_class
// row for each system catalog itself, the way initdb's bootstrap mode
// populates pg_class with rows describing pg_class, pg_attribute, and so
// on before any user relation exists. Modeled on warren-migrate's
// flag-based, backup-before-writing bbolt tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/types"
)

var (
	dataDir    = flag.String("data-dir", "./data", "relcore data directory")
	dryRun     = flag.Bool("dry-run", false, "show what would be seeded without writing catalog rows (the data directory and catalog file are still created if absent)")
	backupPath = flag.String("backup", "", "path to back up an existing catalog before bootstrapping (default: <data-dir>/relcore.db.backup)")
)

// systemCatalog describes one self-referential pg_class row bootstrap mode
// seeds before any user relation can be created.
type systemCatalog struct {
	id   types.RelationID
	name string
}

// Fixed low ids, below oid.FirstNormalID, reserved for the core's own
// system catalogs, mirroring Postgres's hand-assigned catalog OIDs.
var systemCatalogs = []systemCatalog{
	{1259, "pg_class"},
	{1249, "pg_attribute"},
	{1247, "pg_type"},
	{2608, "pg_depend"},
	{2606, "pg_constraint"},
	{2604, "pg_attrdef"},
	{2611, "pg_inherits"},
	{3350, "pg_partitioned_table"},
	{2619, "pg_statistic"},
	{3118, "pg_foreign_table"},
	{6102, "pg_subscription_rel"},
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("relcore bootstrap - seeding system catalogs")
	log.Println("============================================")

	dbPath := filepath.Join(*dataDir, "relcore.db")
	if _, err := os.Stat(dbPath); err == nil && !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = dbPath + ".backup"
		}
		log.Printf("Backing up existing catalog to %s", backupFile)
		if err := copyFile(dbPath, backupFile); err != nil {
			log.Fatalf("backup failed: %v", err)
		}
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	store, err := catalog.Open(*dataDir)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	seeded := 0
	for _, sc := range systemCatalogs {
		if _, err := store.GetClassRow(sc.id); err == nil {
			log.Printf("✓ %s (id=%d) already present, skipping", sc.name, sc.id)
			continue
		}

		if *dryRun {
			log.Printf("[DRY RUN] would seed %s (id=%d)", sc.name, sc.id)
			continue
		}

		desc := types.RelationDescriptor{
			ID:          sc.id,
			Name:        sc.name,
			Namespace:   "pg_catalog",
			Kind:        types.RelKindTable,
			Persistence: types.PersistencePermanent,
		}
		if err := store.InsertClassRow(desc, nil, nil); err != nil {
			log.Fatalf("seed %s: %v", sc.name, err)
		}
		seeded++
		log.Printf("✓ seeded %s (id=%d)", sc.name, sc.id)
	}

	if *dryRun {
		log.Println("\nDry run completed. No catalog rows written.")
		return
	}
	fmt.Printf("\n✓ Bootstrap completed: %d system catalogs seeded\n", seeded)
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0o600)
}
