package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Wisaacj/Supervisor/internal/model"
	"github.com/Wisaacj/Supervisor/internal/repository/sqlite"
	"github.com/Wisaacj/Supervisor/internal/service/storage"
)

func main() {
	archiveDir := flag.String("archive", "snapshots", "Directory containing archived snapshots")
	dbPath := flag.String("db", "data/snapshots.db", "Database path")
	flag.Parse()

	fmt.Printf("Indexing snapshots from %s into %s\n", *archiveDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	snapshots := sqlite.NewSnapshotRepository(db)
	detections := sqlite.NewDetectionRepository(db)

	files, err := os.ReadDir(*archiveDir)
	if err != nil {
		log.Fatalf("Failed to read archive directory: %v", err)
	}

	indexed, existing, skipped := 0, 0, 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		exists, err := snapshots.Exists(file.Name())
		if err != nil {
			log.Fatalf("Failed to query database: %v", err)
		}
		if exists {
			existing++
			continue
		}

		timestamp, sessionID, labels, err := storage.ParseSnapshotName(file.Name())
		if err != nil {
			log.Printf("Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		id, err := snapshots.Insert(&model.Snapshot{
			Filename:  file.Name(),
			SessionID: sessionID,
			Timestamp: timestamp,
			FilePath:  filepath.Join(*archiveDir, file.Name()),
			FileSize:  info.Size(),
		})
		if err != nil {
			log.Fatalf("Failed to insert %s: %v", file.Name(), err)
		}

		// Boxes are not recoverable from the filename, only the labels.
		rows := make([]model.Detection, 0, len(labels))
		for _, label := range labels {
			rows = append(rows, model.Detection{SnapshotID: id, ObjectName: label})
		}
		if err := detections.InsertBatch(rows); err != nil {
			log.Fatalf("Failed to insert detections for %s: %v", file.Name(), err)
		}
		indexed++
	}

	fmt.Printf("Indexed %d snapshots, %d already present, %d skipped\n", indexed, existing, skipped)
}
